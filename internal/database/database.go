// Package database provides the SurrealDB access layer for the Pausemo engine.
//
// The Database interface hides the SurrealDB client so repositories can be
// exercised against fakes:
//   - Query: returns every statement result (for SELECT lists and batches)
//   - QueryOne: returns the first record of the first statement
//   - Execute: runs a mutation and discards the result
//
// # Transactions
//
// Transactions are BATCH-BASED. AtomicBatch and TxBuilder collect statements
// in memory and send them as one BEGIN/COMMIT block, so either every
// statement applies or none does. There is no isolation between Add calls.
//
// # Schema
//
// Migrate applies the embedded SurrealQL migrations in file order and
// records each applied file in the schema_migration table.
//
// # Error Handling
//
//	if errors.Is(err, database.ErrNotFound) {
//	    // Handle missing record
//	}
package database

import (
	"context"
	"errors"
)

// Standard errors for database operations.
var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate indicates a unique index violation.
	ErrDuplicate = errors.New("duplicate record")

	// ErrConnection indicates a failure to reach SurrealDB.
	ErrConnection = errors.New("database connection error")

	// ErrQuery indicates a statement failed to execute.
	ErrQuery = errors.New("query error")
)

// Database defines the interface for database operations
type Database interface {
	Connect(ctx context.Context) error
	Close() error
	Ping(ctx context.Context) error

	// Query executes a query and returns one wrapper per statement
	Query(ctx context.Context, query string, vars map[string]interface{}) ([]interface{}, error)

	// QueryOne executes a query and returns a single record
	QueryOne(ctx context.Context, query string, vars map[string]interface{}) (interface{}, error)

	// Execute runs a query without returning results (for mutations)
	Execute(ctx context.Context, query string, vars map[string]interface{}) error
}

// Config holds database configuration
type Config struct {
	Host      string
	Port      string
	User      string
	Password  string
	Namespace string
	Database  string
	// ConnectAttempts is how many times Connect tries before giving up
	ConnectAttempts int
}
