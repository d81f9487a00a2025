package database

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// TxBuilder builds one BEGIN/COMMIT block from several statements. Each
// statement's variables are renamed with a unique prefix so statements that
// reuse a name (two $card_id, say) do not collide.
type TxBuilder struct {
	statements []string
	vars       map[string]interface{}
	counter    int
}

// NewTxBuilder creates a new transaction builder
func NewTxBuilder() *TxBuilder {
	return &TxBuilder{
		vars: make(map[string]interface{}),
	}
}

// Add appends a statement, namespacing its variables
func (tb *TxBuilder) Add(query string, vars map[string]interface{}) {
	tb.counter++

	// longest names first so $card is never rewritten inside $card_id
	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return len(names[i]) > len(names[j]) })

	rewritten := query
	for _, name := range names {
		alias := fmt.Sprintf("s%d_%s", tb.counter, name)
		rewritten = strings.ReplaceAll(rewritten, "$"+name, "$"+alias)
		tb.vars[alias] = vars[name]
	}
	tb.statements = append(tb.statements, rewritten)
}

// Build returns the complete transaction query and merged variables
func (tb *TxBuilder) Build() (string, map[string]interface{}) {
	if len(tb.statements) == 0 {
		return "", nil
	}

	var sb strings.Builder
	sb.WriteString("BEGIN TRANSACTION;\n")
	for _, stmt := range tb.statements {
		sb.WriteString(strings.TrimSpace(stmt))
		if !strings.HasSuffix(strings.TrimSpace(stmt), ";") {
			sb.WriteString(";")
		}
		sb.WriteString("\n")
	}
	sb.WriteString("COMMIT TRANSACTION;")

	return sb.String(), tb.vars
}

// Len returns the number of statements added so far
func (tb *TxBuilder) Len() int {
	return len(tb.statements)
}

// AtomicBatch runs a list of statements all-or-nothing
type AtomicBatch struct {
	tb *TxBuilder
}

// NewAtomicBatch creates a new atomic batch
func NewAtomicBatch() *AtomicBatch {
	return &AtomicBatch{tb: NewTxBuilder()}
}

// Add adds a query to the batch
func (ab *AtomicBatch) Add(query string, vars map[string]interface{}) *AtomicBatch {
	ab.tb.Add(query, vars)
	return ab
}

// Execute runs all queries as a single transaction and returns the
// per-statement results
func (ab *AtomicBatch) Execute(ctx context.Context, db Database) ([]interface{}, error) {
	query, vars := ab.tb.Build()
	if query == "" {
		return nil, nil
	}
	return db.Query(ctx, query, vars)
}

// Len returns the number of queries in the batch
func (ab *AtomicBatch) Len() int {
	return ab.tb.Len()
}
