package database

import (
	"context"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/pausemo/api/internal/logger"
)

// Migrate applies every *.surql file in files that is not yet recorded in
// schema_migration. Files run in lexical order, each inside its own
// transaction together with its bookkeeping row.
func Migrate(ctx context.Context, db Database, files fs.FS, log *logger.Logger) (int, error) {
	if log == nil {
		log = logger.NewNop()
	}

	if err := db.Execute(ctx, `DEFINE TABLE IF NOT EXISTS schema_migration SCHEMALESS`, nil); err != nil {
		return 0, fmt.Errorf("prepare schema_migration: %w", err)
	}

	applied, err := appliedMigrations(ctx, db)
	if err != nil {
		return 0, err
	}

	names, err := fs.Glob(files, "*.surql")
	if err != nil {
		return 0, err
	}
	sort.Strings(names)

	count := 0
	for _, name := range names {
		if applied[name] {
			continue
		}
		body, err := fs.ReadFile(files, name)
		if err != nil {
			return count, fmt.Errorf("read migration %s: %w", name, err)
		}

		batch := NewAtomicBatch()
		for _, stmt := range splitStatements(string(body)) {
			batch.Add(stmt, nil)
		}
		batch.Add(`CREATE schema_migration SET name = $name, applied_on = time::now()`, map[string]interface{}{"name": name})

		if _, err := batch.Execute(ctx, db); err != nil {
			return count, fmt.Errorf("apply migration %s: %w", name, err)
		}
		log.Info("migration applied", "name", name)
		count++
	}
	return count, nil
}

func appliedMigrations(ctx context.Context, db Database) (map[string]bool, error) {
	results, err := db.Query(ctx, `SELECT name FROM schema_migration`, nil)
	if err != nil {
		return nil, fmt.Errorf("list migrations: %w", err)
	}

	applied := make(map[string]bool)
	for _, r := range results {
		resp, ok := r.(map[string]interface{})
		if !ok {
			continue
		}
		rows, ok := resp["result"].([]interface{})
		if !ok {
			continue
		}
		for _, row := range rows {
			if m, ok := row.(map[string]interface{}); ok {
				if name, ok := m["name"].(string); ok {
					applied[name] = true
				}
			}
		}
	}
	return applied, nil
}

// splitStatements splits a migration file on semicolons at line ends and
// drops blank lines and -- comments
func splitStatements(body string) []string {
	var (
		stmts   []string
		current strings.Builder
	)
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "--") {
			continue
		}
		current.WriteString(line)
		current.WriteString("\n")
		if strings.HasSuffix(trimmed, ";") {
			stmts = append(stmts, strings.TrimSpace(current.String()))
			current.Reset()
		}
	}
	if rest := strings.TrimSpace(current.String()); rest != "" {
		stmts = append(stmts, rest)
	}
	return stmts
}
