package database

import (
	"context"
	_ "embed"
	"fmt"
	"strings"
)

//go:embed schema.sql
var schemaSQL string

// SchemaSQL returns the embedded bootstrap schema.
func SchemaSQL() string { return schemaSQL }

// EnsureSchema creates missing tables. Every statement is idempotent, so it
// is safe on each start; it does not alter existing tables.
func (g *Gateway) EnsureSchema(ctx context.Context) error {
	return ApplyStatements(ctx, g, schemaSQL)
}

// ApplyStatements executes a semicolon separated SQL script one statement at a
// time, stopping at the first failure.
func ApplyStatements(ctx context.Context, r Runner, script string) error {
	for i, stmt := range SplitStatements(script) {
		if _, err := r.Execute(ctx, stmt); err != nil {
			return fmt.Errorf("statement %d failed: %w", i+1, err)
		}
	}
	return nil
}

// SplitStatements splits script on ';' and drops blank and comment-only chunks.
// Statements must not contain literal semicolons.
func SplitStatements(script string) []string {
	var out []string
	for _, chunk := range strings.Split(script, ";") {
		var lines []string
		for _, line := range strings.Split(chunk, "\n") {
			if strings.HasPrefix(strings.TrimSpace(line), "--") {
				continue
			}
			lines = append(lines, line)
		}
		stmt := strings.TrimSpace(strings.Join(lines, "\n"))
		if stmt != "" {
			out = append(out, stmt)
		}
	}
	return out
}
