package database

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

//go:embed schema.sql
var schema string

// Statements returns the schema split into individual statements.
func Statements() []string {
	var out []string
	for _, s := range strings.Split(schema, ";") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Migrate applies the bundled schema. Every statement is idempotent, so it
// is safe to run on each start.
func Migrate(ctx context.Context, db *sql.DB) error {
	stmts := Statements()
	for i, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d: %w", i+1, err)
		}
	}
	logrus.WithField("statements", len(stmts)).Info("database schema applied")
	return nil
}
