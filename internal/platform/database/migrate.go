package database

import (
	"context"
	"database/sql"
	"fmt"

	"filevault/internal/platform/database/migrations"

	"github.com/pressly/goose/v3"
)

// gooseRun is swapped in tests.
var gooseRun = func(ctx context.Context, command string, db *sql.DB) error {
	return goose.RunContext(ctx, command, db, ".")
}

// Migrate runs a goose command ("up", "down", "status", ...) against the
// migrations embedded in the binary.
func Migrate(ctx context.Context, db *sql.DB, command string) error {
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("pgx"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if err := gooseRun(ctx, command, db); err != nil {
		return fmt.Errorf("goose %s: %w", command, err)
	}
	return nil
}
