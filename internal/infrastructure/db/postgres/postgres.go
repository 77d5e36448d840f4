package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver

	"github.com/neurodex/neurodex/internal/core/domain"
)

const defaultTimeout = 5 * time.Second

//go:embed schema.sql
var schemaSQL string

// Config captures the settings for establishing a Postgres connection.
type Config struct {
	DSN     string
	Timeout time.Duration
}

// Connect opens a pgx-backed sql.DB and validates connectivity with a ping.
func Connect(ctx context.Context, cfg Config) (*sql.DB, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	db, err := sql.Open("pgx", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}

	return db, nil
}

// ApplySchema executes the embedded DDL statement by statement. All
// statements are idempotent (CREATE TABLE IF NOT EXISTS / ON CONFLICT DO
// NOTHING), so startup re-runs are safe.
func ApplySchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range SplitStatements(schemaSQL) {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("execute ddl: %w", err)
		}
	}
	return nil
}

// SplitStatements splits a SQL script on statement-terminating semicolons.
// Good enough for the embedded schema, which contains no string literals
// with semicolons.
func SplitStatements(script string) []string {
	parts := strings.Split(script, ";")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}
	return out
}

// Postgres error codes relevant to invariant mapping.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeSerializationFail   = "40001"
	codeDeadlockDetected    = "40P01"
)

// mapError converts driver-level constraint and serialization failures into
// the core error taxonomy.
func mapError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case codeUniqueViolation:
		return fmt.Errorf("%w: %s", domain.ErrDuplicateKey, pgErr.ConstraintName)
	case codeForeignKeyViolation:
		return fmt.Errorf("%w: %s", domain.ErrInUse, pgErr.ConstraintName)
	case codeSerializationFail, codeDeadlockDetected:
		return domain.ErrConflict
	}
	return err
}
