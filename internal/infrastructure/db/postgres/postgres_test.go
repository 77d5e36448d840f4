package postgres

import (
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/neurodex/neurodex/internal/core/domain"
)

func TestSplitStatements(t *testing.T) {
	script := `
CREATE TABLE a (id TEXT);

CREATE TABLE b (id TEXT);
INSERT INTO a VALUES ('x');
`
	stmts := SplitStatements(script)
	if len(stmts) != 3 {
		t.Fatalf("expected 3 statements, got %d: %q", len(stmts), stmts)
	}
	if !strings.Contains(stmts[2], "INSERT INTO a") {
		t.Fatalf("statement order broken: %q", stmts[2])
	}
}

func TestSplitStatements_EmbeddedSchema(t *testing.T) {
	stmts := SplitStatements(schemaSQL)
	if len(stmts) == 0 {
		t.Fatalf("embedded schema produced no statements")
	}
	for _, stmt := range stmts {
		if strings.TrimSpace(stmt) == "" {
			t.Fatalf("blank statement survived splitting")
		}
	}
}

func TestMapError(t *testing.T) {
	cases := []struct {
		code string
		want error
	}{
		{codeUniqueViolation, domain.ErrDuplicateKey},
		{codeForeignKeyViolation, domain.ErrInUse},
		{codeSerializationFail, domain.ErrConflict},
		{codeDeadlockDetected, domain.ErrConflict},
	}
	for _, tc := range cases {
		err := mapError(&pgconn.PgError{Code: tc.code})
		if !errors.Is(err, tc.want) {
			t.Fatalf("code %s: expected %v, got %v", tc.code, tc.want, err)
		}
	}

	plain := errors.New("boom")
	if mapError(plain) != plain {
		t.Fatalf("non-pg error must pass through unchanged")
	}
}
