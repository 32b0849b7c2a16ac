package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/fieldcrew/opsuite/services/scheduling-service/internal/model"
)

func TestTranslate(t *testing.T) {
	overlap := fmt.Errorf("exec: %w", &pgconn.PgError{Code: "23P01", ConstraintName: "jobs_no_overlap"})
	if err := translate("update job", overlap); !errors.Is(err, model.ErrOverlap) {
		t.Fatalf("expected ErrOverlap, got %v", err)
	}
	if err := translate("get job", pgx.ErrNoRows); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := translate("get job", &pgconn.PgError{Code: "22P02"}); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected malformed id to read as not found, got %v", err)
	}
	other := errors.New("conn closed")
	if err := translate("get job", other); !errors.Is(err, other) || errors.Is(err, model.ErrNotFound) {
		t.Fatalf("unexpected translation %v", err)
	}
	if translate("noop", nil) != nil {
		t.Fatal("nil must stay nil")
	}
	if !IsUniqueViolation(&pgconn.PgError{Code: "23505"}) {
		t.Fatal("expected unique violation")
	}
}

func TestMigrationsAreEmbedded(t *testing.T) {
	names, err := fs.Glob(Migrations(), "*.sql")
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if len(names) == 0 || names[0] != "0001_init.sql" {
		t.Fatalf("unexpected migrations %v", names)
	}
}
