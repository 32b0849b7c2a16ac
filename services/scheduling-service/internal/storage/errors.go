package storage

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/fieldcrew/opsuite/services/scheduling-service/internal/model"
)

const (
	codeExclusionViolation = "23P01"
	codeUniqueViolation    = "23505"
	codeInvalidText        = "22P02"
)

// IsConflict reports an exclusion constraint violation, i.e. two active jobs
// overlapping for the same business.
func IsConflict(err error) bool {
	return hasCode(err, codeExclusionViolation)
}

func IsUniqueViolation(err error) bool {
	return hasCode(err, codeUniqueViolation)
}

func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

func hasCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}

// translate maps driver errors onto the model's storage outcomes. A malformed
// uuid can never match a row, so it reads as not found.
func translate(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case IsNotFound(err), hasCode(err, codeInvalidText):
		return fmt.Errorf("%s: %w", op, model.ErrNotFound)
	case IsConflict(err):
		return fmt.Errorf("%s: %w", op, model.ErrOverlap)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
