// Package storage persists scheduling data in PostgreSQL. Every write also
// records an outbox event in the same transaction.
package storage

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/fieldcrew/opsuite/libs/db"
	"github.com/fieldcrew/opsuite/services/scheduling-service/internal/outbox"
)

type Repository struct {
	pool   *db.Pool
	outbox *outbox.Repository
}

func NewRepository(pool *db.Pool, outboxRepo *outbox.Repository) *Repository {
	return &Repository{pool: pool, outbox: outboxRepo}
}

// write runs fn and appends evt in one transaction.
func (r *Repository) write(ctx context.Context, evt outbox.Event, fn func(pgx.Tx) error) error {
	return r.pool.InTx(ctx, func(tx pgx.Tx) error {
		if err := fn(tx); err != nil {
			return err
		}
		return r.outbox.Insert(ctx, tx, evt)
	})
}

// rowScanner is satisfied by pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}
