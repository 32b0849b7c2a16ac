package storage

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/fieldcrew/opsuite/services/scheduling-service/internal/model"
	"github.com/fieldcrew/opsuite/services/scheduling-service/internal/outbox"
)

const timeBlockColumns = `id::text, business_id::text, title, kind, description, start_time, end_time,
	is_recurring, COALESCE(recurrence_pattern, ''), recurrence_end, occurrence_count, created_at`

func scanTimeBlock(row rowScanner) (model.TimeBlock, error) {
	var (
		b       model.TimeBlock
		kind    string
		pattern string
	)
	err := row.Scan(&b.ID, &b.BusinessID, &b.Title, &kind, &b.Description, &b.Start, &b.End,
		&b.Recurring, &pattern, &b.RecurrenceEnd, &b.OccurrenceCount, &b.CreatedAt)
	b.Kind = model.BlockKind(kind)
	b.Pattern = model.RecurrencePattern(pattern)
	return b, err
}

// ListTimeBlocks returns every template of the business. Recurring templates
// may start long before any window of interest, so there is no date filter.
func (r *Repository) ListTimeBlocks(ctx context.Context, businessID string) ([]model.TimeBlock, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+timeBlockColumns+`
		FROM time_blocks
		WHERE business_id = $1
		ORDER BY start_time, id
	`, businessID)
	if err != nil {
		return nil, translate("list time blocks", err)
	}
	defer rows.Close()

	var out []model.TimeBlock
	for rows.Next() {
		b, err := scanTimeBlock(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, translate("list time blocks", err)
	}
	return out, nil
}

func (r *Repository) GetTimeBlock(ctx context.Context, businessID, id string) (model.TimeBlock, error) {
	b, err := scanTimeBlock(r.pool.QueryRow(ctx, `
		SELECT `+timeBlockColumns+`
		FROM time_blocks
		WHERE business_id = $1 AND id = $2
	`, businessID, id))
	if err != nil {
		return model.TimeBlock{}, translate("get time block", err)
	}
	return b, nil
}

func (r *Repository) InsertTimeBlock(ctx context.Context, b model.TimeBlock, evt outbox.Event) (model.TimeBlock, error) {
	var pattern *string
	if b.Recurring {
		p := string(b.Pattern)
		pattern = &p
	}
	err := r.write(ctx, evt, func(tx pgx.Tx) error {
		return tx.QueryRow(ctx, `
			INSERT INTO time_blocks
				(id, business_id, title, kind, description, start_time, end_time,
				 is_recurring, recurrence_pattern, recurrence_end, occurrence_count)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			RETURNING created_at
		`, b.ID, b.BusinessID, b.Title, string(b.Kind), b.Description, b.Start, b.End,
			b.Recurring, pattern, b.RecurrenceEnd, b.OccurrenceCount).Scan(&b.CreatedAt)
	})
	if err != nil {
		return model.TimeBlock{}, translate("insert time block", err)
	}
	return b, nil
}

// DeleteTimeBlock removes a template scoped to its business. A block of
// another business is reported as not found.
func (r *Repository) DeleteTimeBlock(ctx context.Context, businessID, id string, evt outbox.Event) error {
	err := r.write(ctx, evt, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			DELETE FROM time_blocks
			WHERE business_id = $1 AND id = $2
		`, businessID, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return pgx.ErrNoRows
		}
		return nil
	})
	return translate("delete time block", err)
}
