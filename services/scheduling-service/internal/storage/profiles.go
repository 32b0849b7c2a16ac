package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/fieldcrew/opsuite/services/scheduling-service/internal/model"
	"github.com/fieldcrew/opsuite/services/scheduling-service/internal/outbox"
)

// GetBusinessProfile returns found=false when the business has never saved
// its hours. Unreadable stored hours are dropped so the resolver's defaults
// apply.
func (r *Repository) GetBusinessProfile(ctx context.Context, businessID string) (model.BusinessProfile, bool, error) {
	var (
		p   model.BusinessProfile
		raw []byte
	)
	err := r.pool.QueryRow(ctx, `
		SELECT business_id::text, timezone, hours, updated_at
		FROM business_profiles
		WHERE business_id = $1
	`, businessID).Scan(&p.BusinessID, &p.Timezone, &raw, &p.UpdatedAt)
	if err != nil {
		if IsNotFound(err) || hasCode(err, codeInvalidText) {
			return model.BusinessProfile{}, false, nil
		}
		return model.BusinessProfile{}, false, translate("get business profile", err)
	}
	if len(raw) > 0 {
		var hrs model.WeeklyHours
		if json.Unmarshal(raw, &hrs) == nil {
			p.Hours = hrs
		}
	}
	return p, true, nil
}

func (r *Repository) UpsertBusinessProfile(ctx context.Context, p model.BusinessProfile, evt outbox.Event) (model.BusinessProfile, error) {
	raw, err := json.Marshal(p.Hours)
	if err != nil {
		return model.BusinessProfile{}, err
	}
	if p.Hours == nil {
		raw = []byte("{}")
	}
	var updated time.Time
	err = r.write(ctx, evt, func(tx pgx.Tx) error {
		return tx.QueryRow(ctx, `
			INSERT INTO business_profiles (business_id, timezone, hours)
			VALUES ($1, $2, $3::jsonb)
			ON CONFLICT (business_id) DO UPDATE
			SET timezone = EXCLUDED.timezone,
				hours = EXCLUDED.hours,
				updated_at = now()
			RETURNING updated_at
		`, p.BusinessID, p.Timezone, raw).Scan(&updated)
	})
	if err != nil {
		return model.BusinessProfile{}, translate("upsert business profile", err)
	}
	p.UpdatedAt = updated
	return p, nil
}
