package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"fleet-waybill/internal/season"
)

// SettingsRepository reads the org season policy from org_settings.
type SettingsRepository struct {
	db *sql.DB
}

// NewSettingsRepository constructs a repository.
func NewSettingsRepository(db *sql.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// GetSeasonPolicy loads the season policy for an org. A missing or malformed
// row yields a nil policy, which classifies every date as not winter.
func (r *SettingsRepository) GetSeasonPolicy(ctx context.Context, orgID string) (*season.Policy, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("season settings repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `
SELECT season_mode, summer_month, summer_day, winter_month, winter_day,
	winter_start, winter_end
FROM org_settings
WHERE org_id = $1
LIMIT 1`, orgID)

	var mode sql.NullString
	var summerMonth, summerDay, winterMonth, winterDay sql.NullInt64
	var winterStart, winterEnd sql.NullTime
	err := row.Scan(&mode, &summerMonth, &summerDay, &winterMonth, &winterDay, &winterStart, &winterEnd)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if !mode.Valid {
		return nil, nil
	}

	switch season.PolicyKind(mode.String) {
	case season.PolicyRecurring:
		return &season.Policy{
			Kind:        season.PolicyRecurring,
			SummerMonth: time.Month(summerMonth.Int64),
			SummerDay:   int(summerDay.Int64),
			WinterMonth: time.Month(winterMonth.Int64),
			WinterDay:   int(winterDay.Int64),
		}, nil
	case season.PolicyManual:
		policy := &season.Policy{Kind: season.PolicyManual}
		if winterStart.Valid {
			policy.WinterStart = winterStart.Time.UTC()
		}
		if winterEnd.Valid {
			policy.WinterEnd = winterEnd.Time.UTC()
		}
		return policy, nil
	default:
		return nil, nil
	}
}
