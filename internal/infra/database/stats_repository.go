package database

import (
	"context"
	"database/sql"

	"github.com/dmarinho/leadcore/internal/usecase"
)

type StatsRepository struct {
	DB *sql.DB
}

func NewStatsRepository(db *sql.DB) *StatsRepository {
	return &StatsRepository{DB: db}
}

// CountByCampaign buckets each lead of the campaign by its most recent
// verification. Leads that never requested one count into the total only.
func (r *StatsRepository) CountByCampaign(ctx context.Context, campaignID string) (*usecase.VerificationStats, error) {
	query := `
		SELECT
			COUNT(l.id),
			COUNT(*) FILTER (WHERE v.status = 'verified'),
			COUNT(*) FILTER (WHERE v.status IN ('pending', 'sent')),
			COUNT(*) FILTER (WHERE v.status IN ('failed', 'expired'))
		FROM leads l
		LEFT JOIN LATERAL (
			SELECT status
			FROM email_verifications
			WHERE lead_id = l.id
			ORDER BY created_at DESC
			LIMIT 1
		) v ON TRUE
		WHERE l.campaign_id = $1
	`

	stats := &usecase.VerificationStats{}
	err := r.DB.QueryRowContext(ctx, query, campaignID).Scan(
		&stats.Total,
		&stats.Verified,
		&stats.Pending,
		&stats.Failed,
	)
	if err != nil {
		return nil, err
	}

	return stats, nil
}
