package database

import (
	"context"
	"database/sql"

	"github.com/dmarinho/leadcore/internal/entity"
)

type CampaignRepository struct {
	DB *sql.DB
}

func NewCampaignRepository(db *sql.DB) *CampaignRepository {
	return &CampaignRepository{DB: db}
}

const campaignColumns = `id, slug, name, lead_count, created_at`

func (r *CampaignRepository) FindByID(ctx context.Context, id string) (*entity.Campaign, error) {
	return r.findOne(ctx, `SELECT `+campaignColumns+` FROM campaigns WHERE id = $1`, id)
}

func (r *CampaignRepository) FindBySlug(ctx context.Context, slug string) (*entity.Campaign, error) {
	return r.findOne(ctx, `SELECT `+campaignColumns+` FROM campaigns WHERE slug = $1`, slug)
}

func (r *CampaignRepository) findOne(ctx context.Context, query, arg string) (*entity.Campaign, error) {
	campaign := &entity.Campaign{}

	err := r.DB.QueryRowContext(ctx, query, arg).Scan(
		&campaign.ID,
		&campaign.Slug,
		&campaign.Name,
		&campaign.LeadCount,
		&campaign.CreatedAt,
	)
	if err == sql.ErrNoRows {
		// Attribution miss, not an error.
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return campaign, nil
}

// IncrementLeadCount bumps the aggregate in a single statement. Never
// read-then-write here: concurrent submissions to the same campaign would
// lose updates.
func (r *CampaignRepository) IncrementLeadCount(ctx context.Context, id string) error {
	result, err := r.DB.ExecContext(ctx,
		`UPDATE campaigns SET lead_count = lead_count + 1 WHERE id = $1`, id)
	if err != nil {
		return err
	}

	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
