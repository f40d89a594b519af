package database

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/dmarinho/leadcore/internal/entity"
)

type LeadRepository struct {
	DB *sql.DB
}

func NewLeadRepository(db *sql.DB) *LeadRepository {
	return &LeadRepository{DB: db}
}

func (r *LeadRepository) Create(ctx context.Context, lead *entity.Lead) error {
	metadata, err := json.Marshal(lead.Metadata)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO leads (
			id, name, email, phone, company, message, source, status,
			campaign_id,
			utm_source, utm_medium, utm_campaign, utm_term, utm_content,
			metadata, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	_, err = r.DB.ExecContext(
		ctx,
		query,
		lead.ID,
		lead.Name,
		lead.Email,
		lead.Phone,
		nullString(lead.Company),
		nullString(lead.Message),
		lead.Source,
		lead.Status,
		lead.CampaignID,
		nullString(lead.UTMSource),
		nullString(lead.UTMMedium),
		nullString(lead.UTMCampaign),
		nullString(lead.UTMTerm),
		nullString(lead.UTMContent),
		metadata,
		lead.CreatedAt,
	)

	return err
}

func (r *LeadRepository) FindByID(ctx context.Context, id string) (*entity.Lead, error) {
	query := `
		SELECT id, name, email, phone,
		       COALESCE(company, ''), COALESCE(message, ''),
		       source, status, campaign_id,
		       COALESCE(utm_source, ''), COALESCE(utm_medium, ''),
		       COALESCE(utm_campaign, ''), COALESCE(utm_term, ''), COALESCE(utm_content, ''),
		       metadata, created_at
		FROM leads
		WHERE id = $1
	`

	lead := &entity.Lead{}
	var metadata []byte

	err := r.DB.QueryRowContext(ctx, query, id).Scan(
		&lead.ID,
		&lead.Name,
		&lead.Email,
		&lead.Phone,
		&lead.Company,
		&lead.Message,
		&lead.Source,
		&lead.Status,
		&lead.CampaignID,
		&lead.UTMSource,
		&lead.UTMMedium,
		&lead.UTMCampaign,
		&lead.UTMTerm,
		&lead.UTMContent,
		&metadata,
		&lead.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &lead.Metadata); err != nil {
			return nil, err
		}
	}

	return lead, nil
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
