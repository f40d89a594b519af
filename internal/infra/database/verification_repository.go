package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/dmarinho/leadcore/internal/entity"
)

type VerificationRepository struct {
	DB *sql.DB
}

func NewVerificationRepository(db *sql.DB) *VerificationRepository {
	return &VerificationRepository{DB: db}
}

// SupersedeAndCreate expires any still-active verification for the lead and
// inserts the new one inside one transaction, so two concurrent requests can
// never both end up with an active token.
func (r *VerificationRepository) SupersedeAndCreate(ctx context.Context, v *entity.EmailVerification) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		UPDATE email_verifications
		SET status = $1
		WHERE lead_id = $2 AND status IN ($3, $4)
	`,
		entity.VerificationStatusExpired,
		v.LeadID,
		entity.VerificationStatusPending,
		entity.VerificationStatusSent,
	)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO email_verifications (
			id, lead_id, email, token, method, status,
			attempt_count, expires_at, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`,
		v.ID,
		v.LeadID,
		v.Email,
		v.Token,
		v.Method,
		v.Status,
		v.AttemptCount,
		v.ExpiresAt,
		v.CreatedAt,
	)
	if err != nil {
		return err
	}

	return tx.Commit()
}

func (r *VerificationRepository) FindLatestByLeadID(ctx context.Context, leadID string) (*entity.EmailVerification, error) {
	query := `
		SELECT id, lead_id, email, token, method, status,
		       attempt_count, expires_at, verified_at, smtp_valid, bounce_reason, created_at
		FROM email_verifications
		WHERE lead_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`

	v := &entity.EmailVerification{}

	err := r.DB.QueryRowContext(ctx, query, leadID).Scan(
		&v.ID,
		&v.LeadID,
		&v.Email,
		&v.Token,
		&v.Method,
		&v.Status,
		&v.AttemptCount,
		&v.ExpiresAt,
		&v.VerifiedAt,
		&v.SMTPValid,
		&v.BounceReason,
		&v.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return v, nil
}

func (r *VerificationRepository) CountByLeadID(ctx context.Context, leadID string) (int, error) {
	var count int
	err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM email_verifications WHERE lead_id = $1`, leadID).Scan(&count)
	return count, err
}

func (r *VerificationRepository) UpdateStatus(ctx context.Context, id, status string) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE email_verifications SET status = $1 WHERE id = $2`, status, id)
	return err
}

func (r *VerificationRepository) IncrementAttempts(ctx context.Context, id string) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE email_verifications SET attempt_count = attempt_count + 1 WHERE id = $1`, id)
	return err
}

func (r *VerificationRepository) MarkVerified(ctx context.Context, id string, at time.Time) error {
	_, err := r.DB.ExecContext(ctx, `
		UPDATE email_verifications
		SET status = $1, verified_at = $2
		WHERE id = $3
	`, entity.VerificationStatusVerified, at, id)
	return err
}

// MarkBounced forces every non-terminal verification of the lead to failed
// and records why. Attempts and expiry are irrelevant here.
func (r *VerificationRepository) MarkBounced(ctx context.Context, leadID, reason string) error {
	_, err := r.DB.ExecContext(ctx, `
		UPDATE email_verifications
		SET status = $1, smtp_valid = FALSE, bounce_reason = $2
		WHERE lead_id = $3 AND status IN ($4, $5)
	`,
		entity.VerificationStatusFailed,
		reason,
		leadID,
		entity.VerificationStatusPending,
		entity.VerificationStatusSent,
	)
	return err
}
