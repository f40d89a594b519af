package worker

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"
)

// VerificationExpirationWorker sweeps verifications whose window closed
// without anyone clicking the link. The verify path already expires lazily
// on attempt; the sweeper keeps the stats honest for tokens nobody tries.
type VerificationExpirationWorker struct {
	db           *sql.DB
	logger       *zap.Logger
	tickInterval time.Duration
}

func NewVerificationExpirationWorker(db *sql.DB, logger *zap.Logger) *VerificationExpirationWorker {
	return &VerificationExpirationWorker{
		db:           db,
		logger:       logger,
		tickInterval: 5 * time.Minute,
	}
}

func (w *VerificationExpirationWorker) Start(ctx context.Context) {
	w.logger.Info("verification expiration worker started",
		zap.Duration("tick", w.tickInterval))

	ticker := time.NewTicker(w.tickInterval)
	defer ticker.Stop()

	w.expireOverdue(ctx)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("verification expiration worker stopped")
			return
		case <-ticker.C:
			w.expireOverdue(ctx)
		}
	}
}

func (w *VerificationExpirationWorker) expireOverdue(ctx context.Context) {
	query := `
		UPDATE email_verifications
		SET status = 'expired'
		WHERE status IN ('pending', 'sent')
		  AND expires_at <= NOW()
		RETURNING id, lead_id, expires_at
	`

	rows, err := w.db.QueryContext(ctx, query)
	if err != nil {
		w.logger.Error("failed to sweep expired verifications", zap.Error(err))
		return
	}
	defer rows.Close()

	expiredCount := 0
	for rows.Next() {
		var id, leadID string
		var expiresAt time.Time

		if err := rows.Scan(&id, &leadID, &expiresAt); err != nil {
			w.logger.Warn("failed to scan expired verification", zap.Error(err))
			continue
		}

		w.logger.Info("verification expired",
			zap.String("verification_id", id),
			zap.String("lead_id", leadID),
			zap.Time("expired_at", expiresAt),
		)
		expiredCount++
	}

	if expiredCount > 0 {
		w.logger.Info("expiration sweep finished", zap.Int("expired", expiredCount))
	}
}
