package usecase

import (
	"context"
	"crypto/subtle"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dmarinho/leadcore/internal/entity"
)

// VerificationPolicy holds the tunables of the token state machine.
type VerificationPolicy struct {
	// TTL is how long an issued token stays valid.
	TTL time.Duration

	// MaxAttempts is the lockout threshold. At or past it, every attempt is
	// rejected no matter how correct the token is.
	MaxAttempts int

	// MaxIssues caps how many tokens may ever be issued per lead.
	// 0 disables the cap.
	MaxIssues int

	// BaseURL is the public address embedded in verification links.
	BaseURL string

	// SendTimeout bounds the SMTP handoff of the verification email.
	SendTimeout time.Duration
}

func DefaultVerificationPolicy() VerificationPolicy {
	return VerificationPolicy{
		TTL:         24 * time.Hour,
		MaxAttempts: 3,
		MaxIssues:   5,
		SendTimeout: 10 * time.Second,
	}
}

type VerifyEmailUseCase struct {
	Leads         LeadRepositoryInterface
	Verifications VerificationRepositoryInterface
	Emails        EmailService
	Logger        *zap.Logger
	Policy        VerificationPolicy

	// Injectable clock so the expiry boundary is testable.
	Now func() time.Time
}

func NewVerifyEmailUseCase(
	leads LeadRepositoryInterface,
	verifications VerificationRepositoryInterface,
	emails EmailService,
	logger *zap.Logger,
	policy VerificationPolicy,
) *VerifyEmailUseCase {
	return &VerifyEmailUseCase{
		Leads:         leads,
		Verifications: verifications,
		Emails:        emails,
		Logger:        logger,
		Policy:        policy,
		Now:           time.Now,
	}
}

// Request issues a fresh verification token for the lead, invalidating any
// still-active one, and hands the verification email to the mail transport.
// The pending -> sent transition happens on handoff, not on delivery.
func (uc *VerifyEmailUseCase) Request(ctx context.Context, leadID string) (*entity.EmailVerification, error) {
	lead, err := uc.Leads.FindByID(ctx, leadID)
	if err != nil {
		return nil, &TechnicalError{Code: "DATABASE_ERROR", Message: "failed to load lead: " + err.Error()}
	}
	if lead == nil {
		return nil, &DomainError{Code: "LEAD_NOT_FOUND", Message: "lead not found"}
	}

	if uc.Policy.MaxIssues > 0 {
		issued, err := uc.Verifications.CountByLeadID(ctx, leadID)
		if err != nil {
			return nil, &TechnicalError{Code: "DATABASE_ERROR", Message: "failed to count verifications: " + err.Error()}
		}
		if issued >= uc.Policy.MaxIssues {
			return nil, &DomainError{
				Code:    "VERIFICATION_LIMIT",
				Message: "verification re-issuance limit reached for this lead",
			}
		}
	}

	token, err := newVerificationToken()
	if err != nil {
		return nil, &TechnicalError{Code: "TOKEN_GENERATION", Message: "failed to generate token: " + err.Error()}
	}

	now := uc.now()
	verification := &entity.EmailVerification{
		ID:        uuid.New().String(),
		LeadID:    lead.ID,
		Email:     lead.Email,
		Token:     token,
		Method:    entity.VerificationMethodLink,
		Status:    entity.VerificationStatusPending,
		ExpiresAt: now.Add(uc.Policy.TTL),
		CreatedAt: now,
	}

	if err := uc.Verifications.SupersedeAndCreate(ctx, verification); err != nil {
		return nil, &TechnicalError{Code: "DATABASE_ERROR", Message: "failed to store verification: " + err.Error()}
	}

	if uc.sendVerificationEmail(lead, verification) {
		if err := uc.Verifications.UpdateStatus(ctx, verification.ID, entity.VerificationStatusSent); err != nil {
			uc.Logger.Warn("failed to mark verification as sent",
				zap.String("verification_id", verification.ID),
				zap.Error(err),
			)
		} else {
			verification.Status = entity.VerificationStatusSent
		}
	}

	return verification, nil
}

// Verify runs one attempt of the token state machine for the lead.
// Outcomes: nil (verified, idempotent on repeats), ErrVerificationLocked,
// ErrVerificationExpired, or the generic ErrInvalidToken.
func (uc *VerifyEmailUseCase) Verify(ctx context.Context, leadID, token string) error {
	verification, err := uc.Verifications.FindLatestByLeadID(ctx, leadID)
	if err != nil {
		return &TechnicalError{Code: "DATABASE_ERROR", Message: "failed to load verification: " + err.Error()}
	}
	if verification == nil {
		return ErrInvalidToken
	}

	switch verification.Status {
	case entity.VerificationStatusVerified:
		// Re-verifying the same token is a no-op success.
		if tokenMatches(verification.Token, token) {
			return nil
		}
		return ErrInvalidToken
	case entity.VerificationStatusFailed:
		return ErrInvalidToken
	case entity.VerificationStatusExpired:
		return ErrVerificationExpired
	}

	// Lockout comes first: past the cap, correctness no longer matters.
	if verification.AttemptCount >= uc.Policy.MaxAttempts {
		return ErrVerificationLocked
	}

	now := uc.now()
	if verification.ExpiredAt(now) {
		if err := uc.Verifications.UpdateStatus(ctx, verification.ID, entity.VerificationStatusExpired); err != nil {
			uc.Logger.Warn("failed to expire verification",
				zap.String("verification_id", verification.ID),
				zap.Error(err),
			)
		}
		return ErrVerificationExpired
	}

	if !tokenMatches(verification.Token, token) {
		if err := uc.Verifications.IncrementAttempts(ctx, verification.ID); err != nil {
			uc.Logger.Warn("failed to record verification attempt",
				zap.String("verification_id", verification.ID),
				zap.Error(err),
			)
		}
		return ErrInvalidToken
	}

	if err := uc.Verifications.MarkVerified(ctx, verification.ID, now); err != nil {
		return &TechnicalError{Code: "DATABASE_ERROR", Message: "failed to mark verified: " + err.Error()}
	}
	return nil
}

// MarkBounced is driven by the mail provider's delivery signal. Any
// non-terminal verification for the lead goes straight to failed, independent
// of attempts or expiry.
func (uc *VerifyEmailUseCase) MarkBounced(ctx context.Context, leadID, reason string) error {
	if err := uc.Verifications.MarkBounced(ctx, leadID, reason); err != nil {
		return &TechnicalError{Code: "DATABASE_ERROR", Message: "failed to record bounce: " + err.Error()}
	}
	uc.Logger.Info("email bounce recorded",
		zap.String("lead_id", leadID),
		zap.String("reason", reason),
	)
	return nil
}

func (uc *VerifyEmailUseCase) sendVerificationEmail(lead *entity.Lead, v *entity.EmailVerification) bool {
	link := fmt.Sprintf("%s/verify?lead_id=%s&token=%s",
		strings.TrimRight(uc.Policy.BaseURL, "/"),
		url.QueryEscape(lead.ID),
		url.QueryEscape(v.Token),
	)

	timeout := uc.Policy.SendTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	errCh := make(chan error, 1)
	go func() { errCh <- uc.Emails.SendVerification(lead.Email, lead.FirstName(), link) }()

	var err error
	select {
	case err = <-errCh:
	case <-time.After(timeout):
		err = fmt.Errorf("send timed out after %s", timeout)
	}

	if err != nil {
		uc.Logger.Warn("verification email handoff failed",
			zap.String("lead_id", lead.ID),
			zap.String("verification_id", v.ID),
			zap.Error(err),
		)
		return false
	}
	return true
}

func (uc *VerifyEmailUseCase) now() time.Time {
	if uc.Now != nil {
		return uc.Now()
	}
	return time.Now()
}

func tokenMatches(expected, got string) bool {
	return subtle.ConstantTimeCompare([]byte(expected), []byte(got)) == 1
}
