package usecase

import (
	"context"
	"time"

	"github.com/dmarinho/leadcore/internal/entity"
	"github.com/dmarinho/leadcore/internal/infra/queue"
)

type SubmitLeadInput struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Company string `json:"company"`
	Message string `json:"message"`
	Source  string `json:"source"`

	CampaignID   string `json:"campaign_id"`
	CampaignSlug string `json:"campaign_slug"`

	UTMSource   string `json:"utm_source"`
	UTMMedium   string `json:"utm_medium"`
	UTMCampaign string `json:"utm_campaign"`
	UTMTerm     string `json:"utm_term"`
	UTMContent  string `json:"utm_content"`

	// Filled by the transport layer, not by the submitter.
	IP        string `json:"-"`
	UserAgent string `json:"-"`
}

type SubmitLeadOutput struct {
	ID         string `json:"id"`
	Status     string `json:"status"`
	CampaignID string `json:"campaign_id,omitempty"`
	Msg        string `json:"msg"`
}

type LeadRepositoryInterface interface {
	Create(ctx context.Context, lead *entity.Lead) error
	FindByID(ctx context.Context, id string) (*entity.Lead, error)
}

// CampaignRepositoryInterface lookups return (nil, nil) when no campaign
// matches; an attribution miss is not an error.
type CampaignRepositoryInterface interface {
	FindByID(ctx context.Context, id string) (*entity.Campaign, error)
	FindBySlug(ctx context.Context, slug string) (*entity.Campaign, error)
	IncrementLeadCount(ctx context.Context, id string) error
}

type VerificationRepositoryInterface interface {
	// SupersedeAndCreate invalidates any active verification for the lead and
	// inserts the new one as a single atomic unit.
	SupersedeAndCreate(ctx context.Context, v *entity.EmailVerification) error
	FindLatestByLeadID(ctx context.Context, leadID string) (*entity.EmailVerification, error)
	CountByLeadID(ctx context.Context, leadID string) (int, error)
	UpdateStatus(ctx context.Context, id, status string) error
	IncrementAttempts(ctx context.Context, id string) error
	MarkVerified(ctx context.Context, id string, at time.Time) error
	MarkBounced(ctx context.Context, leadID, reason string) error
}

type StatsRepositoryInterface interface {
	CountByCampaign(ctx context.Context, campaignID string) (*VerificationStats, error)
}

type EmailService interface {
	SendConfirmation(to, firstName, campaignName string) error
	SendInternalAlert(lead *entity.Lead, campaignName string) error
	SendVerification(to, firstName, link string) error
}

type QueueProducerInterface interface {
	PublishLeadCaptured(ctx context.Context, payload queue.LeadCapturedPayload) error
}
