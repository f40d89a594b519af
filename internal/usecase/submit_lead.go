package usecase

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dmarinho/leadcore/internal/entity"
	"github.com/dmarinho/leadcore/internal/infra/queue"
)

type SubmitLeadUseCase struct {
	Leads      LeadRepositoryInterface
	Campaigns  CampaignRepositoryInterface
	Dispatcher *NotificationDispatcher
	Queue      QueueProducerInterface
	Logger     *zap.Logger

	background sync.WaitGroup
}

func NewSubmitLeadUseCase(
	leads LeadRepositoryInterface,
	campaigns CampaignRepositoryInterface,
	dispatcher *NotificationDispatcher,
	producer QueueProducerInterface,
	logger *zap.Logger,
) *SubmitLeadUseCase {
	return &SubmitLeadUseCase{
		Leads:      leads,
		Campaigns:  campaigns,
		Dispatcher: dispatcher,
		Queue:      producer,
		Logger:     logger,
	}
}

// Execute validates and durably stores a lead, then fires the best-effort
// side effects (counter bump, emails, queue event) without waiting for them.
// Only the durable write can fail the request.
func (uc *SubmitLeadUseCase) Execute(ctx context.Context, input SubmitLeadInput) (*SubmitLeadOutput, error) {
	if errs := ValidateSubmitLeadInput(input); len(errs) > 0 {
		return nil, &DomainError{
			Code:    "VALIDATION_ERROR",
			Message: "validation failed",
			Fields:  errs,
		}
	}

	campaign := uc.resolveCampaign(ctx, input.CampaignID, input.CampaignSlug)

	lead := uc.buildLead(input, campaign)

	if err := uc.Leads.Create(ctx, lead); err != nil {
		return nil, &TechnicalError{
			Code:    "DATABASE_ERROR",
			Message: "failed to persist lead: " + err.Error(),
		}
	}

	// The lead is captured; downstream effects must survive a caller
	// disconnect, so they run detached from the request context.
	uc.background.Add(1)
	go func() {
		defer uc.background.Done()
		uc.afterPersist(lead, campaign)
	}()

	output := &SubmitLeadOutput{
		ID:     lead.ID,
		Status: lead.Status,
		Msg:    "Lead recorded. A confirmation should arrive shortly.",
	}
	if campaign != nil {
		output.CampaignID = campaign.ID
	}
	return output, nil
}

// Wait blocks until the side effects of every accepted submission have
// finished. Called on graceful shutdown.
func (uc *SubmitLeadUseCase) Wait() {
	uc.background.Wait()
}

// resolveCampaign attributes the lead. Id wins over slug when both are given;
// neither matching is a valid, unattributed outcome.
func (uc *SubmitLeadUseCase) resolveCampaign(ctx context.Context, id, slug string) *entity.Campaign {
	if id != "" {
		campaign, err := uc.Campaigns.FindByID(ctx, id)
		if err != nil {
			uc.Logger.Warn("campaign lookup by id failed", zap.String("campaign_id", id), zap.Error(err))
		} else if campaign != nil {
			return campaign
		}
	}

	if slug != "" {
		campaign, err := uc.Campaigns.FindBySlug(ctx, slug)
		if err != nil {
			uc.Logger.Warn("campaign lookup by slug failed", zap.String("campaign_slug", slug), zap.Error(err))
		} else if campaign != nil {
			return campaign
		}
	}

	return nil
}

func (uc *SubmitLeadUseCase) buildLead(input SubmitLeadInput, campaign *entity.Campaign) *entity.Lead {
	now := time.Now().UTC()

	source := strings.TrimSpace(input.Source)
	if source == "" {
		source = entity.DefaultLeadSource
	}

	metadata := map[string]string{
		"submitted_at": now.Format(time.RFC3339),
	}
	if input.IP != "" {
		metadata["ip"] = input.IP
	}
	if input.UserAgent != "" {
		metadata["user_agent"] = input.UserAgent
	}
	if input.CampaignSlug != "" {
		metadata["campaign_slug"] = input.CampaignSlug
	}

	lead := &entity.Lead{
		ID:          uuid.New().String(),
		Name:        strings.TrimSpace(input.Name),
		Email:       strings.ToLower(strings.TrimSpace(input.Email)),
		Phone:       strings.TrimSpace(input.Phone),
		Company:     strings.TrimSpace(input.Company),
		Message:     strings.TrimSpace(input.Message),
		Source:      source,
		Status:      entity.LeadStatusNew,
		UTMSource:   input.UTMSource,
		UTMMedium:   input.UTMMedium,
		UTMCampaign: input.UTMCampaign,
		UTMTerm:     input.UTMTerm,
		UTMContent:  input.UTMContent,
		Metadata:    metadata,
		CreatedAt:   now,
	}

	if campaign != nil {
		lead.CampaignID = &campaign.ID
	}

	return lead
}

// afterPersist runs the three independent side effects concurrently. Each
// failure is logged and swallowed; the lead already has its durable record.
func (uc *SubmitLeadUseCase) afterPersist(lead *entity.Lead, campaign *entity.Campaign) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var wg sync.WaitGroup

	if campaign != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := uc.Campaigns.IncrementLeadCount(ctx, campaign.ID); err != nil {
				uc.Logger.Warn("campaign counter increment failed",
					zap.String("lead_id", lead.ID),
					zap.String("campaign_id", campaign.ID),
					zap.Error(err),
				)
			}
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		result := uc.Dispatcher.Notify(lead, campaign)
		uc.Logger.Info("lead notifications dispatched",
			zap.String("lead_id", lead.ID),
			zap.Bool("confirmation_sent", result.ConfirmationSent),
			zap.Bool("internal_alert_sent", result.InternalAlertSent),
		)
	}()

	if uc.Queue != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			payload := queue.LeadCapturedPayload{
				LeadID:       lead.ID,
				Name:         lead.Name,
				Email:        lead.Email,
				Phone:        lead.Phone,
				Source:       lead.Source,
				CampaignSlug: lead.Metadata["campaign_slug"],
				CapturedAt:   lead.CreatedAt.Format(time.RFC3339),
			}
			if campaign != nil {
				payload.CampaignID = campaign.ID
			}
			if err := uc.Queue.PublishLeadCaptured(ctx, payload); err != nil {
				uc.Logger.Warn("lead captured event publish failed",
					zap.String("lead_id", lead.ID),
					zap.Error(err),
				)
			}
		}()
	}

	wg.Wait()
}
