package usecase

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dmarinho/leadcore/internal/entity"
)

// NotifyResult captures each send outcome independently. A failed
// confirmation never blocks the internal alert, and neither failure reaches
// the caller that already got its lead persisted.
type NotifyResult struct {
	ConfirmationSent  bool `json:"confirmation_sent"`
	InternalAlertSent bool `json:"internal_alert_sent"`
}

type NotificationDispatcher struct {
	Emails EmailService
	Logger *zap.Logger

	// Per-send deadline. The SMTP dialer has no context support, so the
	// dispatcher gives up on its side and lets the goroutine drain.
	Timeout time.Duration
}

func NewNotificationDispatcher(emails EmailService, logger *zap.Logger, timeout time.Duration) *NotificationDispatcher {
	return &NotificationDispatcher{
		Emails:  emails,
		Logger:  logger,
		Timeout: timeout,
	}
}

// Notify sends the lead confirmation and the operator alert in parallel and
// never returns an error past its own boundary.
func (d *NotificationDispatcher) Notify(lead *entity.Lead, campaign *entity.Campaign) NotifyResult {
	campaignName := ""
	if campaign != nil {
		campaignName = campaign.Name
	}

	var result NotifyResult
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		result.ConfirmationSent = d.attempt("confirmation", lead, campaignName, func() error {
			return d.Emails.SendConfirmation(lead.Email, lead.FirstName(), campaignName)
		})
	}()

	go func() {
		defer wg.Done()
		result.InternalAlertSent = d.attempt("internal_alert", lead, campaignName, func() error {
			return d.Emails.SendInternalAlert(lead, campaignName)
		})
	}()

	wg.Wait()
	return result
}

func (d *NotificationDispatcher) attempt(kind string, lead *entity.Lead, campaignName string, send func() error) bool {
	timeout := d.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	errCh := make(chan error, 1)
	go func() { errCh <- send() }()

	var err error
	select {
	case err = <-errCh:
	case <-time.After(timeout):
		err = fmt.Errorf("send timed out after %s", timeout)
	}

	if err != nil {
		// Logged with enough context for manual follow-up.
		d.Logger.Warn("notification send failed",
			zap.String("kind", kind),
			zap.String("lead_id", lead.ID),
			zap.String("email", lead.Email),
			zap.String("campaign", campaignName),
			zap.Error(err),
		)
		return false
	}
	return true
}
