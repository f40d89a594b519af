package entity

import (
	"time"
)

const (
	LeadStatusNew       = "new"
	LeadStatusContacted = "contacted"
	LeadStatusQualified = "qualified"
	LeadStatusDiscarded = "discarded"
)

// DefaultLeadSource is assumed when the submission does not say where it came from.
const DefaultLeadSource = "landing_page"

type Lead struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Company string `json:"company,omitempty"`
	Message string `json:"message,omitempty"`
	Source  string `json:"source"`
	Status  string `json:"status"` // new, contacted, qualified, discarded

	CampaignID *string `json:"campaign_id,omitempty"`

	UTMSource   string `json:"utm_source,omitempty"`
	UTMMedium   string `json:"utm_medium,omitempty"`
	UTMCampaign string `json:"utm_campaign,omitempty"`
	UTMTerm     string `json:"utm_term,omitempty"`
	UTMContent  string `json:"utm_content,omitempty"`

	// Submission context: ip, user_agent, submitted_at, raw campaign_slug.
	Metadata map[string]string `json:"metadata,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// FirstName is what the outbound emails greet the lead with.
func (l *Lead) FirstName() string {
	name := l.Name
	for i := 0; i < len(name); i++ {
		if name[i] == ' ' {
			return name[:i]
		}
	}
	return name
}
