package entity

import "time"

// Campaign is owned by the campaign-management service. This core only reads
// campaigns for attribution and bumps the aggregate lead counter.
type Campaign struct {
	ID        string    `json:"id"`
	Slug      string    `json:"slug"`
	Name      string    `json:"name"`
	LeadCount int       `json:"lead_count"`
	CreatedAt time.Time `json:"created_at"`
}
