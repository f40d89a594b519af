package entity

import "time"

const (
	VerificationStatusPending  = "pending"
	VerificationStatusSent     = "sent"
	VerificationStatusVerified = "verified"
	VerificationStatusFailed   = "failed"
	VerificationStatusExpired  = "expired"
)

const (
	VerificationMethodLink = "link"
	VerificationMethodCode = "code"
	VerificationMethodAuto = "auto"
)

type EmailVerification struct {
	ID     string `json:"id"`
	LeadID string `json:"lead_id"`
	Email  string `json:"email"`

	// Single-use opaque credential. Never serialized in API responses.
	Token  string `json:"-"`
	Method string `json:"method"` // link, code, auto
	Status string `json:"status"` // pending, sent, verified, failed, expired

	AttemptCount int        `json:"attempt_count"`
	ExpiresAt    time.Time  `json:"expires_at"`
	VerifiedAt   *time.Time `json:"verified_at,omitempty"`

	// Deliverability signals reported by the mail provider.
	SMTPValid    *bool   `json:"smtp_valid,omitempty"`
	BounceReason *string `json:"bounce_reason,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// Terminal reports whether the verification reached a final state.
func (v *EmailVerification) Terminal() bool {
	switch v.Status {
	case VerificationStatusVerified, VerificationStatusFailed, VerificationStatusExpired:
		return true
	}
	return false
}

// Active means a token round-trip is still outstanding. At most one active
// verification may exist per lead.
func (v *EmailVerification) Active() bool {
	return !v.Terminal()
}

// ExpiredAt reports whether the token window has closed at the given instant.
// The boundary itself counts as expired.
func (v *EmailVerification) ExpiredAt(now time.Time) bool {
	return !now.Before(v.ExpiresAt)
}
