package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmarinho/leadcore/internal/entity"
	"github.com/dmarinho/leadcore/internal/infra/http/middleware"
	"github.com/dmarinho/leadcore/internal/usecase"
)

// VerificationManager is the slice of the verification usecase the handler needs.
type VerificationManager interface {
	Request(ctx context.Context, leadID string) (*entity.EmailVerification, error)
	Verify(ctx context.Context, leadID, token string) error
}

type VerificationHandler struct {
	UC VerificationManager
}

func NewVerificationHandler(uc VerificationManager) *VerificationHandler {
	return &VerificationHandler{UC: uc}
}

type VerificationResponse struct {
	Success   bool   `json:"success"`
	Status    string `json:"status,omitempty"`
	Message   string `json:"message,omitempty"`
	ExpiresAt string `json:"expires_at,omitempty"`
}

// HandleRequest issues (or re-issues) a verification token for a lead.
// POST /leads/{leadID}/verification
func (h *VerificationHandler) HandleRequest(w http.ResponseWriter, r *http.Request) {
	leadID := chi.URLParam(r, "leadID")

	verification, err := h.UC.Request(r.Context(), leadID)
	if err != nil {
		if domainErr, ok := err.(*usecase.DomainError); ok {
			status := http.StatusUnprocessableEntity
			switch domainErr.Code {
			case "LEAD_NOT_FOUND":
				status = http.StatusNotFound
			case "VERIFICATION_LIMIT":
				status = http.StatusTooManyRequests
			}
			writeJSON(w, status, VerificationResponse{Success: false, Message: domainErr.Message})
			return
		}
		writeJSON(w, http.StatusInternalServerError, VerificationResponse{
			Success: false,
			Message: "Could not issue a verification. Please try again.",
		})
		return
	}

	writeJSON(w, http.StatusAccepted, VerificationResponse{
		Success:   true,
		Status:    verification.Status,
		Message:   "Verification email on its way. The link is valid for 24 hours.",
		ExpiresAt: verification.ExpiresAt.Format("2006-01-02T15:04:05Z07:00"),
	})
}

// HandleVerify consumes a token submitted by the app.
// POST /leads/{leadID}/verify  body: {"token": "..."}
func (h *VerificationHandler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	leadID := chi.URLParam(r, "leadID")

	var body struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, VerificationResponse{Success: false, Message: "Invalid JSON"})
		return
	}

	h.verify(w, r, leadID, body.Token)
}

// HandleVerifyLink is the target of the emailed link.
// GET /verify?lead_id=...&token=...
func (h *VerificationHandler) HandleVerifyLink(w http.ResponseWriter, r *http.Request) {
	leadID := r.URL.Query().Get("lead_id")
	token := r.URL.Query().Get("token")

	h.verify(w, r, leadID, token)
}

func (h *VerificationHandler) verify(w http.ResponseWriter, r *http.Request, leadID, token string) {
	err := h.UC.Verify(r.Context(), leadID, token)

	switch {
	case err == nil:
		middleware.RecordVerificationAttempt("verified")
		writeJSON(w, http.StatusOK, VerificationResponse{
			Success: true,
			Status:  entity.VerificationStatusVerified,
			Message: "Email verified. You are all set.",
		})
	case err == usecase.ErrVerificationExpired:
		middleware.RecordVerificationAttempt("expired")
		writeJSON(w, http.StatusGone, VerificationResponse{
			Success: false,
			Status:  entity.VerificationStatusExpired,
			Message: "This verification link expired. Request a new one.",
		})
	case err == usecase.ErrVerificationLocked:
		middleware.RecordVerificationAttempt("locked")
		writeJSON(w, http.StatusLocked, VerificationResponse{
			Success: false,
			Message: "Too many failed attempts. Request a new verification email.",
		})
	case err == usecase.ErrInvalidToken:
		middleware.RecordVerificationAttempt("invalid")
		writeJSON(w, http.StatusBadRequest, VerificationResponse{
			Success: false,
			Message: "Invalid verification token.",
		})
	default:
		middleware.RecordVerificationAttempt("error")
		writeJSON(w, http.StatusInternalServerError, VerificationResponse{
			Success: false,
			Message: "Verification is unavailable right now. Please try again.",
		})
	}
}
