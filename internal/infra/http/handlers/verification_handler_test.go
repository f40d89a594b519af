package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"

	"github.com/dmarinho/leadcore/internal/entity"
	"github.com/dmarinho/leadcore/internal/usecase"
)

type stubVerificationManager struct {
	requestResult *entity.EmailVerification
	requestErr    error
	verifyErr     error

	gotLeadID string
	gotToken  string
}

func (s *stubVerificationManager) Request(ctx context.Context, leadID string) (*entity.EmailVerification, error) {
	s.gotLeadID = leadID
	return s.requestResult, s.requestErr
}

func (s *stubVerificationManager) Verify(ctx context.Context, leadID, token string) error {
	s.gotLeadID = leadID
	s.gotToken = token
	return s.verifyErr
}

func verificationRouter(stub *stubVerificationManager) *chi.Mux {
	h := NewVerificationHandler(stub)
	r := chi.NewRouter()
	r.Post("/leads/{leadID}/verification", h.HandleRequest)
	r.Post("/leads/{leadID}/verify", h.HandleVerify)
	r.Get("/verify", h.HandleVerifyLink)
	return r
}

func TestRequestVerificationAccepted(t *testing.T) {
	stub := &stubVerificationManager{requestResult: &entity.EmailVerification{
		ID:        "ver-1",
		LeadID:    "lead-1",
		Status:    entity.VerificationStatusSent,
		ExpiresAt: time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC),
	}}
	r := verificationRouter(stub)

	req := httptest.NewRequest(http.MethodPost, "/leads/lead-1/verification", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "lead-1", stub.gotLeadID)

	var resp VerificationResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, entity.VerificationStatusSent, resp.Status)
	assert.NotEmpty(t, resp.ExpiresAt)
}

func TestRequestVerificationUnknownLead(t *testing.T) {
	stub := &stubVerificationManager{requestErr: &usecase.DomainError{
		Code:    "LEAD_NOT_FOUND",
		Message: "lead not found",
	}}
	r := verificationRouter(stub)

	req := httptest.NewRequest(http.MethodPost, "/leads/nobody/verification", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRequestVerificationLimitReached(t *testing.T) {
	stub := &stubVerificationManager{requestErr: &usecase.DomainError{
		Code:    "VERIFICATION_LIMIT",
		Message: "verification re-issuance limit reached for this lead",
	}}
	r := verificationRouter(stub)

	req := httptest.NewRequest(http.MethodPost, "/leads/lead-1/verification", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestVerifyOutcomeStatusCodes(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{"verified", nil, http.StatusOK},
		{"invalid token", usecase.ErrInvalidToken, http.StatusBadRequest},
		{"expired token", usecase.ErrVerificationExpired, http.StatusGone},
		{"locked", usecase.ErrVerificationLocked, http.StatusLocked},
		{"store failure", &usecase.TechnicalError{Code: "DATABASE_ERROR", Message: "down"}, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubVerificationManager{verifyErr: tt.err}
			r := verificationRouter(stub)

			body := strings.NewReader(`{"token":"tok-123"}`)
			req := httptest.NewRequest(http.MethodPost, "/leads/lead-1/verify", body)
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, "lead-1", stub.gotLeadID)
			assert.Equal(t, "tok-123", stub.gotToken)
		})
	}
}

func TestVerifyLinkFromEmail(t *testing.T) {
	stub := &stubVerificationManager{}
	r := verificationRouter(stub)

	req := httptest.NewRequest(http.MethodGet, "/verify?lead_id=lead-1&token=tok-abc", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "lead-1", stub.gotLeadID)
	assert.Equal(t, "tok-abc", stub.gotToken)

	var resp VerificationResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, entity.VerificationStatusVerified, resp.Status)
}

func TestVerifyInvalidJSONBody(t *testing.T) {
	stub := &stubVerificationManager{}
	r := verificationRouter(stub)

	req := httptest.NewRequest(http.MethodPost, "/leads/lead-1/verify", strings.NewReader("{nope"))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, stub.gotToken)
}
