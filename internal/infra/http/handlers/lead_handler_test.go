package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dmarinho/leadcore/internal/entity"
	"github.com/dmarinho/leadcore/internal/usecase"
)

type stubSubmitter struct {
	output *usecase.SubmitLeadOutput
	err    error
	got    usecase.SubmitLeadInput
	calls  int
}

func (s *stubSubmitter) Execute(ctx context.Context, input usecase.SubmitLeadInput) (*usecase.SubmitLeadOutput, error) {
	s.got = input
	s.calls++
	return s.output, s.err
}

func submitRequest(body, ip string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/leads", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Forwarded-For", ip)
	req.Header.Set("User-Agent", "test-agent")
	return req
}

func TestLeadHandlerSuccess(t *testing.T) {
	stub := &stubSubmitter{output: &usecase.SubmitLeadOutput{
		ID:         "lead-1",
		Status:     entity.LeadStatusNew,
		CampaignID: "camp-1",
		Msg:        "Lead recorded. A confirmation should arrive shortly.",
	}}
	h := NewLeadHandler(stub)

	body := `{"name":"Jo Santos","email":"jo@x.com","phone":"11999999999","campaign_slug":"promo1"}`
	rec := httptest.NewRecorder()
	h.Handle(rec, submitRequest(body, "203.0.113.9"))

	assert.Equal(t, http.StatusCreated, rec.Code)

	var resp SubmitLeadResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "lead-1", resp.ID)
	assert.Equal(t, entity.LeadStatusNew, resp.Status)

	// Transport context makes it into the input.
	assert.Equal(t, "203.0.113.9", stub.got.IP)
	assert.Equal(t, "test-agent", stub.got.UserAgent)
	assert.Equal(t, "promo1", stub.got.CampaignSlug)
}

func TestLeadHandlerValidationErrors(t *testing.T) {
	stub := &stubSubmitter{err: &usecase.DomainError{
		Code:    "VALIDATION_ERROR",
		Message: "validation failed",
		Fields: []usecase.ValidationError{
			{Field: "email", Message: "is invalid"},
			{Field: "phone", Message: "must have between 10 and 15 digits"},
		},
	}}
	h := NewLeadHandler(stub)

	body := `{"name":"Jo","email":"not-an-email","phone":"123"}`
	rec := httptest.NewRecorder()
	h.Handle(rec, submitRequest(body, "203.0.113.9"))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var resp SubmitLeadResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Len(t, resp.Errors, 2)
	assert.Equal(t, "email", resp.Errors[0].Field)
}

func TestLeadHandlerPersistenceFailure(t *testing.T) {
	stub := &stubSubmitter{err: &usecase.TechnicalError{
		Code:    "DATABASE_ERROR",
		Message: "failed to persist lead",
	}}
	h := NewLeadHandler(stub)

	body := `{"name":"Jo Santos","email":"jo@x.com","phone":"11999999999"}`
	rec := httptest.NewRecorder()
	h.Handle(rec, submitRequest(body, "203.0.113.9"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var resp SubmitLeadResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	// Internal details never leak to the submitter.
	assert.NotContains(t, resp.Message, "persist")
}

func TestLeadHandlerInvalidJSON(t *testing.T) {
	stub := &stubSubmitter{}
	h := NewLeadHandler(stub)

	rec := httptest.NewRecorder()
	h.Handle(rec, submitRequest("{not json", "203.0.113.9"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 0, stub.calls)
}

func TestLeadHandlerRateLimit(t *testing.T) {
	stub := &stubSubmitter{output: &usecase.SubmitLeadOutput{ID: "lead-1", Status: entity.LeadStatusNew}}
	h := NewLeadHandler(stub)

	body := `{"name":"Jo Santos","email":"jo@x.com","phone":"11999999999"}`

	var last int
	for i := 0; i < 11; i++ {
		rec := httptest.NewRecorder()
		h.Handle(rec, submitRequest(body, "198.51.100.7"))
		last = rec.Code
	}

	assert.Equal(t, http.StatusTooManyRequests, last)
	assert.Equal(t, 10, stub.calls)

	// A different IP is unaffected.
	rec := httptest.NewRecorder()
	h.Handle(rec, submitRequest(body, "198.51.100.8"))
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestGetClientIPPrefersForwardedFor(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/leads", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	assert.Equal(t, "203.0.113.9", getClientIP(req))

	req = httptest.NewRequest(http.MethodPost, "/leads", nil)
	req.Header.Set("X-Real-IP", "203.0.113.10")
	assert.Equal(t, "203.0.113.10", getClientIP(req))
}

func TestRateLimiterCapsPerIP(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)

	assert.True(t, rl.Allow("1.2.3.4"))
	assert.True(t, rl.Allow("1.2.3.4"))
	assert.False(t, rl.Allow("1.2.3.4"))
	assert.True(t, rl.Allow("5.6.7.8"))
}
