package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"

	"github.com/dmarinho/leadcore/internal/usecase"
)

type stubStatsProvider struct {
	stats *usecase.VerificationStats
	err   error
	got   string
}

func (s *stubStatsProvider) Execute(ctx context.Context, campaignID string) (*usecase.VerificationStats, error) {
	s.got = campaignID
	return s.stats, s.err
}

func TestStatsHandler(t *testing.T) {
	stub := &stubStatsProvider{stats: &usecase.VerificationStats{
		Total:            10,
		Verified:         4,
		Pending:          3,
		Failed:           1,
		VerificationRate: 0.4,
	}}
	h := NewStatsHandler(stub)

	r := chi.NewRouter()
	r.Get("/campaigns/{campaignID}/verification-stats", h.Handle)

	req := httptest.NewRequest(http.MethodGet, "/campaigns/camp-1/verification-stats", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "camp-1", stub.got)

	var stats usecase.VerificationStats
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 10, stats.Total)
	assert.InDelta(t, 0.4, stats.VerificationRate, 1e-9)
}

func TestStatsHandlerFailure(t *testing.T) {
	stub := &stubStatsProvider{err: errors.New("connection refused")}
	h := NewStatsHandler(stub)

	r := chi.NewRouter()
	r.Get("/campaigns/{campaignID}/verification-stats", h.Handle)

	req := httptest.NewRequest(http.MethodGet, "/campaigns/camp-1/verification-stats", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
