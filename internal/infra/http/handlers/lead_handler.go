package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/dmarinho/leadcore/internal/infra/http/middleware"
	"github.com/dmarinho/leadcore/internal/usecase"
)

// LeadSubmitter is the slice of the ingestion usecase the handler needs.
type LeadSubmitter interface {
	Execute(ctx context.Context, input usecase.SubmitLeadInput) (*usecase.SubmitLeadOutput, error)
}

type LeadHandler struct {
	UC          LeadSubmitter
	rateLimiter *RateLimiter
}

func NewLeadHandler(uc LeadSubmitter) *LeadHandler {
	return &LeadHandler{
		UC:          uc,
		rateLimiter: NewRateLimiter(10, time.Minute), // 10 req/min per IP
	}
}

type SubmitLeadResponse struct {
	Success    bool                      `json:"success"`
	ID         string                    `json:"id,omitempty"`
	Status     string                    `json:"status,omitempty"`
	CampaignID string                    `json:"campaign_id,omitempty"`
	Message    string                    `json:"message,omitempty"`
	Errors     []usecase.ValidationError `json:"errors,omitempty"`
}

func (h *LeadHandler) Handle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	clientIP := getClientIP(r)
	if !h.rateLimiter.Allow(clientIP) {
		writeJSON(w, http.StatusTooManyRequests, SubmitLeadResponse{
			Success: false,
			Message: "Too many requests. Please try again later.",
		})
		return
	}

	var input usecase.SubmitLeadInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeJSON(w, http.StatusBadRequest, SubmitLeadResponse{
			Success: false,
			Message: "Invalid JSON",
		})
		return
	}

	input.IP = clientIP
	input.UserAgent = r.UserAgent()

	output, err := h.UC.Execute(ctx, input)
	if err != nil {
		if domainErr, ok := err.(*usecase.DomainError); ok {
			middleware.RecordValidationFailure()
			writeJSON(w, http.StatusUnprocessableEntity, SubmitLeadResponse{
				Success: false,
				Message: domainErr.Message,
				Errors:  domainErr.Fields,
			})
			return
		}

		// Persistence failure: the one error that fails the whole request.
		writeJSON(w, http.StatusInternalServerError, SubmitLeadResponse{
			Success: false,
			Message: "We could not record your submission. Please try again.",
		})
		return
	}

	middleware.RecordLeadCaptured(output.CampaignID != "")

	writeJSON(w, http.StatusCreated, SubmitLeadResponse{
		Success:    true,
		ID:         output.ID,
		Status:     output.Status,
		CampaignID: output.CampaignID,
		Message:    output.Msg,
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if i := strings.IndexByte(xff, ','); i >= 0 {
			return strings.TrimSpace(xff[:i])
		}
		return xff
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	return r.RemoteAddr
}

type RateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    int
	window   time.Duration
}

type visitor struct {
	count     int
	lastReset time.Time
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		visitors: make(map[string]*visitor),
		limit:    limit,
		window:   window,
	}

	go rl.cleanup()
	return rl
}

func (rl *RateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, exists := rl.visitors[ip]
	now := time.Now()

	if !exists {
		rl.visitors[ip] = &visitor{count: 1, lastReset: now}
		return true
	}

	if now.Sub(v.lastReset) > rl.window {
		v.count = 1
		v.lastReset = now
		return true
	}

	v.count++
	return v.count <= rl.limit
}

func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		rl.mu.Lock()
		now := time.Now()
		for ip, v := range rl.visitors {
			if now.Sub(v.lastReset) > rl.window*2 {
				delete(rl.visitors, ip)
			}
		}
		rl.mu.Unlock()
	}
}
