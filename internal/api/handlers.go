// Package api exposes HTTP handlers for the wellbeing service.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"example.com/wellbeing/internal/auth"
	"example.com/wellbeing/internal/domain"
	"example.com/wellbeing/internal/scoring"
	"example.com/wellbeing/internal/sensing"
	"example.com/wellbeing/internal/tracker"
)

const maxSamplesPerRequest = 5000

// Handler coordinates HTTP requests with the session tracker.
type Handler struct {
	tracker *tracker.Tracker
}

// NewHandler builds a Handler.
func NewHandler(t *tracker.Tracker) *Handler {
	return &Handler{tracker: t}
}

// RegisterRoutes wires endpoints to the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/sessions", h.sessions)
	mux.HandleFunc("/v1/samples", h.samples)
	mux.HandleFunc("/v1/readings", h.readings)
	mux.HandleFunc("/v1/timeline", h.timeline)
	mux.HandleFunc("/v1/wellbeing", h.wellbeing)
	mux.HandleFunc("/v1/wellbeing/refresh", h.refresh)
	mux.HandleFunc("/v1/wellbeing/metrics", h.metrics)
	mux.HandleFunc("/healthz", healthz)
}

// healthz reports a simple OK status for container health checks.
func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) sessions(w http.ResponseWriter, r *http.Request) {
	claims, ok := authorize(w, r, auth.ScopeWellbeingWrite)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodPost:
		s, err := h.tracker.Start(r.Context(), claims.Subject)
		if err != nil {
			writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
			return
		}
		writeJSON(w, http.StatusCreated, SessionView{
			SessionID: s.ID.String(),
			UserID:    s.UserID,
			StartedAt: s.StartedAt,
		})
	case http.MethodDelete:
		if err := h.tracker.End(r.Context(), claims.Subject); err != nil {
			h.writeTrackerError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	}
}

func (h *Handler) samples(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	claims, ok := authorize(w, r, auth.ScopeSamplesWrite)
	if !ok {
		return
	}

	var req IngestSamplesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	res, err := h.tracker.Ingest(claims.Subject, req.Samples)
	if err != nil {
		h.writeTrackerError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, res)
}

func (h *Handler) readings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	s, ok := h.session(w, r, auth.ScopeWellbeingRead, auth.ScopeWellbeingWrite)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.Reading())
}

func (h *Handler) timeline(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	s, ok := h.session(w, r, auth.ScopeWellbeingRead, auth.ScopeWellbeingWrite)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, TimelineResponse{
		Activities:    s.Activities(),
		Conversations: s.Conversations(),
	})
}

func (h *Handler) wellbeing(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	s, ok := h.session(w, r, auth.ScopeWellbeingRead, auth.ScopeWellbeingWrite)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.Snapshot())
}

func (h *Handler) refresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	s, ok := h.session(w, r, auth.ScopeWellbeingWrite)
	if !ok {
		return
	}
	s.Refresh(r.Context())
	writeJSON(w, http.StatusOK, s.Snapshot())
}

func (h *Handler) metrics(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s, ok := h.session(w, r, auth.ScopeWellbeingRead, auth.ScopeWellbeingWrite)
		if !ok {
			return
		}
		date := h.tracker.Now()
		if raw := strings.TrimSpace(r.URL.Query().Get("date")); raw != "" {
			parsed, err := time.ParseInLocation(domain.DateLayout, raw, h.tracker.Location())
			if err != nil {
				writeError(w, http.StatusBadRequest, "validation_failed", "date must be YYYY-MM-DD")
				return
			}
			date = parsed
		}
		writeJSON(w, http.StatusOK, MetricsResponse{
			Date:    date.Format(domain.DateLayout),
			Metrics: s.Metrics(date),
		})
	case http.MethodPost:
		s, ok := h.session(w, r, auth.ScopeWellbeingWrite)
		if !ok {
			return
		}
		var req domain.WellbeingMetrics
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
			return
		}
		if err := validateMetrics(req); err != nil {
			writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
			return
		}
		score, updated := s.UpdateScores(r.Context(), req)
		resp := UpdateScoresResponse{Updated: updated, Snapshot: s.Snapshot()}
		if updated {
			resp.Score = &score
		}
		writeJSON(w, http.StatusOK, resp)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	}
}

// session authorizes the request and resolves the caller's active session.
func (h *Handler) session(w http.ResponseWriter, r *http.Request, scopes ...string) (*tracker.Session, bool) {
	claims, ok := authorize(w, r, scopes...)
	if !ok {
		return nil, false
	}
	s, err := h.tracker.Get(claims.Subject)
	if err != nil {
		h.writeTrackerError(w, err)
		return nil, false
	}
	return s, true
}

func (h *Handler) writeTrackerError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, tracker.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, "not_found", "no active session")
	case errors.Is(err, tracker.ErrInvalidUser):
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
	}
}

func authorize(w http.ResponseWriter, r *http.Request, scopes ...string) (*auth.Claims, bool) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return nil, false
	}
	if !claims.HasAnyScope(scopes...) {
		writeError(w, http.StatusForbidden, "forbidden", "scope "+scopes[0]+" required")
		return nil, false
	}
	return claims, true
}

func validateMetrics(m domain.WellbeingMetrics) error {
	if m.SleepHours < 0 || m.PhysicalActivityMinutes < 0 || m.SocialInteractionMinutes < 0 {
		return errors.New("metrics must not be negative")
	}
	if m.SleepHours > 24 {
		return errors.New("sleep_hours must be <= 24")
	}
	return nil
}

// IngestSamplesRequest is the payload for POST /v1/samples.
type IngestSamplesRequest struct {
	Samples []sensing.Sample `json:"samples"`
}

// Validate ensures request correctness.
func (r IngestSamplesRequest) Validate() error {
	if len(r.Samples) == 0 {
		return errors.New("samples are required")
	}
	if len(r.Samples) > maxSamplesPerRequest {
		return errors.New("too many samples in one request")
	}
	return nil
}

// SessionView describes a started session.
type SessionView struct {
	SessionID string    `json:"session_id"`
	UserID    string    `json:"user_id"`
	StartedAt time.Time `json:"started_at"`
}

// TimelineResponse lists the retained timeline events of a session.
type TimelineResponse struct {
	Activities    []domain.ActivityEvent     `json:"activities"`
	Conversations []domain.ConversationEvent `json:"conversations"`
}

// MetricsResponse carries the aggregated metrics of one calendar day.
type MetricsResponse struct {
	Date    string                  `json:"date"`
	Metrics domain.WellbeingMetrics `json:"metrics"`
}

// UpdateScoresResponse reports whether explicit metrics changed the scores.
type UpdateScoresResponse struct {
	Updated  bool                   `json:"updated"`
	Score    *domain.WellbeingScore `json:"score,omitempty"`
	Snapshot scoring.Snapshot       `json:"snapshot"`
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	payload := map[string]string{
		"type":   code,
		"detail": detail,
	}
	writeJSON(w, status, payload)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
