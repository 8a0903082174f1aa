package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"example.com/wellbeing/internal/auth"
	"example.com/wellbeing/internal/persistence/memory"
	"example.com/wellbeing/internal/tracker"
)

var noon = time.Date(2026, time.June, 10, 12, 0, 0, 0, time.UTC)

func newTestHandler(t *testing.T) (http.Handler, *tracker.Tracker) {
	t.Helper()
	tr := tracker.New(memory.NewStore(), nil,
		tracker.WithClock(func() time.Time { return noon }),
		tracker.WithLocation(time.UTC),
		tracker.WithLogger(log.New(io.Discard, "", 0)),
	)
	mux := http.NewServeMux()
	NewHandler(tr).RegisterRoutes(mux)
	return mux, tr
}

func do(t *testing.T, h http.Handler, method, path string, body interface{}, scopes ...string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if scopes != nil {
		claims := &auth.Claims{
			Subject:   "user-1",
			Scopes:    map[string]struct{}{},
			ExpiresAt: noon.Add(time.Hour),
		}
		for _, s := range scopes {
			claims.Scopes[s] = struct{}{}
		}
		req = req.WithContext(auth.WithClaims(req.Context(), claims))
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), out), rr.Body.String())
}

func TestAuthorization(t *testing.T) {
	h, _ := newTestHandler(t)

	rr := do(t, h, http.MethodGet, "/v1/wellbeing", nil)
	require.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = do(t, h, http.MethodPost, "/v1/sessions", nil, auth.ScopeWellbeingRead)
	require.Equal(t, http.StatusForbidden, rr.Code)

	var problem map[string]string
	decode(t, rr, &problem)
	require.Equal(t, "forbidden", problem["type"])
}

func TestSessionLifecycle(t *testing.T) {
	h, tr := newTestHandler(t)

	rr := do(t, h, http.MethodPost, "/v1/sessions", nil, auth.ScopeWellbeingWrite)
	require.Equal(t, http.StatusCreated, rr.Code)
	var first SessionView
	decode(t, rr, &first)
	require.Equal(t, "user-1", first.UserID)
	require.NotEmpty(t, first.SessionID)

	rr = do(t, h, http.MethodPost, "/v1/sessions", nil, auth.ScopeWellbeingWrite)
	var second SessionView
	decode(t, rr, &second)
	require.Equal(t, first.SessionID, second.SessionID)

	rr = do(t, h, http.MethodDelete, "/v1/sessions", nil, auth.ScopeWellbeingWrite)
	require.Equal(t, http.StatusNoContent, rr.Code)
	require.Empty(t, tr.Sessions())

	rr = do(t, h, http.MethodDelete, "/v1/sessions", nil, auth.ScopeWellbeingWrite)
	require.Equal(t, http.StatusNotFound, rr.Code)

	rr = do(t, h, http.MethodPut, "/v1/sessions", nil, auth.ScopeWellbeingWrite)
	require.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestIngestSamples(t *testing.T) {
	h, tr := newTestHandler(t)
	body := map[string]interface{}{
		"samples": []map[string]interface{}{
			{"stream": "accelerometer", "timestamp": noon, "x": 0, "y": 0, "z": 1},
			{"stream": "audio", "timestamp": noon, "level": 25},
			{"stream": "barometer", "timestamp": noon},
		},
	}

	rr := do(t, h, http.MethodPost, "/v1/samples", body, auth.ScopeSamplesWrite)
	require.Equal(t, http.StatusNotFound, rr.Code)

	_, err := tr.Start(context.Background(), "user-1")
	require.NoError(t, err)

	rr = do(t, h, http.MethodPost, "/v1/samples", body, auth.ScopeSamplesWrite)
	require.Equal(t, http.StatusAccepted, rr.Code)
	var res tracker.IngestResult
	decode(t, rr, &res)
	require.Equal(t, tracker.IngestResult{Accepted: 2, Rejected: 1}, res)

	rr = do(t, h, http.MethodPost, "/v1/samples", map[string]interface{}{"samples": []interface{}{}}, auth.ScopeSamplesWrite)
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestWellbeingFallsBackToSampleData(t *testing.T) {
	h, tr := newTestHandler(t)
	_, err := tr.Start(context.Background(), "user-1")
	require.NoError(t, err)

	rr := do(t, h, http.MethodGet, "/v1/wellbeing", nil, auth.ScopeWellbeingRead)
	require.Equal(t, http.StatusOK, rr.Code)

	var snap struct {
		Daily             []json.RawMessage `json:"daily_scores"`
		IsUsingSampleData bool              `json:"is_using_sample_data"`
	}
	decode(t, rr, &snap)
	require.True(t, snap.IsUsingSampleData)
	require.Len(t, snap.Daily, 7)
}

func TestUpdateScoresWithExplicitMetrics(t *testing.T) {
	h, tr := newTestHandler(t)
	_, err := tr.Start(context.Background(), "user-1")
	require.NoError(t, err)

	rr := do(t, h, http.MethodPost, "/v1/wellbeing/metrics", map[string]float64{
		"sleep_hours":                7,
		"physical_activity_minutes":  20,
		"social_interaction_minutes": 40,
	}, auth.ScopeWellbeingWrite)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp UpdateScoresResponse
	decode(t, rr, &resp)
	require.True(t, resp.Updated)
	require.NotNil(t, resp.Score)
	require.InDelta(t, 80, resp.Score.Overall, 1e-9)
	require.False(t, resp.Snapshot.IsUsingSampleData)

	rr = do(t, h, http.MethodPost, "/v1/wellbeing/metrics", map[string]float64{}, auth.ScopeWellbeingWrite)
	require.Equal(t, http.StatusOK, rr.Code)
	resp = UpdateScoresResponse{}
	decode(t, rr, &resp)
	require.False(t, resp.Updated)
	require.Nil(t, resp.Score)

	rr = do(t, h, http.MethodPost, "/v1/wellbeing/metrics", map[string]float64{"sleep_hours": -1}, auth.ScopeWellbeingWrite)
	require.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(t, h, http.MethodPost, "/v1/wellbeing/refresh", nil, auth.ScopeWellbeingWrite)
	require.Equal(t, http.StatusOK, rr.Code)
}

func TestDailyMetricsQuery(t *testing.T) {
	h, tr := newTestHandler(t)
	_, err := tr.Start(context.Background(), "user-1")
	require.NoError(t, err)

	rr := do(t, h, http.MethodGet, "/v1/wellbeing/metrics", nil, auth.ScopeWellbeingRead)
	require.Equal(t, http.StatusOK, rr.Code)
	var resp MetricsResponse
	decode(t, rr, &resp)
	require.Equal(t, "2026-06-10", resp.Date)
	require.False(t, resp.Metrics.HasData())

	rr = do(t, h, http.MethodGet, "/v1/wellbeing/metrics?date=2026-06-01", nil, auth.ScopeWellbeingRead)
	require.Equal(t, http.StatusOK, rr.Code)
	decode(t, rr, &resp)
	require.Equal(t, "2026-06-01", resp.Date)

	rr = do(t, h, http.MethodGet, "/v1/wellbeing/metrics?date=June", nil, auth.ScopeWellbeingRead)
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestReadingsAndTimeline(t *testing.T) {
	h, tr := newTestHandler(t)

	rr := do(t, h, http.MethodGet, "/v1/readings", nil, auth.ScopeWellbeingRead)
	require.Equal(t, http.StatusNotFound, rr.Code)

	_, err := tr.Start(context.Background(), "user-1")
	require.NoError(t, err)
	tr.TickAll(noon)

	rr = do(t, h, http.MethodGet, "/v1/readings", nil, auth.ScopeWellbeingRead)
	require.Equal(t, http.StatusOK, rr.Code)
	var reading tracker.Reading
	decode(t, rr, &reading)
	require.Equal(t, "user-1", reading.UserID)

	rr = do(t, h, http.MethodGet, "/v1/timeline", nil, auth.ScopeWellbeingRead)
	require.Equal(t, http.StatusOK, rr.Code)
}

func TestHealthz(t *testing.T) {
	h, _ := newTestHandler(t)
	rr := do(t, h, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "ok", rr.Body.String())
}
