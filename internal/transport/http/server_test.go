package httptransport

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewServerAppliesConfig(t *testing.T) {
	h := http.NewServeMux()
	srv := NewServer(DefaultServerConfig(":0"), h)
	require.Equal(t, ":0", srv.Addr)
	require.Equal(t, 10*time.Second, srv.ReadTimeout)
	require.Equal(t, 60*time.Second, srv.IdleTimeout)
}

func TestMetricsServerExposesRegistry(t *testing.T) {
	srv := NewMetricsServer(":0")
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), "go_goroutines")
}
