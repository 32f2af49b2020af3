package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()

	m.Reconnects.Inc()
	m.Reconnects.Inc()
	m.StreamFrames.WithLabelValues("malformed").Inc()
	m.ConnectionState.Set(2)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.Reconnects))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.StreamFrames.WithLabelValues("malformed")))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.ConnectionState))
}

func TestMetrics_SeparateRegistries(t *testing.T) {
	a := New()
	b := New()

	a.Reconnects.Inc()
	assert.Equal(t, float64(0), testutil.ToFloat64(b.Reconnects))
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.BidSubmissions.WithLabelValues("accepted").Inc()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `auction_client_bid_submissions_total{result="accepted"} 1`)
}
