package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()

	m.Event("message")
	m.Event("message")
	m.Outcome("replied")
	m.Completion("gpt-4", time.Second, nil)
	m.Completion("gpt-4", time.Second, errors.New("timeout"))
	m.Chunk("channel", nil)
	m.Chunk("channel", errors.New("no ack"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.events.WithLabelValues("message")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.decisions.WithLabelValues("replied")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.completions.WithLabelValues("gpt-4", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.completions.WithLabelValues("gpt-4", "failure")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.chunks.WithLabelValues("channel")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.dispatchErr.WithLabelValues("channel")))
}

func TestMetrics_NilIsNoOp(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.Event("message")
		m.Outcome("replied")
		m.Completion("x", time.Second, nil)
		m.Chunk("channel", nil)
	})
	assert.Nil(t, m.Registry())
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.Event("interaction")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `jeeves_events_total{kind="interaction"} 1`)
}
