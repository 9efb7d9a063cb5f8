package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorderCounters(t *testing.T) {
	r := New()
	r.RecordAnalyzed("8-K", "bullish")
	r.RecordAnalyzed("8-K", "bullish")
	r.RecordError(StageFetch)
	r.RecordSkipped("exchange")
	r.SetFeedEntries(40)
	r.ObserveDuration("analyze", time.Now())

	assert.Equal(t, 2.0, testutil.ToFloat64(r.analyzed.WithLabelValues("8-K", "bullish")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.errors.WithLabelValues(StageFetch)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.skipped.WithLabelValues("exchange")))
	assert.Equal(t, 40.0, testutil.ToFloat64(r.feedItems))
}

func TestRecorderHandler(t *testing.T) {
	r := New()
	r.RecordAnalyzed("4", "neutral")

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `filingsense_filings_analyzed_total{form="4",sentiment="neutral"} 1`)
}

func TestRecordersAreIndependent(t *testing.T) {
	a, b := New(), New()
	a.RecordError(StageFeed)
	assert.Equal(t, 0.0, testutil.ToFloat64(b.errors.WithLabelValues(StageFeed)))
}
