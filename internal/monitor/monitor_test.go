package monitor

import (
	"context"
	"errors"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/seenimoa/filingsense/internal/analysis/filing"
	"github.com/seenimoa/filingsense/internal/metrics"
	"github.com/seenimoa/filingsense/internal/providers/sec"
	"github.com/seenimoa/filingsense/pkg/models"
)

type mockSource struct {
	mock.Mock
}

func (m *mockSource) Latest(ctx context.Context) ([]sec.FeedEntry, error) {
	args := m.Called(ctx)
	entries, _ := args.Get(0).([]sec.FeedEntry)
	return entries, args.Error(1)
}

func (m *mockSource) Companies(ctx context.Context) (*sec.Directory, error) {
	args := m.Called(ctx)
	dir, _ := args.Get(0).(*sec.Directory)
	return dir, args.Error(1)
}

func (m *mockSource) Event(ctx context.Context, cik, accession string, company *models.CompanyProfile) (models.FilingEvent, error) {
	args := m.Called(ctx, cik, accession, company)
	ev, _ := args.Get(0).(models.FilingEvent)
	return ev, args.Error(1)
}

type recorder struct {
	mu     sync.Mutex
	events []models.FilingEvent
	err    error
}

func (r *recorder) Publish(_ context.Context, event models.FilingEvent, _ models.AnalysisResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, event)
	return nil
}

func (r *recorder) accessions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, e := range r.events {
		out = append(out, e.Accession)
	}
	return out
}

var (
	apple = models.CompanyProfile{CIK: "320193", Name: "Apple Inc.", Tickers: []string{"AAPL"}, Exchanges: []string{"Nasdaq"}}
	berk  = models.CompanyProfile{CIK: "1067983", Name: "Berkshire", Tickers: []string{"BRK-B"}, Exchanges: []string{"NYSE"}}
	otc   = models.CompanyProfile{CIK: "55555", Name: "Pink Sheet Co", Tickers: []string{"PINK"}, Exchanges: []string{"OTC"}}
)

func feed() []sec.FeedEntry {
	return []sec.FeedEntry{
		{Accession: "0000000003-25-000003", CIK: "55555", FormType: "8-K", Role: "Filer"},
		{Accession: "0000000002-25-000002", CIK: "1214156", FormType: "4", Role: "Reporting"},
		{Accession: "0000000002-25-000002", CIK: "320193", FormType: "4", Role: "Issuer"},
		{Accession: "0000000001-25-000001", CIK: "1067983", FormType: "8-K", Role: "Filer"},
	}
}

func eventFor(acc, form string) models.FilingEvent {
	return models.FilingEvent{Accession: acc, SubmissionType: form}
}

func newMonitor(src Source, rep *recorder, opts Options) *Monitor {
	return New(src, filing.New(), rep, opts)
}

func TestPollPublishesListedFilings(t *testing.T) {
	src := &mockSource{}
	src.On("Latest", mock.Anything).Return(feed(), nil).Once()
	src.On("Companies", mock.Anything).Return(sec.NewDirectory(apple, berk, otc), nil)
	src.On("Event", mock.Anything, "1067983", "0000000001-25-000001", mock.Anything).
		Return(eventFor("0000000001-25-000001", "8-K"), nil)
	src.On("Event", mock.Anything, "1214156", "0000000002-25-000002", mock.Anything).
		Return(eventFor("0000000002-25-000002", "4"), nil)

	rep := &recorder{}
	rec := metrics.New()
	m := newMonitor(src, rep, Options{Exchanges: []string{"NASDAQ", "NYSE"}, Workers: 1, Metrics: rec})

	n, err := m.Poll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"0000000001-25-000001", "0000000002-25-000002"}, rep.accessions(), "oldest first with one worker")
	assert.Equal(t, 2, m.Published())

	// The Form 4 is fetched through the first-listed party but carries the
	// listed issuer's profile.
	src.AssertCalled(t, "Event", mock.Anything, "1214156", "0000000002-25-000002", mock.MatchedBy(func(c *models.CompanyProfile) bool {
		return c != nil && c.Name == "Apple Inc."
	}))
	src.AssertNotCalled(t, "Event", mock.Anything, "55555", mock.Anything, mock.Anything)

	assert.Contains(t, scrape(t, rec), `filingsense_filings_skipped_total{reason="exchange"} 1`)
}

func scrape(t *testing.T, rec *metrics.Recorder) string {
	t.Helper()
	w := httptest.NewRecorder()
	rec.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))
	return w.Body.String()
}

func TestPollSkipsSeenAccessions(t *testing.T) {
	src := &mockSource{}
	src.On("Latest", mock.Anything).Return(feed(), nil)
	src.On("Event", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(eventFor("x", "8-K"), nil)

	rep := &recorder{}
	rec := metrics.New()
	m := newMonitor(src, rep, Options{Metrics: rec})

	n, err := m.Poll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = m.Poll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	src.AssertNumberOfCalls(t, "Event", 3)
	src.AssertNotCalled(t, "Companies", mock.Anything)
	assert.Contains(t, scrape(t, rec), `filingsense_filings_skipped_total{reason="seen"} 3`)
}

func TestPollFormFilter(t *testing.T) {
	src := &mockSource{}
	src.On("Latest", mock.Anything).Return(feed(), nil)
	src.On("Event", mock.Anything, "1214156", "0000000002-25-000002", (*models.CompanyProfile)(nil)).
		Return(eventFor("0000000002-25-000002", "4"), nil)

	rep := &recorder{}
	m := newMonitor(src, rep, Options{Forms: []string{" 4 "}})

	n, err := m.Poll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"0000000002-25-000002"}, rep.accessions())
}

func TestPollNotModified(t *testing.T) {
	src := &mockSource{}
	src.On("Latest", mock.Anything).Return(nil, sec.ErrNotModified)

	n, err := newMonitor(src, &recorder{}, Options{}).Poll(context.Background())
	assert.NoError(t, err)
	assert.Zero(t, n)
}

func TestPollFeedError(t *testing.T) {
	src := &mockSource{}
	src.On("Latest", mock.Anything).Return(nil, sec.ErrRateLimited)
	rec := metrics.New()

	_, err := newMonitor(src, &recorder{}, Options{Metrics: rec}).Poll(context.Background())
	assert.ErrorIs(t, err, sec.ErrRateLimited)
	assert.Contains(t, scrape(t, rec), `filingsense_errors_total{stage="feed"} 1`)
}

func TestPollDirectoryError(t *testing.T) {
	src := &mockSource{}
	src.On("Latest", mock.Anything).Return(feed(), nil)
	src.On("Companies", mock.Anything).Return(nil, errors.New("directory down"))

	_, err := newMonitor(src, &recorder{}, Options{Exchanges: []string{"NYSE"}}).Poll(context.Background())
	assert.EqualError(t, err, "directory down")
	src.AssertNotCalled(t, "Event", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestPollPerFilingFailuresAreSkipped(t *testing.T) {
	src := &mockSource{}
	src.On("Latest", mock.Anything).Return(feed(), nil)
	src.On("Event", mock.Anything, "55555", mock.Anything, mock.Anything).
		Return(models.FilingEvent{}, sec.ErrNotFound)
	src.On("Event", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(eventFor("ok", "8-K"), nil)

	rep := &recorder{}
	rec := metrics.New()
	n, err := newMonitor(src, rep, Options{Workers: 3, Metrics: rec}).Poll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Len(t, rep.accessions(), 2)
	assert.Contains(t, scrape(t, rec), `filingsense_errors_total{stage="fetch"} 1`)
}

func TestPollPublishFailure(t *testing.T) {
	src := &mockSource{}
	src.On("Latest", mock.Anything).Return(feed(), nil)
	src.On("Event", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(eventFor("x", "8-K"), nil)

	rec := metrics.New()
	m := newMonitor(src, &recorder{err: errors.New("sink closed")}, Options{Metrics: rec})
	n, err := m.Poll(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Contains(t, scrape(t, rec), `filingsense_errors_total{stage="publish"} 3`)
}

func TestEventGapsFilledFromFeed(t *testing.T) {
	src := &mockSource{}
	src.On("Latest", mock.Anything).Return([]sec.FeedEntry{
		{Accession: "0000000009-25-000009", CIK: "9", FormType: "8-K", Filed: "2025-01-30"},
	}, nil)
	src.On("Event", mock.Anything, "9", "0000000009-25-000009", mock.Anything).
		Return(models.FilingEvent{Accession: "0000000009-25-000009"}, nil)

	rep := &recorder{}
	_, err := newMonitor(src, rep, Options{}).Poll(context.Background())
	require.NoError(t, err)
	require.Len(t, rep.events, 1)
	assert.Equal(t, "8-K", rep.events[0].SubmissionType)
	assert.Equal(t, "2025-01-30", rep.events[0].FilingDate)
}

func TestRunStopsAtMaxResults(t *testing.T) {
	src := &mockSource{}
	src.On("Latest", mock.Anything).Return(feed(), nil)
	src.On("Event", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(eventFor("x", "8-K"), nil)

	rep := &recorder{}
	m := newMonitor(src, rep, Options{MaxResults: 2, PollInterval: time.Hour})
	require.NoError(t, m.Run(context.Background()))
	assert.Equal(t, 2, m.Published())
	assert.Len(t, rep.accessions(), 2)
}

func TestSelectLeavesEntriesBeyondBudgetUnseen(t *testing.T) {
	src := &mockSource{}
	src.On("Latest", mock.Anything).Return(feed(), nil)
	src.On("Event", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(eventFor("x", "8-K"), nil)

	rep := &recorder{err: errors.New("sink closed")}
	m := newMonitor(src, rep, Options{MaxResults: 1, Workers: 1})

	n, err := m.Poll(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.True(t, m.seen.Contains("0000000001-25-000001"))
	assert.False(t, m.seen.Contains("0000000002-25-000002"))
	assert.False(t, m.seen.Contains("0000000003-25-000003"))

	rep.mu.Lock()
	rep.err = nil
	rep.mu.Unlock()

	n, err = m.Poll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	src.AssertCalled(t, "Event", mock.Anything, mock.Anything, "0000000002-25-000002", mock.Anything)
	src.AssertNotCalled(t, "Event", mock.Anything, mock.Anything, "0000000003-25-000003", mock.Anything)
}

func TestRunStopsOnCancel(t *testing.T) {
	src := &mockSource{}
	src.On("Latest", mock.Anything).Return(nil, sec.ErrNotModified)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := newMonitor(src, &recorder{}, Options{PollInterval: 5 * time.Millisecond}).Run(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Greater(t, len(src.Calls), 1)
}

func TestMergeProfiles(t *testing.T) {
	merged := MergeProfiles([]models.CompanyProfile{
		{CIK: "1", Name: "Primary", Tickers: []string{"ZZZ", "AAA"}, Exchanges: []string{"NYSE"}},
		{CIK: "2", Name: "Secondary", Tickers: []string{"AAA", "MMM"}, Exchanges: []string{"Nasdaq", "NYSE"}},
	})
	assert.Equal(t, "1", merged.CIK)
	assert.Equal(t, "Primary", merged.Name)
	assert.Equal(t, []string{"AAA", "MMM", "ZZZ"}, merged.Tickers)
	assert.Equal(t, []string{"NYSE", "Nasdaq"}, merged.Exchanges)

	single := models.CompanyProfile{CIK: "7", Tickers: []string{"B", "A"}}
	assert.Equal(t, single, MergeProfiles([]models.CompanyProfile{single}))
	assert.Equal(t, models.CompanyProfile{}, MergeProfiles(nil))
}
