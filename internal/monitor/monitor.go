// Package monitor polls the EDGAR latest-filings feed and pushes every new
// filing from a listed issuer through analysis and reporting.
package monitor

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/seenimoa/filingsense/internal/infra"
	"github.com/seenimoa/filingsense/internal/metrics"
	"github.com/seenimoa/filingsense/internal/providers/sec"
	"github.com/seenimoa/filingsense/internal/report"
	"github.com/seenimoa/filingsense/pkg/models"
)

// Skip reasons recorded in metrics.
const (
	SkipSeen     = "seen"
	SkipForm     = "form"
	SkipExchange = "exchange"
)

// Source is the EDGAR surface the monitor needs.
type Source interface {
	Latest(ctx context.Context) ([]sec.FeedEntry, error)
	Companies(ctx context.Context) (*sec.Directory, error)
	Event(ctx context.Context, cik, accession string, company *models.CompanyProfile) (models.FilingEvent, error)
}

// Analyzer turns an event into a result.
type Analyzer interface {
	Analyze(event models.FilingEvent) models.AnalysisResult
}

// Options configures a Monitor.
type Options struct {
	PollInterval time.Duration
	Workers      int
	Exchanges    []string
	Forms        []string
	SeenTTL      time.Duration
	// MaxResults stops Run after this many filings were published; 0 means
	// no limit.
	MaxResults int
	Logger     zerolog.Logger
	Metrics    *metrics.Recorder
}

// Monitor runs the poll loop.
type Monitor struct {
	src      Source
	analyzer Analyzer
	reporter report.Reporter
	opts     Options
	log      zerolog.Logger
	seen     *infra.Cache[struct{}]

	published atomic.Int64
}

// Candidate is one filing selected from a feed poll.
type Candidate struct {
	Entry   sec.FeedEntry
	CIKs    []string
	Company *models.CompanyProfile
}

// New creates a Monitor.
func New(src Source, analyzer Analyzer, reporter report.Reporter, opts Options) *Monitor {
	if opts.PollInterval <= 0 {
		opts.PollInterval = time.Minute
	}
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.SeenTTL <= 0 {
		opts.SeenTTL = 24 * time.Hour
	}
	return &Monitor{
		src:      src,
		analyzer: analyzer,
		reporter: reporter,
		opts:     opts,
		log:      opts.Logger.With().Str("component", "monitor").Logger(),
		seen:     infra.NewCache[struct{}](opts.SeenTTL),
	}
}

// Published returns how many filings have been published so far.
func (m *Monitor) Published() int {
	return int(m.published.Load())
}

func (m *Monitor) done() bool {
	return m.opts.MaxResults > 0 && m.Published() >= m.opts.MaxResults
}

// Run polls until ctx is cancelled or MaxResults filings were published.
// Failed polls are logged and retried on the next tick.
func (m *Monitor) Run(ctx context.Context) error {
	m.log.Info().
		Dur("interval", m.opts.PollInterval).
		Strs("exchanges", m.opts.Exchanges).
		Strs("forms", m.opts.Forms).
		Int("workers", m.opts.Workers).
		Msg("monitor started")

	ticker := time.NewTicker(m.opts.PollInterval)
	defer ticker.Stop()

	for {
		n, err := m.Poll(ctx)
		switch {
		case err != nil && ctx.Err() != nil:
			return ctx.Err()
		case err != nil:
			m.log.Warn().Err(err).Msg("poll failed")
		case n > 0:
			m.log.Info().Int("published", n).Msg("poll complete")
		default:
			m.log.Debug().Msg("no unseen filings in this interval")
		}
		if m.done() {
			m.log.Info().Int("max_results", m.opts.MaxResults).Msg("reached max results")
			return nil
		}
		m.seen.Cleanup()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Poll runs one iteration: read the feed, select unseen filings that pass
// the filters, and process them concurrently. It returns how many filings
// were published. Per-filing failures are logged and skipped.
func (m *Monitor) Poll(ctx context.Context) (int, error) {
	start := time.Now()
	entries, err := m.src.Latest(ctx)
	if errors.Is(err, sec.ErrNotModified) {
		return 0, nil
	}
	if err != nil {
		m.recordError(metrics.StageFeed)
		return 0, err
	}
	if m.opts.Metrics != nil {
		m.opts.Metrics.SetFeedEntries(len(entries))
		m.opts.Metrics.ObserveDuration("feed", start)
	}

	candidates, err := m.Select(ctx, entries)
	if err != nil {
		return 0, err
	}
	if len(candidates) > 0 {
		m.log.Info().Int("count", len(candidates)).Msg("processing new filings")
	}

	var published atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.opts.Workers)
	for _, c := range candidates {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if m.process(gctx, c) {
				published.Add(1)
				m.published.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()
	return int(published.Load()), ctx.Err()
}

// Select dedupes the feed, drops filings seen within SeenTTL and applies the
// form and exchange filters. Considered accessions are marked seen.
// Candidates are returned oldest first. With MaxResults set, selection
// stops once the remaining budget is filled and later entries stay unseen.
func (m *Monitor) Select(ctx context.Context, entries []sec.FeedEntry) ([]Candidate, error) {
	limit := 0
	if m.opts.MaxResults > 0 {
		limit = m.opts.MaxResults - m.Published()
		if limit <= 0 {
			return nil, nil
		}
	}

	ciks := make(map[string][]string)
	for _, e := range entries {
		key := e.Key()
		if key == "" || e.CIK == "" || slices.Contains(ciks[key], e.CIK) {
			continue
		}
		ciks[key] = append(ciks[key], e.CIK)
	}

	var dir *sec.Directory
	if len(m.opts.Exchanges) > 0 {
		d, err := m.src.Companies(ctx)
		if err != nil {
			m.recordError(metrics.StageDirectory)
			return nil, err
		}
		dir = d
	}

	var out []Candidate
	for _, e := range sec.Dedupe(entries) {
		if limit > 0 && len(out) >= limit {
			break
		}
		key := e.Key()
		if m.seen.Contains(key) {
			m.recordSkipped(SkipSeen)
			continue
		}
		m.seen.Set(key, struct{}{})

		if !m.formAllowed(e.FormType) {
			m.recordSkipped(SkipForm)
			continue
		}

		c := Candidate{Entry: e, CIKs: primaryFirst(e.CIK, ciks[key])}
		if dir != nil {
			var listed []models.CompanyProfile
			for _, cik := range c.CIKs {
				if p, ok := dir.Lookup(cik); ok && p.ListedOn(m.opts.Exchanges) {
					listed = append(listed, p)
				}
			}
			if len(listed) == 0 {
				m.log.Debug().Str("accession", key).Strs("exchanges", m.opts.Exchanges).Msg("skipping: no company on target exchanges")
				m.recordSkipped(SkipExchange)
				continue
			}
			merged := MergeProfiles(listed)
			c.Company = &merged
		}
		out = append(out, c)
	}
	return out, nil
}

func (m *Monitor) formAllowed(form string) bool {
	if len(m.opts.Forms) == 0 {
		return true
	}
	return slices.ContainsFunc(m.opts.Forms, func(f string) bool {
		return strings.EqualFold(strings.TrimSpace(f), strings.TrimSpace(form))
	})
}

func primaryFirst(primary string, all []string) []string {
	if primary == "" {
		return all
	}
	out := []string{primary}
	for _, c := range all {
		if c != primary {
			out = append(out, c)
		}
	}
	return out
}

// process fetches, analyzes and publishes one candidate. It reports whether
// the filing was published.
func (m *Monitor) process(ctx context.Context, c Candidate) bool {
	acc := c.Entry.Accession
	log := m.log.With().Str("accession", acc).Str("form", c.Entry.FormType).Logger()
	if acc == "" {
		log.Debug().Str("title", c.Entry.Title).Msg("skipping entry without accession number")
		return false
	}
	if len(c.CIKs) == 0 {
		log.Debug().Msg("skipping entry without CIK")
		return false
	}

	start := time.Now()
	event, err := m.src.Event(ctx, c.CIKs[0], acc, c.Company)
	if err != nil {
		log.Warn().Err(err).Msg("fetch failed")
		m.recordError(metrics.StageFetch)
		return false
	}
	if event.SubmissionType == "" {
		event.SubmissionType = c.Entry.FormType
	}
	if event.FilingDate == "" {
		event.FilingDate = c.Entry.Filed
	}

	result := m.analyzer.Analyze(event)
	if m.opts.Metrics != nil {
		m.opts.Metrics.ObserveDuration("analyze", start)
		m.opts.Metrics.RecordAnalyzed(event.SubmissionType, string(result.Sentiment))
	}

	if err := m.reporter.Publish(ctx, event, result); err != nil {
		log.Warn().Err(err).Msg("publish failed")
		m.recordError(metrics.StagePublish)
		return false
	}
	return true
}

func (m *Monitor) recordError(stage string) {
	if m.opts.Metrics != nil {
		m.opts.Metrics.RecordError(stage)
	}
}

func (m *Monitor) recordSkipped(reason string) {
	if m.opts.Metrics != nil {
		m.opts.Metrics.RecordSkipped(reason)
	}
}

// MergeProfiles combines the profiles of every listed party to one filing.
// The first profile supplies CIK and name; tickers and exchanges are the
// sorted union.
func MergeProfiles(profiles []models.CompanyProfile) models.CompanyProfile {
	if len(profiles) == 0 {
		return models.CompanyProfile{}
	}
	primary := profiles[0]
	if len(profiles) == 1 {
		return primary
	}
	var tickers, exchanges []string
	for _, p := range profiles {
		tickers = append(tickers, p.Tickers...)
		exchanges = append(exchanges, p.Exchanges...)
	}
	slices.Sort(tickers)
	slices.Sort(exchanges)
	return models.CompanyProfile{
		CIK:       primary.CIK,
		Name:      primary.Name,
		Tickers:   slices.Compact(tickers),
		Exchanges: slices.Compact(exchanges),
	}
}
