// Package sec is the EDGAR client used by the monitor and the CLI.
// It downloads full submission text files, reads the "latest filings"
// Atom feed and loads the company ticker/exchange directory.
//
// No API key required. Every request carries a descriptive User-Agent per
// SEC fair-access policy; EDGAR allows 10 requests/second per user agent.
package sec

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/rs/zerolog"

	"github.com/seenimoa/filingsense/internal/infra"
	"github.com/seenimoa/filingsense/pkg/models"
	"github.com/seenimoa/filingsense/pkg/utils"
)

const (
	// EDGAR endpoints.
	ArchivesURL = "https://www.sec.gov/Archives/edgar/data"
	FeedURL     = "https://www.sec.gov/cgi-bin/browse-edgar"
	TickersURL  = "https://www.sec.gov/files/company_tickers_exchange.json"

	secBaseURL = "https://www.sec.gov"
)

var (
	ErrRateLimited = infra.ErrRateLimited
	ErrNotFound    = infra.ErrNotFound
)

// Options configures a Client. Zero values fall back to EDGAR defaults.
type Options struct {
	UserAgent         string
	FeedCount         int
	FeedOwner         string
	RequestsPerSecond int
	Timeout           time.Duration
	MaxRetries        int
	Backoff           time.Duration
	BackoffCap        time.Duration
	DirectoryTTL      time.Duration
	Logger            zerolog.Logger
	Transport         http.RoundTripper

	// Endpoint overrides, used by tests.
	ArchivesURL string
	FeedURL     string
	TickersURL  string
}

// Client talks to EDGAR.
type Client struct {
	http   *infra.HTTPClient
	parser *gofeed.Parser
	opts   Options
	log    zerolog.Logger

	directory *infra.Cache[*Directory]

	// Conditional GET validators for the feed.
	mu           sync.Mutex
	etag         string
	lastModified string
}

// New creates a Client.
func New(opts Options) *Client {
	if opts.FeedCount <= 0 {
		opts.FeedCount = 40
	}
	if opts.FeedOwner == "" {
		opts.FeedOwner = "include"
	}
	if opts.DirectoryTTL <= 0 {
		opts.DirectoryTTL = 6 * time.Hour
	}
	if opts.ArchivesURL == "" {
		opts.ArchivesURL = ArchivesURL
	}
	if opts.FeedURL == "" {
		opts.FeedURL = FeedURL
	}
	if opts.TickersURL == "" {
		opts.TickersURL = TickersURL
	}
	log := opts.Logger.With().Str("component", "sec").Logger()
	return &Client{
		http: infra.NewHTTPClient(infra.HTTPOptions{
			UserAgent:         opts.UserAgent,
			Timeout:           opts.Timeout,
			RequestsPerSecond: opts.RequestsPerSecond,
			MaxRetries:        opts.MaxRetries,
			Backoff:           opts.Backoff,
			BackoffCap:        opts.BackoffCap,
			Logger:            log,
			Transport:         opts.Transport,
		}),
		parser:    gofeed.NewParser(),
		opts:      opts,
		log:       log,
		directory: infra.NewCache[*Directory](opts.DirectoryTTL),
	}
}

// SubmissionURL returns the URL of the full submission text file.
func (c *Client) SubmissionURL(cik, accession string) (string, error) {
	acc, err := utils.FormatAccession(accession)
	if err != nil {
		return "", err
	}
	nc := utils.NormalizeCIK(cik)
	if nc == "" {
		return "", fmt.Errorf("invalid CIK %q", cik)
	}
	return fmt.Sprintf("%s/%s/%s/%s.txt", c.opts.ArchivesURL, nc, utils.AccessionNoDashes(acc), acc), nil
}

// Submission downloads and parses one full submission.
func (c *Client) Submission(ctx context.Context, cik, accession string) (*Submission, error) {
	u, err := c.SubmissionURL(cik, accession)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Get(ctx, u, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch submission %s: %w", accession, err)
	}
	sub := ParseSubmission(resp.Body)
	c.log.Debug().Str("accession", accession).Int("documents", len(sub.Documents)).Msg("submission fetched")
	return sub, nil
}

// Event downloads a submission and assembles the FilingEvent for it.
// company may be nil.
func (c *Client) Event(ctx context.Context, cik, accession string, company *models.CompanyProfile) (models.FilingEvent, error) {
	sub, err := c.Submission(ctx, cik, accession)
	if err != nil {
		return models.FilingEvent{}, err
	}
	acc, _ := utils.FormatAccession(accession)
	return sub.Event(cik, acc, company, time.Now().UTC()), nil
}
