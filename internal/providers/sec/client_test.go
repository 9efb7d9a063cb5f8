package sec

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleFeed = `<?xml version="1.0" encoding="ISO-8859-1" ?>
<feed xmlns="http://www.w3.org/2005/Atom">
<title>Latest Filings - Thu, 30 Jan 2025 16:45:02 EST</title>
<id>https://www.sec.gov/cgi-bin/browse-edgar?action=getcurrent</id>
<updated>2025-01-30T16:45:02-05:00</updated>
<entry>
<title>4 - Cook Timothy D (0001214156) (Reporting)</title>
<link rel="alternate" type="text/html" href="/Archives/edgar/data/1214156/000032019325000012/0000320193-25-000012-index.htm"/>
<summary type="html"> &lt;b&gt;Filed:&lt;/b&gt; 2025-01-30 &lt;b&gt;AccNo:&lt;/b&gt; 0000320193-25-000012 &lt;b&gt;Size:&lt;/b&gt; 9 KB</summary>
<updated>2025-01-30T16:40:10-05:00</updated>
<category scheme="https://www.sec.gov/" label="form type" term="4"/>
<id>urn:tag:sec.gov,2008:accession-number=0000320193-25-000012</id>
</entry>
<entry>
<title>4 - Apple Inc. (0000320193) (Issuer)</title>
<link rel="alternate" type="text/html" href="https://www.sec.gov/Archives/edgar/data/320193/000032019325000012/0000320193-25-000012-index.htm"/>
<summary type="html"> &lt;b&gt;Filed:&lt;/b&gt; 2025-01-30 &lt;b&gt;AccNo:&lt;/b&gt; 0000320193-25-000012 &lt;b&gt;Size:&lt;/b&gt; 9 KB</summary>
<updated>2025-01-30T16:40:10-05:00</updated>
<category scheme="https://www.sec.gov/" label="form type" term="4"/>
<id>urn:tag:sec.gov,2008:accession-number=0000320193-25-000012</id>
</entry>
<entry>
<title>8-K - Apple Inc. (0000320193) (Filer)</title>
<link rel="alternate" type="text/html" href="https://www.sec.gov/Archives/edgar/data/320193/000032019325000010/0000320193-25-000010-index.htm"/>
<summary type="html">no structured summary</summary>
<updated>2025-01-30T16:30:12-05:00</updated>
<category scheme="https://www.sec.gov/" label="form type" term="8-K"/>
<id>urn:tag:sec.gov,2008:accession-number=0000320193-25-000010</id>
</entry>
</feed>`

func newTestClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	return New(Options{
		UserAgent:   "FilingSense Test test@example.org",
		MaxRetries:  2,
		Backoff:     time.Millisecond,
		BackoffCap:  2 * time.Millisecond,
		ArchivesURL: srv.URL + "/Archives/edgar/data",
		FeedURL:     srv.URL + "/cgi-bin/browse-edgar",
		TickersURL:  srv.URL + "/files/company_tickers_exchange.json",
	})
}

func TestSubmissionURL(t *testing.T) {
	c := New(Options{})
	u, err := c.SubmissionURL("0000320193", "000032019325000010")
	require.NoError(t, err)
	assert.Equal(t, "https://www.sec.gov/Archives/edgar/data/320193/000032019325000010/0000320193-25-000010.txt", u)

	_, err = c.SubmissionURL("320193", "bad")
	assert.Error(t, err)
	_, err = c.SubmissionURL("", "0000320193-25-000010")
	assert.Error(t, err)
}

func TestClientSubmission(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		if r.URL.Path != "/Archives/edgar/data/320193/000032019325000010/0000320193-25-000010.txt" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(sampleSubmission))
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	ev, err := c.Event(context.Background(), "320193", "0000320193-25-000010", nil)
	require.NoError(t, err)
	assert.Equal(t, "FilingSense Test test@example.org", gotUA)
	assert.Equal(t, "8-K", ev.SubmissionType)
	assert.Len(t, ev.Documents, 3)
	assert.False(t, ev.ReceivedAt.IsZero())

	_, err = c.Submission(context.Background(), "999", "0000320193-25-000010")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestClientSubmissionRateLimited(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	_, err := c.Submission(context.Background(), "320193", "0000320193-25-000010")
	assert.True(t, errors.Is(err, ErrRateLimited))
	assert.Equal(t, int32(2), calls.Load())
}

func TestLatestParsesEntries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "getcurrent", r.URL.Query().Get("action"))
		assert.Equal(t, "atom", r.URL.Query().Get("output"))
		assert.Equal(t, "include", r.URL.Query().Get("owner"))
		assert.Equal(t, "40", r.URL.Query().Get("count"))
		w.Header().Set("Content-Type", "application/atom+xml")
		_, _ = w.Write([]byte(sampleFeed))
	}))
	defer srv.Close()

	entries, err := newTestClient(t, srv).Latest(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 3)

	owner := entries[0]
	assert.Equal(t, "4", owner.FormType)
	assert.Equal(t, "Cook Timothy D", owner.Company)
	assert.Equal(t, "1214156", owner.CIK)
	assert.Equal(t, "Reporting", owner.Role)
	assert.Equal(t, "2025-01-30", owner.Filed)
	assert.Equal(t, "0000320193-25-000012", owner.Accession)
	assert.Equal(t, "9 KB", owner.Size)
	assert.Equal(t, "https://www.sec.gov/Archives/edgar/data/1214156/000032019325000012/0000320193-25-000012-index.htm", owner.URL)
	assert.Equal(t, "Thu 01/30/2025 - 4:40pm", owner.Release)
	assert.False(t, owner.Updated.IsZero())

	eightK := entries[2]
	assert.Equal(t, "8-K", eightK.FormType)
	assert.Equal(t, "Filer", eightK.Role)
	assert.Empty(t, eightK.Filed)
	assert.Equal(t, "0000320193-25-000010", eightK.Accession, "falls back to the link")
}

func TestLatestConditionalGet(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) > 1 {
			assert.Equal(t, `"v1"`, r.Header.Get("If-None-Match"))
			assert.Equal(t, "Thu, 30 Jan 2025 21:45:02 GMT", r.Header.Get("If-Modified-Since"))
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"v1"`)
		w.Header().Set("Last-Modified", "Thu, 30 Jan 2025 21:45:02 GMT")
		_, _ = w.Write([]byte(sampleFeed))
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	_, err := c.Latest(context.Background())
	require.NoError(t, err)

	entries, err := c.Latest(context.Background())
	assert.ErrorIs(t, err, ErrNotModified)
	assert.Empty(t, entries)
}

func TestLatestRejectsGarbage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("this is not a feed"))
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv).Latest(context.Background())
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "parse latest filings feed"))
}

func TestDedupe(t *testing.T) {
	entries := []FeedEntry{
		{Accession: "0000000001-25-000001", Role: "Reporting"},
		{Accession: "0000000001-25-000001", Role: "Issuer"},
		{Accession: "0000000002-25-000002", Role: "Filed by"},
		{Accession: "0000000002-25-000002", Role: "Subject"},
		{Accession: "0000000003-25-000003", Role: "Filer", Company: "first"},
		{Accession: "0000000003-25-000003", Role: "Filer", Company: "second"},
		{ID: "urn:no-accession"},
		{},
	}
	got := Dedupe(entries)
	require.Len(t, got, 4)

	assert.Equal(t, "urn:no-accession", got[0].Key(), "oldest first")
	assert.Equal(t, "first", got[1].Company, "ties keep the first entry")
	assert.Equal(t, "Subject", got[2].Role)
	assert.Equal(t, "Reporting", got[3].Role)
}

func TestPriority(t *testing.T) {
	assert.Equal(t, 0, FeedEntry{Role: "Subject"}.Priority())
	assert.Equal(t, 1, FeedEntry{Role: "Filed by"}.Priority())
	assert.Equal(t, 2, FeedEntry{Role: "Reporting"}.Priority())
	assert.Equal(t, 2, FeedEntry{}.Priority())
}
