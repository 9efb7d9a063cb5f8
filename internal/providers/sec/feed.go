package sec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
	"golang.org/x/net/html"

	"github.com/seenimoa/filingsense/pkg/utils"
)

// ErrNotModified is returned by Latest when the feed has not changed since
// the previous request.
var ErrNotModified = errors.New("feed not modified")

var (
	summaryRe = regexp.MustCompile(`(?is)Filed:\s*(\d{4}-\d{2}-\d{2}).*?AccNo:\s*(\d{10}-\d{2}-\d{6})`)
	sizeRe    = regexp.MustCompile(`(?i)Size:\s*([\w\s]+)`)
	parenRe   = regexp.MustCompile(`\(([^)]+)\)`)
)

// FeedEntry is one entry of the EDGAR "latest filings" feed. The same
// accession appears once per party (issuer, reporting owner, ...).
type FeedEntry struct {
	ID        string    `json:"id,omitempty"`
	Title     string    `json:"title"`
	Accession string    `json:"accession,omitempty"`
	CIK       string    `json:"cik,omitempty"`
	FormType  string    `json:"form_type,omitempty"`
	Company   string    `json:"company,omitempty"`
	Role      string    `json:"role,omitempty"`
	Filed     string    `json:"filed,omitempty"`
	Size      string    `json:"size,omitempty"`
	Updated   time.Time `json:"updated,omitzero"`
	Release   string    `json:"release,omitempty"`
	URL       string    `json:"url,omitempty"`
}

// Key identifies the filing behind the entry: the accession number, or the
// entry id when no accession could be found.
func (e FeedEntry) Key() string {
	if e.Accession != "" {
		return e.Accession
	}
	return e.ID
}

// Priority ranks the party an entry describes. Lower wins when the same
// accession is listed for several parties.
func (e FeedEntry) Priority() int {
	role := strings.ToLower(e.Role)
	switch {
	case strings.Contains(role, "subject"):
		return 0
	case strings.Contains(role, "filed"):
		return 1
	default:
		return 2
	}
}

// FeedRequestURL returns the latest-filings Atom feed URL.
func (c *Client) FeedRequestURL() string {
	q := url.Values{}
	q.Set("action", "getcurrent")
	q.Set("owner", c.opts.FeedOwner)
	q.Set("count", strconv.Itoa(max(1, c.opts.FeedCount)))
	q.Set("output", "atom")
	return c.opts.FeedURL + "?" + q.Encode()
}

// Latest fetches the latest-filings feed in feed order (newest first).
// It sends the validators of the previous response and returns
// ErrNotModified on a 304.
func (c *Client) Latest(ctx context.Context) ([]FeedEntry, error) {
	header := http.Header{}
	header.Set("Accept", "application/atom+xml,application/xml")
	c.mu.Lock()
	if c.etag != "" {
		header.Set("If-None-Match", c.etag)
	}
	if c.lastModified != "" {
		header.Set("If-Modified-Since", c.lastModified)
	}
	c.mu.Unlock()

	resp, err := c.http.Get(ctx, c.FeedRequestURL(), header)
	if err != nil {
		return nil, fmt.Errorf("fetch latest filings: %w", err)
	}
	if resp.StatusCode == http.StatusNotModified {
		c.log.Debug().Msg("feed not modified")
		return nil, ErrNotModified
	}

	c.mu.Lock()
	c.etag = resp.Header.Get("ETag")
	c.lastModified = resp.Header.Get("Last-Modified")
	c.mu.Unlock()

	entries, err := c.parseFeed(resp.Body)
	if err != nil {
		return nil, err
	}
	c.log.Debug().Int("entries", len(entries)).Msg("feed fetched")
	return entries, nil
}

func (c *Client) parseFeed(body []byte) ([]FeedEntry, error) {
	feed, err := c.parser.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse latest filings feed: %w", err)
	}
	entries := make([]FeedEntry, 0, len(feed.Items))
	for _, item := range feed.Items {
		entries = append(entries, entryFromItem(item))
	}
	return entries, nil
}

func entryFromItem(item *gofeed.Item) FeedEntry {
	e := FeedEntry{
		ID:      item.GUID,
		Title:   strings.TrimSpace(item.Title),
		Release: utils.FormatRelease(item.Updated),
	}
	if item.UpdatedParsed != nil {
		e.Updated = *item.UpdatedParsed
	}
	if item.Link != "" {
		e.URL = absoluteURL(item.Link)
	}

	subject := e.Title
	if form, rest, ok := strings.Cut(e.Title, " - "); ok {
		e.FormType = strings.TrimSpace(form)
		subject = strings.TrimSpace(rest)
	}
	if len(item.Categories) > 0 && strings.TrimSpace(item.Categories[0]) != "" {
		e.FormType = strings.TrimSpace(item.Categories[0])
	}
	company, _, _ := strings.Cut(subject, "(")
	e.Company = strings.TrimSpace(company)
	if parens := parenRe.FindAllStringSubmatch(subject, -1); len(parens) > 0 {
		e.CIK = utils.NormalizeCIK(parens[0][1])
		if len(parens) > 1 {
			e.Role = strings.TrimSpace(parens[1][1])
		}
	}

	summary := strings.ReplaceAll(summaryText(item.Description), "\u00a0", " ")
	if m := summaryRe.FindStringSubmatch(summary); m != nil {
		e.Filed, e.Accession = m[1], m[2]
		if s := sizeRe.FindStringSubmatch(summary[len(m[0]):]); s != nil {
			e.Size = strings.TrimSpace(s[1])
		}
	}
	if e.Accession == "" {
		e.Accession = utils.FindAccession(e.URL, e.ID, e.Title)
	}
	return e
}

// summaryText flattens the HTML summary into its text nodes joined by
// single spaces.
func summaryText(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<body>" + s + "</body>"))
	if err != nil {
		return s
	}
	var parts []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				parts = append(parts, t)
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	for _, n := range doc.Find("body").Nodes {
		walk(n)
	}
	return strings.Join(parts, " ")
}

func absoluteURL(href string) string {
	base, _ := url.Parse(secBaseURL)
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}

// Dedupe collapses entries that share an accession, keeping the entry with
// the best Priority (first seen on ties), and returns them oldest first.
// Entries with neither accession nor id are dropped.
func Dedupe(entries []FeedEntry) []FeedEntry {
	best := make(map[string]FeedEntry, len(entries))
	var order []string
	for _, e := range entries {
		key := e.Key()
		if key == "" {
			continue
		}
		cur, ok := best[key]
		if !ok {
			order = append(order, key)
			best[key] = e
			continue
		}
		if e.Priority() < cur.Priority() {
			best[key] = e
		}
	}
	out := make([]FeedEntry, 0, len(order))
	for i := len(order) - 1; i >= 0; i-- {
		out = append(out, best[order[i]])
	}
	return out
}
