package sec

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/seenimoa/filingsense/pkg/models"
	"github.com/seenimoa/filingsense/pkg/utils"
)

const directoryCacheKey = "company_tickers_exchange"

// Directory maps CIKs to listed-company profiles.
type Directory struct {
	byCIK map[string]*models.CompanyProfile
}

// tickersExchangeFile is the shape of company_tickers_exchange.json:
// {"fields": ["cik","name","ticker","exchange"], "data": [[320193,"Apple Inc.","AAPL","Nasdaq"], ...]}
type tickersExchangeFile struct {
	Fields []string            `json:"fields"`
	Data   [][]json.RawMessage `json:"data"`
}

// NewDirectory builds a directory from profiles. Profiles sharing a CIK are
// merged.
func NewDirectory(profiles ...models.CompanyProfile) *Directory {
	d := &Directory{byCIK: make(map[string]*models.CompanyProfile, len(profiles))}
	for _, p := range profiles {
		for _, t := range p.Tickers {
			d.add(p.CIK, p.Name, t, "")
		}
		for _, x := range p.Exchanges {
			d.add(p.CIK, p.Name, "", x)
		}
		if len(p.Tickers) == 0 && len(p.Exchanges) == 0 {
			d.add(p.CIK, p.Name, "", "")
		}
	}
	return d
}

// ParseDirectory decodes company_tickers_exchange.json.
func ParseDirectory(raw []byte) (*Directory, error) {
	var file tickersExchangeFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("decode company tickers: %w", err)
	}
	idx := map[string]int{"cik": -1, "name": -1, "ticker": -1, "exchange": -1}
	for i, f := range file.Fields {
		if _, ok := idx[strings.ToLower(f)]; ok {
			idx[strings.ToLower(f)] = i
		}
	}
	if idx["cik"] < 0 {
		return nil, fmt.Errorf("decode company tickers: no cik field in %v", file.Fields)
	}

	d := &Directory{byCIK: make(map[string]*models.CompanyProfile, len(file.Data))}
	for _, row := range file.Data {
		d.add(cell(row, idx["cik"]), cell(row, idx["name"]), cell(row, idx["ticker"]), cell(row, idx["exchange"]))
	}
	return d, nil
}

func cell(row []json.RawMessage, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	var s string
	if err := json.Unmarshal(row[i], &s); err == nil {
		return strings.TrimSpace(s)
	}
	var n json.Number
	if err := json.Unmarshal(row[i], &n); err == nil {
		return n.String()
	}
	return ""
}

func (d *Directory) add(cik, name, ticker, exchange string) {
	cik = utils.NormalizeCIK(cik)
	if cik == "" {
		return
	}
	p, ok := d.byCIK[cik]
	if !ok {
		p = &models.CompanyProfile{CIK: cik}
		d.byCIK[cik] = p
	}
	if p.Name == "" {
		p.Name = strings.TrimSpace(name)
	}
	if ticker = strings.ToUpper(strings.TrimSpace(ticker)); ticker != "" && !slices.Contains(p.Tickers, ticker) {
		p.Tickers = append(p.Tickers, ticker)
	}
	if exchange = strings.TrimSpace(exchange); exchange != "" && !slices.ContainsFunc(p.Exchanges, func(x string) bool {
		return strings.EqualFold(x, exchange)
	}) {
		p.Exchanges = append(p.Exchanges, exchange)
	}
}

// Lookup returns a copy of the profile for cik.
func (d *Directory) Lookup(cik string) (models.CompanyProfile, bool) {
	if d == nil {
		return models.CompanyProfile{}, false
	}
	p, ok := d.byCIK[utils.NormalizeCIK(cik)]
	if !ok {
		return models.CompanyProfile{}, false
	}
	out := *p
	out.Tickers = slices.Clone(p.Tickers)
	out.Exchanges = slices.Clone(p.Exchanges)
	return out, true
}

// Len returns the number of companies.
func (d *Directory) Len() int {
	if d == nil {
		return 0
	}
	return len(d.byCIK)
}

// Companies returns the company directory, downloading it at most once per
// DirectoryTTL.
func (c *Client) Companies(ctx context.Context) (*Directory, error) {
	if d, ok := c.directory.Get(directoryCacheKey); ok {
		return d, nil
	}
	resp, err := c.http.Get(ctx, c.opts.TickersURL, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch company tickers: %w", err)
	}
	d, err := ParseDirectory(resp.Body)
	if err != nil {
		return nil, err
	}
	c.directory.Set(directoryCacheKey, d)
	c.log.Info().Int("companies", d.Len()).Msg("company directory loaded")
	return d, nil
}

// CIKFor resolves a ticker symbol to its CIK. Numeric input is returned
// normalized.
func (d *Directory) CIKFor(symbol string) (string, bool) {
	sym := strings.ToUpper(strings.TrimSpace(symbol))
	if _, err := strconv.ParseUint(sym, 10, 64); err == nil {
		return utils.NormalizeCIK(sym), true
	}
	if d == nil {
		return "", false
	}
	for cik, p := range d.byCIK {
		if slices.Contains(p.Tickers, sym) {
			return cik, true
		}
	}
	return "", false
}
