// Package insider interprets Form 4 ownership XML into a verdict on
// whether the filing reports notable open-market insider trading.
package insider

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"golang.org/x/net/html/charset"

	"github.com/seenimoa/filingsense/pkg/utils"
)

// Verdict summaries with fixed wording.
const (
	SummaryUnparseable   = "Could not parse Form 4 XML."
	SummaryPlanTrade     = "Trade executed under a Rule 10b5-1 plan."
	SummaryNoOpenMarket  = "No open-market common stock transactions detected."
	transactionSeparator = " | "
)

var (
	// openMarketCodes are the transaction codes for ordinary purchases and
	// sales. Grants, gifts, exercises and the like are never included.
	openMarketCodes = map[string]bool{"P": true, "S": true}

	excludedTitleTokens = []string{"option", "warrant", "unit", "right", "rsu", "restricted"}

	planIndicators = []string{"10b5-1", "10b5-1 plan", "rule 10b5-1"}
)

// ---- Form 4 XML layout ----

type valueField struct {
	Value string `xml:"value"`
}

type nonDerivativeTransaction struct {
	SecurityTitle valueField `xml:"securityTitle"`
	Coding        struct {
		Code string `xml:"transactionCode"`
	} `xml:"transactionCoding"`
	Amounts struct {
		Shares           valueField `xml:"transactionShares"`
		PricePerShare    valueField `xml:"transactionPricePerShare"`
		AcquiredDisposed valueField `xml:"transactionAcquiredDisposedCode"`
	} `xml:"transactionAmounts"`
	PostAmounts struct {
		SharesOwnedFollowing valueField `xml:"sharesOwnedFollowingTransaction"`
	} `xml:"postTransactionAmounts"`
}

type ownershipDocument struct {
	PlanFlag     string
	PlanFlagSeen bool
	Transactions []nonDerivativeTransaction
}

// Trade is one open-market common stock transaction that survived
// filtering.
type Trade struct {
	SecurityTitle string
	Code          string
	Purchase      bool
	Shares        float64
	Price         *float64
	StakeChange   *float64
}

// Action is "purchased" or "sold".
func (t Trade) Action() string {
	if t.Purchase {
		return "purchased"
	}
	return "sold"
}

// String renders the trade, e.g.
// "Insider purchased 1,000 shares at $10.50 (stake change of +25.0%)".
func (t Trade) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Insider %s %s shares", t.Action(), utils.FormatShares(t.Shares))
	if t.Price != nil {
		b.WriteString(" at " + utils.FormatPrice(*t.Price))
	}
	if t.StakeChange != nil {
		b.WriteString(" (stake change of " + utils.FormatPercentChange(*t.StakeChange) + ")")
	}
	return b.String()
}

// Verdict is the interpretation of one ownership document. Notable is nil
// only when the XML could not be parsed, in which case Err says why.
type Verdict struct {
	Notable *bool
	Summary string
	Trades  []Trade
	Err     error
}

func verdict(notable bool, summary string, trades []Trade) Verdict {
	return Verdict{Notable: &notable, Summary: summary, Trades: trades}
}

// Interpret reads a Form 4 XML document. A 10b5-1 plan marker makes the
// filing non-notable regardless of its transactions: either the first
// aff10b5One element is "1" or, since the schema types it xsd:boolean,
// "true", or the document text mentions a 10b5-1 plan. Otherwise each
// non-derivative P or S transaction in common stock is described and the
// filing is notable if any remain.
func Interpret(content []byte) Verdict {
	doc, err := parseOwnership(content)
	if err != nil {
		return Verdict{Summary: SummaryUnparseable, Err: err}
	}

	flag := strings.TrimSpace(doc.PlanFlag)
	if flag == "1" || strings.EqualFold(flag, "true") || mentionsPlan(content) {
		return verdict(false, SummaryPlanTrade, nil)
	}

	var trades []Trade
	for _, tx := range doc.Transactions {
		if trade, ok := interpretTransaction(tx); ok {
			trades = append(trades, trade)
		}
	}
	if len(trades) == 0 {
		return verdict(false, SummaryNoOpenMarket, nil)
	}

	parts := make([]string, len(trades))
	for i, t := range trades {
		parts[i] = t.String()
	}
	return verdict(true, strings.Join(parts, transactionSeparator), trades)
}

func mentionsPlan(content []byte) bool {
	lower := strings.ToLower(strings.ToValidUTF8(string(content), ""))
	for _, ind := range planIndicators {
		if strings.Contains(lower, ind) {
			return true
		}
	}
	return false
}

// parseOwnership walks the whole document so that any well-formedness error
// fails the parse, collecting the first aff10b5One value and every
// nonDerivativeTransaction at any depth.
func parseOwnership(content []byte) (*ownershipDocument, error) {
	dec := xml.NewDecoder(bytes.NewReader(content))
	dec.CharsetReader = charset.NewReaderLabel

	doc := &ownershipDocument{}
	depth, roots := 0, 0
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse form 4: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if depth == 0 {
				roots++
				if roots > 1 {
					return nil, errors.New("parse form 4: junk after document element")
				}
			}
			switch t.Name.Local {
			case "aff10b5One":
				var v struct {
					Text string `xml:",chardata"`
				}
				if err := dec.DecodeElement(&v, &t); err != nil {
					return nil, fmt.Errorf("parse form 4 aff10b5One: %w", err)
				}
				if !doc.PlanFlagSeen {
					doc.PlanFlag, doc.PlanFlagSeen = v.Text, true
				}
				continue
			case "nonDerivativeTransaction":
				var tx nonDerivativeTransaction
				if err := dec.DecodeElement(&tx, &t); err != nil {
					return nil, fmt.Errorf("parse form 4 transaction: %w", err)
				}
				doc.Transactions = append(doc.Transactions, tx)
				continue
			}
			depth++
		case xml.EndElement:
			depth--
		case xml.CharData:
			if depth == 0 && len(bytes.TrimSpace(t)) > 0 {
				return nil, errors.New("parse form 4: junk after document element")
			}
		}
	}
	if roots == 0 {
		return nil, errors.New("parse form 4: no element found")
	}
	return doc, nil
}

func interpretTransaction(tx nonDerivativeTransaction) (Trade, bool) {
	code := strings.ToUpper(strings.TrimSpace(tx.Coding.Code))
	if !openMarketCodes[code] {
		return Trade{}, false
	}

	title := strings.ToLower(strings.TrimSpace(tx.SecurityTitle.Value))
	for _, tok := range excludedTitleTokens {
		if strings.Contains(title, tok) {
			return Trade{}, false
		}
	}

	shares, ok := parseAmount(tx.Amounts.Shares.Value)
	if !ok || shares <= 0 {
		return Trade{}, false
	}

	trade := Trade{
		SecurityTitle: strings.TrimSpace(tx.SecurityTitle.Value),
		Code:          code,
		Shares:        shares,
		Purchase:      code == "P" || strings.EqualFold(strings.TrimSpace(tx.Amounts.AcquiredDisposed.Value), "A"),
	}
	if price, ok := parseAmount(tx.Amounts.PricePerShare.Value); ok {
		trade.Price = &price
	}

	if following, ok := parseAmount(tx.PostAmounts.SharesOwnedFollowing.Value); ok {
		prior := following + shares
		if trade.Purchase {
			prior = following - shares
		}
		if prior != 0 {
			change := (following - prior) / prior * 100
			trade.StakeChange = &change
		}
	}
	return trade, true
}

// parseAmount parses a numeric field, tolerating thousands separators.
func parseAmount(s string) (float64, bool) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
