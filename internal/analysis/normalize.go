package analysis

import (
	"math"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/KaramelBytes/salesloom-cli/internal/sales"
)

const (
	capQuantile   = 0.99
	capMultiplier = 3.0
)

var nullTokens = map[string]struct{}{
	"":        {},
	"nan":     {},
	"null":    {},
	"none":    {},
	"n/a":     {},
	"na":      {},
	"unknown": {},
}

var currencyTokens = []string{"usd", "eur", "gbp", "$", "€", "£", "¥", "₹"}

// ParseNumber parses a messy numeric cell such as "$1,234.50", "1.234,50 €",
// "(42)" or "12%". Decimal and thousands separators are inferred per value.
func ParseNumber(s string) (float64, bool) {
	raw := strings.ToLower(strings.TrimSpace(s))
	if raw == "" {
		return 0, false
	}
	neg := false
	if strings.HasPrefix(raw, "(") && strings.HasSuffix(raw, ")") {
		neg = true
		raw = raw[1 : len(raw)-1]
	}
	for _, tok := range currencyTokens {
		raw = strings.ReplaceAll(raw, tok, "")
	}
	raw = strings.NewReplacer("%", "", " ", "", "\u00a0", "", "'", "").Replace(raw)
	if raw == "" {
		return 0, false
	}

	cpos := strings.LastIndex(raw, ",")
	dpos := strings.LastIndex(raw, ".")
	switch {
	case cpos >= 0 && dpos >= 0:
		if cpos > dpos {
			raw = strings.ReplaceAll(raw, ".", "")
			raw = strings.Replace(raw, ",", ".", 1)
		} else {
			raw = strings.ReplaceAll(raw, ",", "")
		}
	case cpos >= 0:
		// A lone comma followed by exactly three digits groups thousands.
		if strings.Count(raw, ",") > 1 || (cpos > 0 && len(raw)-cpos-1 == 3 && allDigits(raw[cpos+1:])) {
			raw = strings.ReplaceAll(raw, ",", "")
		} else {
			raw = strings.Replace(raw, ",", ".", 1)
		}
	case dpos >= 0:
		if strings.Count(raw, ".") > 1 {
			raw = strings.ReplaceAll(raw, ".", "")
		}
	}

	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	if neg {
		f = -f
	}
	return f, true
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

// CleanCategory trims, collapses whitespace and title-cases v. Null-like tokens
// become sales.Unknown.
func CleanCategory(v string) string {
	v = strings.Join(strings.Fields(v), " ")
	if _, ok := nullTokens[strings.ToLower(v)]; ok {
		return sales.Unknown
	}
	return cases.Title(language.Und).String(v)
}

// NormalizeStats counts what the normalizer had to repair.
type NormalizeStats struct {
	Rows              int     `json:"rows"`
	DateColumn        string  `json:"date_column,omitempty"`
	DateLayout        string  `json:"date_layout,omitempty"`
	DatesParsed       int     `json:"dates_parsed"`
	AmountsDefaulted  int     `json:"amounts_defaulted"`
	AmountsClamped    int     `json:"amounts_clamped"`
	QuantityDefaulted int     `json:"quantity_defaulted"`
	OutliersCapped    int     `json:"outliers_capped"`
	AmountP99         float64 `json:"amount_p99"`
}

// Normalized holds typed rows in table order.
type Normalized struct {
	Records []sales.Record
	Stats   NormalizeStats
}

// Normalize converts every row of t into a sales.Record. It never fails on cell
// content; bad cells fall back to field defaults.
func Normalize(t *RawTable, m Mapping) *Normalized {
	n := &Normalized{Records: make([]sales.Record, t.Len())}
	n.Stats.Rows = t.Len()

	var dates []*time.Time
	if det, ok := DetectDateColumn(t, m.DateCandidates); ok {
		dates = det.Values
		n.Stats.DateColumn = det.Column
		n.Stats.DateLayout = det.Layout
		n.Stats.DatesParsed = det.Parsed
	}

	var parsed []float64
	parsedIdx := make([]bool, t.Len())
	for i, row := range t.Rows {
		rec := sales.NewRecord()
		if dates != nil {
			rec.OccurredOn = dates[i]
		}
		if h, ok := m.Columns[FieldAmount]; ok {
			if v, ok := ParseNumber(row[h]); ok {
				if v < 0 {
					v = 0
					n.Stats.AmountsClamped++
				}
				rec.Amount = v
				parsed = append(parsed, v)
				parsedIdx[i] = true
			} else {
				n.Stats.AmountsDefaulted++
			}
		}
		if h, ok := m.Columns[FieldQuantity]; ok {
			q, ok := parseQuantity(row[h])
			if !ok {
				n.Stats.QuantityDefaulted++
			}
			rec.Quantity = q
		}
		if h, ok := m.Columns[FieldProduct]; ok {
			rec.Product = CleanCategory(row[h])
		}
		if h, ok := m.Columns[FieldCategory]; ok {
			rec.Category = CleanCategory(row[h])
		}
		if h, ok := m.Columns[FieldRegion]; ok {
			rec.Region = CleanCategory(row[h])
		}
		n.Records[i] = rec
	}

	if len(parsed) >= 2 {
		p99 := Percentile(parsed, capQuantile)
		n.Stats.AmountP99 = p99
		if p99 > 0 {
			limit := capMultiplier * p99
			for i := range n.Records {
				if parsedIdx[i] && n.Records[i].Amount > limit {
					n.Records[i].Amount = p99
					n.Stats.OutliersCapped++
				}
			}
		}
	}
	return n
}

// parseQuantity truncates toward zero. Missing, unparseable or negative counts
// become 1 and report ok=false.
func parseQuantity(s string) (int, bool) {
	v, ok := ParseNumber(s)
	if !ok || v < 0 || v > math.MaxInt32 {
		return 1, false
	}
	return int(math.Trunc(v)), true
}
