package analysis

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/KaramelBytes/salesloom-cli/internal/sales"
)

// Explicit layouts tried, in order, for a date column. Day-first variants come
// after their month-first counterparts so US exports win on ambiguous input.
var dateLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	"02/01/2006",
	"2006/01/02",
	"02-01-2006",
	"01-02-2006",
	"02.01.2006",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"Jan 2, 2006",
	"2 Jan 2006",
	"January 2, 2006",
	"20060102",
}

// genericLayouts back the lenient fallback parser.
var genericLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05Z0700",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	"2006-1-2",
	"2006/1/2",
	"1/2/2006",
	"1/2/06",
	"01/02/06",
	"1-2-2006",
	"01-02-06",
	"2.1.2006",
	"1/2/2006 15:04",
	"1/2/2006 15:04:05",
	"01/02/2006 15:04:05",
	"02 Jan 2006",
	"2 January 2006",
	"Jan 2 2006",
	"January 2 2006",
	"Mon, 02 Jan 2006",
	"Monday, January 2, 2006",
	"Jan-2006",
	"January 2006",
	"2006-01",
	time.RFC1123,
	time.RFC1123Z,
	time.RFC822,
	time.ANSIC,
}

const (
	explicitDateThreshold = 0.8
	genericDateThreshold  = 0.5
)

// Excel stores dates as days since 1899-12-30. Only serials in this window are
// treated as dates (roughly 1954 through 2119).
var excelEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

const (
	minExcelSerial = 20000
	maxExcelSerial = 80000
)

// DateDetection describes how a column was interpreted as dates.
type DateDetection struct {
	Column string
	Layout string // "" when the generic parser was used
	Parsed int
	Values []*time.Time
}

// DetectDateColumn tries each candidate column in order and returns the first one
// whose values parse as dates. ok is false when no candidate qualifies.
func DetectDateColumn(t *RawTable, candidates []string) (DateDetection, bool) {
	for _, col := range candidates {
		vals := t.Column(col)
		if d, ok := detectDates(vals); ok {
			d.Column = col
			return d, true
		}
	}
	return DateDetection{}, false
}

func detectDates(vals []string) (DateDetection, bool) {
	nonEmpty := 0
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			nonEmpty++
		}
	}
	if nonEmpty == 0 {
		return DateDetection{}, false
	}
	for _, layout := range dateLayouts {
		out, n := parseAll(vals, func(s string) (time.Time, bool) {
			tm, err := time.Parse(layout, s)
			return tm, err == nil
		})
		if float64(n)/float64(nonEmpty) >= explicitDateThreshold {
			return DateDetection{Layout: layout, Parsed: n, Values: out}, true
		}
	}
	out, n := parseAll(vals, ParseDate)
	if float64(n)/float64(nonEmpty) >= genericDateThreshold {
		return DateDetection{Parsed: n, Values: out}, true
	}
	return DateDetection{}, false
}

func parseAll(vals []string, parse func(string) (time.Time, bool)) ([]*time.Time, int) {
	out := make([]*time.Time, len(vals))
	n := 0
	for i, v := range vals {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if tm, ok := parse(v); ok {
			d := sales.Day(tm)
			out[i] = &d
			n++
		}
	}
	return out, n
}

// ParseDate is the lenient fallback parser: common layouts plus Excel serial numbers.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if tm, err := time.Parse(layout, s); err == nil {
			return tm, true
		}
	}
	for _, layout := range genericLayouts {
		if tm, err := time.Parse(layout, s); err == nil {
			return tm, true
		}
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) {
		if f >= minExcelSerial && f <= maxExcelSerial {
			days := math.Floor(f)
			return excelEpoch.AddDate(0, 0, int(days)), true
		}
	}
	return time.Time{}, false
}
