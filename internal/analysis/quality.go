package analysis

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/KaramelBytes/salesloom-cli/internal/sales"
)

const (
	extremeQuantile   = 0.999
	extremeMultiplier = 5.0
)

// QualityReport records how many rows each filter step removed.
type QualityReport struct {
	Input          int     `json:"input_rows"`
	EmptyRows      int     `json:"empty_rows_removed"`
	Duplicates     int     `json:"duplicates_removed"`
	Extreme        int     `json:"extreme_outliers_removed"`
	ExtremeLimit   float64 `json:"extreme_limit,omitempty"`
	OutliersCapped int     `json:"outliers_capped"`
	Output         int     `json:"output_rows"`
}

// Removed is the total number of rows dropped by the filter.
func (q QualityReport) Removed() int { return q.EmptyRows + q.Duplicates + q.Extreme }

// Notes renders the non-zero counters as short sentences.
func (q QualityReport) Notes() []string {
	var out []string
	if q.EmptyRows > 0 {
		out = append(out, fmt.Sprintf("Removed %d rows with no product and no amount", q.EmptyRows))
	}
	if q.Duplicates > 0 {
		out = append(out, fmt.Sprintf("Removed %d duplicate rows", q.Duplicates))
	}
	if q.OutliersCapped > 0 {
		out = append(out, fmt.Sprintf("Capped %d outlier amounts at the 99th percentile", q.OutliersCapped))
	}
	if q.Extreme > 0 {
		out = append(out, fmt.Sprintf("Removed %d extreme outliers above %.2f", q.Extreme, q.ExtremeLimit))
	}
	return out
}

type filterStep struct {
	name string
	run  func([]sales.Record, *QualityReport) []sales.Record
}

var filterSteps = []filterStep{
	{name: "empty", run: dropEmpty},
	{name: "duplicates", run: dropDuplicates},
	{name: "extreme", run: dropExtreme},
}

// Filter applies the quality steps in order. The input slice is not modified.
func Filter(records []sales.Record) ([]sales.Record, QualityReport) {
	rep := QualityReport{Input: len(records)}
	out := append([]sales.Record(nil), records...)
	for _, st := range filterSteps {
		out = st.run(out, &rep)
	}
	rep.Output = len(out)
	return out, rep
}

func dropEmpty(in []sales.Record, rep *QualityReport) []sales.Record {
	out := in[:0]
	for _, r := range in {
		if r.Product == sales.Unknown && r.Amount == 0 {
			rep.EmptyRows++
			continue
		}
		out = append(out, r)
	}
	return out
}

func dropDuplicates(in []sales.Record, rep *QualityReport) []sales.Record {
	seen := make(map[string]struct{}, len(in))
	out := in[:0]
	for _, r := range in {
		k := recordKey(r)
		if _, ok := seen[k]; ok {
			rep.Duplicates++
			continue
		}
		seen[k] = struct{}{}
		out = append(out, r)
	}
	return out
}

func dropExtreme(in []sales.Record, rep *QualityReport) []sales.Record {
	if len(in) < 2 {
		return in
	}
	amounts := make([]float64, len(in))
	for i, r := range in {
		amounts[i] = r.Amount
	}
	p := Percentile(amounts, extremeQuantile)
	if p <= 0 {
		return in
	}
	limit := extremeMultiplier * p
	rep.ExtremeLimit = limit
	out := in[:0]
	for _, r := range in {
		if r.Amount > limit {
			rep.Extreme++
			continue
		}
		out = append(out, r)
	}
	return out
}

func recordKey(r sales.Record) string {
	return strings.Join([]string{
		r.DateString(),
		r.Product,
		r.Category,
		strconv.FormatFloat(r.Amount, 'g', -1, 64),
		strconv.Itoa(r.Quantity),
		r.Region,
	}, "\x1f")
}
