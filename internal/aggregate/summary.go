// Package aggregate derives business summaries and rule-based insights from
// canonical sales records.
package aggregate

import (
	"math"
	"sort"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/KaramelBytes/salesloom-cli/internal/sales"
)

// TopN is the number of products reported in a summary.
const TopN = 5

// ProductTotal is one entry of the top products list.
type ProductTotal struct {
	Product    string  `json:"product"`
	TotalSales float64 `json:"total_sales"`
}

// DateRange is the inclusive span of dated records.
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Days returns the number of days between Start and End.
func (d *DateRange) Days() int {
	if d == nil {
		return 0
	}
	s, err1 := time.Parse(sales.DateLayout, d.Start)
	e, err2 := time.Parse(sales.DateLayout, d.End)
	if err1 != nil || err2 != nil {
		return 0
	}
	return int(e.Sub(s).Hours() / 24)
}

// Summary is recomputed on demand and never persisted.
type Summary struct {
	TotalSales     float64        `json:"total_sales"`
	AverageSales   float64        `json:"average_sales"`
	RecordCount    int            `json:"record_count"`
	TopProducts    []ProductTotal `json:"top_products"`
	UniqueProducts int            `json:"unique_products"`
	UniqueRegions  int            `json:"unique_regions"`
	DateRange      *DateRange     `json:"date_range,omitempty"`
	Insights       []string       `json:"insights"`

	// Dispersion of amounts, used by the variability rules.
	StdDev float64 `json:"-"`
}

// Empty is the summary used when no data is available.
func Empty() Summary {
	return Summary{TopProducts: []ProductTotal{}, Insights: []string{}}
}

// TopShare returns the top product's share of total sales in percent.
func (s Summary) TopShare() float64 {
	if len(s.TopProducts) == 0 || s.TotalSales <= 0 {
		return 0
	}
	return s.TopProducts[0].TotalSales / s.TotalSales * 100
}

// CoefficientOfVariation is stddev/mean of amounts, 0 when the mean is 0.
func (s Summary) CoefficientOfVariation() float64 {
	if s.AverageSales <= 0 {
		return 0
	}
	return s.StdDev / s.AverageSales
}

// Summarize computes totals, the top products and insights for records.
// Products tied on total keep the order in which they first appeared.
func Summarize(records []sales.Record, rules RuleSet) Summary {
	sum := Empty()
	sum.RecordCount = len(records)
	if len(records) == 0 {
		return sum
	}

	totals := map[string]float64{}
	var order []string
	regions := map[string]struct{}{}
	var first, last *time.Time
	for i := range records {
		r := &records[i]
		sum.TotalSales += r.Amount
		if _, ok := totals[r.Product]; !ok {
			order = append(order, r.Product)
		}
		totals[r.Product] += r.Amount
		regions[r.Region] = struct{}{}
		if r.OccurredOn != nil {
			if first == nil || r.OccurredOn.Before(*first) {
				first = r.OccurredOn
			}
			if last == nil || r.OccurredOn.After(*last) {
				last = r.OccurredOn
			}
		}
	}
	sum.AverageSales = sum.TotalSales / float64(sum.RecordCount)
	sum.UniqueProducts = len(order)
	sum.UniqueRegions = len(regions)
	if first != nil {
		sum.DateRange = &DateRange{Start: first.Format(sales.DateLayout), End: last.Format(sales.DateLayout)}
	}

	var sq float64
	for i := range records {
		d := records[i].Amount - sum.AverageSales
		sq += d * d
	}
	sum.StdDev = math.Sqrt(sq / float64(sum.RecordCount))

	top := make([]ProductTotal, len(order))
	for i, p := range order {
		top[i] = ProductTotal{Product: p, TotalSales: totals[p]}
	}
	sort.SliceStable(top, func(i, j int) bool { return top[i].TotalSales > top[j].TotalSales })
	if len(top) > TopN {
		top = top[:TopN]
	}
	sum.TopProducts = top
	sum.Insights = rules.Evaluate(sum)
	return sum
}

// FormatMoney renders x as dollars with thousands separators and two decimals.
func FormatMoney(x float64) string {
	if x < 0 {
		return "-$" + humanize.FormatFloat("#,###.##", -x)
	}
	return "$" + humanize.FormatFloat("#,###.##", x)
}
