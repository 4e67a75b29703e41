package aggregate

import "fmt"

// RuleSet parameterizes the insight rules. Extended enables the diversification,
// variability and date-span rules.
type RuleSet struct {
	ManyProducts  int
	PremiumAvg    float64
	LowAvg        float64
	ManyRegions   int
	Concentration float64
	Limit         int
	Extended      bool
}

var (
	// Basic is used for store-wide summaries.
	Basic = RuleSet{ManyProducts: 10, PremiumAvg: 1000, LowAvg: 50, ManyRegions: 5, Concentration: 50, Limit: 4}
	// Rich is used for the summary of a freshly ingested batch.
	Rich = RuleSet{ManyProducts: 20, PremiumAvg: 500, LowAvg: 50, ManyRegions: 5, Concentration: 60, Limit: 6, Extended: true}
)

const (
	diversifiedShare   = 20.0
	diversifiedMinimum = 5
	highVariability    = 1.5
	lowVariability     = 0.3
	trendSpanDays      = 90
)

type insightRule func(Summary, RuleSet) (string, bool)

// insightRules run in this order; each contributes at most one sentence.
var insightRules = []insightRule{
	productDiversity,
	averageSegment,
	regionSpread,
	concentration,
	variability,
	dateSpan,
}

// Evaluate applies the rule table to s and truncates to the set's limit.
func (rs RuleSet) Evaluate(s Summary) []string {
	out := []string{}
	if s.RecordCount == 0 {
		return out
	}
	for _, rule := range insightRules {
		if msg, ok := rule(s, rs); ok {
			out = append(out, msg)
		}
	}
	if rs.Limit > 0 && len(out) > rs.Limit {
		out = out[:rs.Limit]
	}
	return out
}

func productDiversity(s Summary, rs RuleSet) (string, bool) {
	switch {
	case s.UniqueProducts == 1:
		return "Single product focus - consider diversification opportunities", true
	case s.UniqueProducts > rs.ManyProducts:
		return "High product diversity - monitor for portfolio optimization", true
	}
	return "", false
}

func averageSegment(s Summary, rs RuleSet) (string, bool) {
	switch {
	case s.AverageSales > rs.PremiumAvg:
		return "High-value transactions indicate premium customer segment", true
	case s.AverageSales < rs.LowAvg:
		return "Low transaction values suggest volume-based business model", true
	}
	return "", false
}

func regionSpread(s Summary, rs RuleSet) (string, bool) {
	switch {
	case s.UniqueRegions == 1:
		return "Single region operation - expansion potential exists", true
	case s.UniqueRegions > rs.ManyRegions:
		return "Multi-region presence provides market diversification", true
	}
	return "", false
}

func concentration(s Summary, rs RuleSet) (string, bool) {
	share := s.TopShare()
	switch {
	case share > rs.Concentration:
		return fmt.Sprintf("High concentration risk: top product represents %.1f%% of sales", share), true
	case rs.Extended && share > 0 && share < diversifiedShare && s.UniqueProducts > diversifiedMinimum:
		return fmt.Sprintf("Well-diversified revenue: top product represents only %.1f%% of sales", share), true
	}
	return "", false
}

func variability(s Summary, rs RuleSet) (string, bool) {
	if !rs.Extended || s.RecordCount < 2 || s.AverageSales <= 0 {
		return "", false
	}
	cv := s.CoefficientOfVariation()
	switch {
	case cv > highVariability:
		return fmt.Sprintf("High variability in transaction values (CV %.2f) - review pricing and deal sizes", cv), true
	case cv < lowVariability:
		return fmt.Sprintf("Consistent transaction values (CV %.2f) indicate stable pricing", cv), true
	}
	return "", false
}

func dateSpan(s Summary, rs RuleSet) (string, bool) {
	if !rs.Extended {
		return "", false
	}
	if days := s.DateRange.Days(); days > trendSpanDays {
		return fmt.Sprintf("Data spans %d days - suitable for multi-period trend analysis", days), true
	}
	return "", false
}
