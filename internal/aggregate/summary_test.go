package aggregate

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/KaramelBytes/salesloom-cli/internal/sales"
)

func mk(product, region string, amount float64, day int) sales.Record {
	r := sales.NewRecord()
	r.Product = product
	r.Region = region
	r.Amount = amount
	if day > 0 {
		d := time.Date(2024, 1, day, 0, 0, 0, 0, time.UTC)
		r.OccurredOn = &d
	}
	return r
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil, Basic)
	if s.RecordCount != 0 || s.AverageSales != 0 || s.TotalSales != 0 {
		t.Fatalf("unexpected summary: %+v", s)
	}
	if s.TopProducts == nil || len(s.Insights) != 0 || s.DateRange != nil {
		t.Fatalf("empty summary should have empty lists: %+v", s)
	}
}

func TestSummarizeTotalsAndTopProducts(t *testing.T) {
	recs := []sales.Record{
		mk("A", "North", 10, 3),
		mk("B", "South", 30, 1),
		mk("C", "North", 20, 0),
		mk("A", "East", 20, 9),
		mk("D", "North", 5, 0),
		mk("E", "North", 5, 0),
		mk("F", "North", 1, 0),
	}
	s := Summarize(recs, Basic)
	if s.TotalSales != 91 || s.RecordCount != 7 {
		t.Fatalf("total %v count %d", s.TotalSales, s.RecordCount)
	}
	if want := 91.0 / 7; math.Abs(s.AverageSales-want) > 1e-9 {
		t.Fatalf("average = %v, want %v", s.AverageSales, want)
	}
	if s.UniqueProducts != 6 || s.UniqueRegions != 3 {
		t.Fatalf("unique products %d regions %d", s.UniqueProducts, s.UniqueRegions)
	}
	want := []ProductTotal{
		{"A", 30}, {"B", 30}, {"C", 20}, {"D", 5}, {"E", 5},
	}
	if diff := cmp.Diff(want, s.TopProducts); diff != "" {
		t.Fatalf("top products mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(&DateRange{Start: "2024-01-01", End: "2024-01-09"}, s.DateRange); diff != "" {
		t.Fatalf("date range mismatch (-want +got):\n%s", diff)
	}
}

func TestTopProductsSortedAndBounded(t *testing.T) {
	var recs []sales.Record
	for i := 0; i < 12; i++ {
		recs = append(recs, mk(string(rune('A'+i)), "R", float64((i*7)%11+1), 0))
	}
	s := Summarize(recs, Basic)
	if len(s.TopProducts) > TopN || len(s.TopProducts) > s.UniqueProducts {
		t.Fatalf("top products too long: %d", len(s.TopProducts))
	}
	for i := 1; i < len(s.TopProducts); i++ {
		if s.TopProducts[i].TotalSales > s.TopProducts[i-1].TotalSales {
			t.Fatalf("not descending at %d: %+v", i, s.TopProducts)
		}
	}
}

func TestBasicInsights(t *testing.T) {
	s := Summarize([]sales.Record{mk("Solo", "Only", 2000, 0), mk("Solo", "Only", 3000, 0)}, Basic)
	want := []string{
		"Single product focus - consider diversification opportunities",
		"High-value transactions indicate premium customer segment",
		"Single region operation - expansion potential exists",
		"High concentration risk: top product represents 100.0% of sales",
	}
	if diff := cmp.Diff(want, s.Insights); diff != "" {
		t.Fatalf("insights mismatch (-want +got):\n%s", diff)
	}
}

func TestInsightLimit(t *testing.T) {
	var recs []sales.Record
	for i := 0; i < 25; i++ {
		recs = append(recs, mk("P"+string(rune('a'+i)), "R"+string(rune('a'+i%7)), 10, 0))
	}
	recs = append(recs, mk("Pa", "Ra", 10, 0))
	basic := Summarize(recs, Basic)
	if len(basic.Insights) > Basic.Limit {
		t.Fatalf("basic insights = %d", len(basic.Insights))
	}
	rich := Summarize(recs, Rich)
	if len(rich.Insights) > Rich.Limit {
		t.Fatalf("rich insights = %d", len(rich.Insights))
	}
	if !contains(rich.Insights, "Well-diversified revenue") {
		t.Fatalf("rich rules should flag diversification: %v", rich.Insights)
	}
	if contains(basic.Insights, "Well-diversified revenue") {
		t.Fatalf("basic rules should not include extended notes: %v", basic.Insights)
	}
}

func TestRichVariabilityAndSpan(t *testing.T) {
	recs := []sales.Record{
		mk("A", "N", 100, 1),
		mk("B", "S", 100, 0),
	}
	late := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	recs[1].OccurredOn = &late
	s := Summarize(recs, Rich)
	if !contains(s.Insights, "Consistent transaction values (CV 0.00)") {
		t.Fatalf("missing stability note: %v", s.Insights)
	}
	if !contains(s.Insights, "Data spans 152 days") {
		t.Fatalf("missing span note: %v", s.Insights)
	}
}

func TestFormatMoney(t *testing.T) {
	cases := map[float64]string{
		0:        "$0.00",
		12.5:     "$12.50",
		12345.67: "$12,345.67",
		-1500:    "-$1,500.00",
	}
	for in, want := range cases {
		if got := FormatMoney(in); got != want {
			t.Errorf("FormatMoney(%v) = %q, want %q", in, got, want)
		}
	}
}

func contains(list []string, prefix string) bool {
	for _, s := range list {
		if strings.HasPrefix(s, prefix) {
			return true
		}
	}
	return false
}
