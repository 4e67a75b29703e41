package report

import (
	"strings"
	"testing"
	"time"

	"github.com/KaramelBytes/salesloom-cli/internal/aggregate"
)

func sampleSummary() aggregate.Summary {
	return aggregate.Summary{
		TotalSales:     12345.5,
		AverageSales:   123.456,
		RecordCount:    1000,
		UniqueProducts: 4,
		UniqueRegions:  2,
		TopProducts: []aggregate.ProductTotal{
			{Product: "Unknown", TotalSales: 9000},
			{Product: "Widget", TotalSales: 2000},
			{Product: "Gadget", TotalSales: 1000},
			{Product: "Gizmo", TotalSales: 300},
			{Product: "Doohickey", TotalSales: 45.5},
		},
		DateRange: &aggregate.DateRange{Start: "2024-01-01", End: "2024-03-31"},
		Insights:  []string{"Focused product line"},
	}
}

func TestFormatSummary(t *testing.T) {
	got := FormatSummary(sampleSummary())
	want := "Total Sales: $12,345.50 | Transactions: 1,000 | Average Order: $123.46 | Product Portfolio: 4 products | Market Coverage: 2 regions | Period: 2024-01-01 to 2024-03-31"
	if got != want {
		t.Fatalf("FormatSummary:\n got %q\nwant %q", got, want)
	}
	s := sampleSummary()
	s.DateRange = nil
	if strings.Contains(FormatSummary(s), "Period") {
		t.Fatal("period rendered without a date range")
	}
}

func TestBuildContext(t *testing.T) {
	got := BuildContext(sampleSummary())
	if !strings.Contains(got, "Top Products: Widget ($2,000.00), Gadget ($1,000.00), Gizmo ($300.00)\n") {
		t.Fatalf("top products line wrong:\n%s", got)
	}
	if strings.Contains(got, "Unknown") || strings.Contains(got, "Doohickey") {
		t.Fatalf("context should skip Unknown and keep three products:\n%s", got)
	}
	if !strings.HasSuffix(got, "Insights:\n- Focused product line") {
		t.Fatalf("insights missing:\n%s", got)
	}
	if BuildContext(sampleSummary()) != got {
		t.Fatal("context is not deterministic")
	}
}

func TestTitleAndPersonas(t *testing.T) {
	p, ok := LookupPersona("executive_briefer")
	if !ok {
		t.Fatal("executive_briefer missing")
	}
	if got := Title(p, time.Date(2025, time.November, 2, 0, 0, 0, 0, time.UTC)); got != "Executive Briefer Report - November 2025" {
		t.Fatalf("title = %q", got)
	}
	if _, ok := LookupPersona("poet"); ok {
		t.Fatal("unexpected persona")
	}
	if len(Personas) != 5 {
		t.Fatalf("personas = %d", len(Personas))
	}
}
