package analysis

import (
	"math"
	"testing"

	"github.com/KaramelBytes/salesloom-cli/internal/sales"
)

func TestParseNumber(t *testing.T) {
	cases := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"12", 12, true},
		{"$1,234.50", 1234.5, true},
		{"1.234,50 €", 1234.5, true},
		{"1,234", 1234, true},
		{"1,5", 1.5, true},
		{"1.234.567", 1234567, true},
		{"(42.10)", -42.1, true},
		{"-7", -7, true},
		{"15%", 15, true},
		{"USD 99", 99, true},
		{"1 000,25", 1000.25, true},
		{"1e3", 1000, true},
		{"", 0, false},
		{"abc", 0, false},
		{"NaN", 0, false},
		{"inf", 0, false},
	}
	for _, tc := range cases {
		got, ok := ParseNumber(tc.in)
		if ok != tc.ok || math.Abs(got-tc.want) > 1e-9 {
			t.Errorf("ParseNumber(%q) = (%v, %v), want (%v, %v)", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestCleanCategory(t *testing.T) {
	cases := map[string]string{
		"N/A":               sales.Unknown,
		"":                  sales.Unknown,
		"null":              sales.Unknown,
		"NONE":              sales.Unknown,
		"nan":               sales.Unknown,
		"na":                sales.Unknown,
		"unknown":           sales.Unknown,
		"  north   america": "North America",
		"widget PRO":        "Widget Pro",
	}
	for in, want := range cases {
		if got := CleanCategory(in); got != want {
			t.Errorf("CleanCategory(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNormalizeDefaultsAndCapping(t *testing.T) {
	data := "Product,Amount,Qty,Region\n"
	for i := 0; i < 99; i++ {
		data += "Widget,10,2,North\n"
	}
	data += "Gadget,100000,x,\n"
	data += "n/a,-5,-3,South\n"

	tb, err := ReadTable([]byte(data), "cap.csv")
	if err != nil {
		t.Fatal(err)
	}
	n := Normalize(tb, ResolveHeaders(tb.Headers))
	if len(n.Records) != 101 {
		t.Fatalf("records = %d", len(n.Records))
	}
	if n.Stats.OutliersCapped != 1 {
		t.Fatalf("outliers capped = %d, want 1", n.Stats.OutliersCapped)
	}
	gadget := n.Records[99]
	if gadget.Amount > 3*n.Stats.AmountP99 || gadget.Amount != n.Stats.AmountP99 {
		t.Fatalf("gadget amount %v not capped to p99 %v", gadget.Amount, n.Stats.AmountP99)
	}
	if gadget.Quantity != 1 || gadget.Region != sales.Unknown {
		t.Fatalf("gadget defaults wrong: %+v", gadget)
	}
	last := n.Records[100]
	if last.Amount != 0 || last.Quantity != 1 || last.Product != sales.Unknown {
		t.Fatalf("negative handling wrong: %+v", last)
	}
	if n.Stats.AmountsClamped != 1 || n.Stats.QuantityDefaulted != 2 {
		t.Fatalf("stats = %+v", n.Stats)
	}
	if last.Category != sales.Unknown {
		t.Fatalf("missing category column should default, got %q", last.Category)
	}
}

func TestNormalizeNoCapForSingleValue(t *testing.T) {
	tb, err := ReadTable([]byte("Product,Amount\nA,5000\n"), "one.csv")
	if err != nil {
		t.Fatal(err)
	}
	n := Normalize(tb, ResolveHeaders(tb.Headers))
	if n.Records[0].Amount != 5000 || n.Stats.OutliersCapped != 0 {
		t.Fatalf("unexpected capping: %+v", n)
	}
}

func TestNormalizeDates(t *testing.T) {
	data := "Ship Date,Order Date,Product,Amount\n" +
		"soon,2024-03-01,A,1\n" +
		"later,2024-03-02,B,2\n" +
		"never,,C,3\n"
	tb, err := ReadTable([]byte(data), "dates.csv")
	if err != nil {
		t.Fatal(err)
	}
	n := Normalize(tb, ResolveHeaders(tb.Headers))
	if n.Stats.DateColumn != "Order Date" || n.Stats.DateLayout != "2006-01-02" {
		t.Fatalf("date detection = %q/%q", n.Stats.DateColumn, n.Stats.DateLayout)
	}
	if got := n.Records[1].DateString(); got != "2024-03-02" {
		t.Fatalf("date = %q", got)
	}
	if n.Records[2].OccurredOn != nil {
		t.Fatal("empty date cell should stay nil")
	}
}
