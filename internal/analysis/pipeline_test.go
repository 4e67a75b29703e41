package analysis

import (
	"errors"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
)

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestProcessMessyExport(t *testing.T) {
	data := "Order Date;SKU;Revenue;Qty;Market;Notes\n" +
		"01/03/2024;widget;1.200,50;3;north;a\n" +
		"01/04/2024;gadget;€ 80,00;;SOUTH;b\n" +
		"01/04/2024;gadget;€ 80,00;;SOUTH;b\n" +
		"01/05/2024;n/a;;1;north;c\n"
	res, err := Process([]byte(data), "messy.csv", quietLogger())
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if res.Separator != ';' || res.RowsRead != 4 {
		t.Fatalf("separator %q rows %d", res.Separator, res.RowsRead)
	}
	if len(res.Records) != 2 {
		t.Fatalf("records = %d, want 2", len(res.Records))
	}
	if res.Quality.Duplicates != 1 || res.Quality.EmptyRows != 1 {
		t.Fatalf("quality = %+v", res.Quality)
	}
	w := res.Records[0]
	if w.Product != "Widget" || w.Amount != 1200.5 || w.Quantity != 3 || w.Region != "North" {
		t.Fatalf("widget = %+v", w)
	}
	if w.DateString() != "2024-01-03" {
		t.Fatalf("date = %q", w.DateString())
	}
	g := res.Records[1]
	if g.Amount != 80 || g.Quantity != 1 || g.Region != "South" {
		t.Fatalf("gadget = %+v", g)
	}
}

func TestProcessUnreadable(t *testing.T) {
	_, err := Process([]byte("single\ncolumn\n"), "bad.csv", nil)
	if !errors.Is(err, ErrUnreadable) {
		t.Fatalf("expected ErrUnreadable, got %v", err)
	}
}
