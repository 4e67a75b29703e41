package ingest_test

import (
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/KaramelBytes/salesloom-cli/internal/analysis"
	"github.com/KaramelBytes/salesloom-cli/internal/ingest"
	"github.com/KaramelBytes/salesloom-cli/internal/sales"
	"github.com/KaramelBytes/salesloom-cli/internal/store"
)

const upload = "Order Date,SKU,Revenue,Qty,Market\n" +
	"2024-01-05,Widget,1200.50,3,North\n" +
	"2024-02-10,Gadget,300,1,South\n" +
	"2024-02-10,Gadget,300,1,South\n"

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

func TestIngestStoresAndSummarizes(t *testing.T) {
	st := store.NewMemory()
	svc := ingest.NewService(st, quietLogger())
	res, err := svc.Ingest(context.Background(), []byte(upload), "jan.csv", nil)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if res.Status != ingest.StatusSuccess || res.DuplicateUpload {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.RowsProcessed != 2 || res.RowsStored != 2 {
		t.Fatalf("rows processed/stored = %d/%d, want 2/2", res.RowsProcessed, res.RowsStored)
	}
	if res.Quality == nil || res.Quality.Duplicates != 1 {
		t.Fatalf("quality = %+v", res.Quality)
	}
	if res.Summary.RecordCount != 2 || res.Summary.TotalSales != 1500.5 {
		t.Fatalf("summary = %+v", res.Summary)
	}
	if len(res.Fingerprint) != 64 || res.FileID == 0 {
		t.Fatalf("fingerprint %q file id %d", res.Fingerprint, res.FileID)
	}
	if !contains(res.Notes, "Removed 1 duplicate rows") || !contains(res.Notes, "Date column successfully parsed and standardized") {
		t.Fatalf("notes = %q", res.Notes)
	}
	files, err := st.ListFiles(context.Background(), nil)
	if err != nil || len(files) != 1 || files[0].RowCount != 2 {
		t.Fatalf("files = %+v, %v", files, err)
	}
}

func TestIngestDuplicateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	svc := ingest.NewService(st, quietLogger())
	if _, err := svc.Ingest(ctx, []byte(upload), "jan.csv", nil); err != nil {
		t.Fatal(err)
	}
	// same bytes under another name
	res, err := svc.Ingest(ctx, []byte(upload), "copy-of-jan.csv", nil)
	if err != nil {
		t.Fatal(err)
	}
	if !res.DuplicateUpload || res.RowsStored != 0 || res.RowsProcessed != 0 {
		t.Fatalf("expected duplicate short-circuit, got %+v", res)
	}
	if len(res.Insights) != 1 || res.Insights[0] != ingest.DuplicateInsight {
		t.Fatalf("insights = %q", res.Insights)
	}
	if res.Summary.RecordCount != 2 {
		t.Fatalf("stored rows changed: %d", res.Summary.RecordCount)
	}
	if n, _ := st.FileCount(ctx, nil); n != 1 {
		t.Fatalf("file count = %d", n)
	}
}

func TestIngestDuplicateScopedByOwner(t *testing.T) {
	ctx := context.Background()
	svc := ingest.NewService(store.NewMemory(), quietLogger())
	if _, err := svc.Ingest(ctx, []byte(upload), "a.csv", sales.Owner(1)); err != nil {
		t.Fatal(err)
	}
	res, err := svc.Ingest(ctx, []byte(upload), "a.csv", sales.Owner(2))
	if err != nil {
		t.Fatal(err)
	}
	if res.DuplicateUpload || res.Summary.RecordCount != 2 {
		t.Fatalf("another owner's upload should be stored: %+v", res)
	}
}

func TestIngestUnreadable(t *testing.T) {
	st := store.NewMemory()
	svc := ingest.NewService(st, quietLogger())
	res, err := svc.Ingest(context.Background(), []byte("   \n\n"), "blank.csv", nil)
	if err == nil {
		t.Fatal("expected an error")
	}
	if !errors.Is(err, analysis.ErrEmptyFile) && !errors.Is(err, analysis.ErrUnreadable) {
		t.Fatalf("unexpected error %v", err)
	}
	if res.Status != ingest.StatusError || res.RowsStored != 0 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if n, _ := st.FileCount(context.Background(), nil); n != 0 {
		t.Fatalf("nothing should be recorded, got %d files", n)
	}
}

type failingStore struct{ *store.Memory }

func (failingStore) FileExists(context.Context, string, *int64) (bool, error) {
	return false, errors.New("connection reset")
}

func (failingStore) SaveUpload(context.Context, string, string, []sales.Record, *int64) (int64, int, error) {
	return 0, 0, errors.New("connection reset")
}

func TestIngestDegradesOnStoreErrors(t *testing.T) {
	svc := ingest.NewService(failingStore{store.NewMemory()}, quietLogger())
	res, err := svc.Ingest(context.Background(), []byte(upload), "jan.csv", nil)
	if err != nil {
		t.Fatalf("store errors must not fail ingestion: %v", err)
	}
	if res.Status != ingest.StatusSuccess || res.RowsProcessed != 2 || res.RowsStored != 0 {
		t.Fatalf("unexpected result: %+v", res)
	}
}

// flakySave fails the first save and delegates afterwards.
type flakySave struct {
	*store.Memory
	failures int
}

func (f *flakySave) SaveUpload(ctx context.Context, fp, name string, rows []sales.Record, owner *int64) (int64, int, error) {
	if f.failures > 0 {
		f.failures--
		return 0, 0, errors.New("deadlock detected")
	}
	return f.Memory.SaveUpload(ctx, fp, name, rows, owner)
}

func TestIngestRetryAfterFailedSave(t *testing.T) {
	ctx := context.Background()
	st := &flakySave{Memory: store.NewMemory(), failures: 1}
	svc := ingest.NewService(st, quietLogger())

	first, err := svc.Ingest(ctx, []byte(upload), "jan.csv", nil)
	if err != nil {
		t.Fatal(err)
	}
	if first.RowsStored != 0 || first.FileID != 0 || first.DuplicateUpload {
		t.Fatalf("first attempt = %+v", first)
	}
	if n, _ := st.FileCount(ctx, nil); n != 0 {
		t.Fatalf("failed save left %d file rows", n)
	}

	retry, err := svc.Ingest(ctx, []byte(upload), "jan.csv", nil)
	if err != nil {
		t.Fatal(err)
	}
	if retry.DuplicateUpload || retry.RowsStored != 2 || retry.Summary.RecordCount != 2 {
		t.Fatalf("retry = %+v", retry)
	}
}

func TestIngestInsightsCapped(t *testing.T) {
	const batch = "Order Date,SKU,Revenue,Qty,Market\n" +
		"2024-01-01,Widget,1000,1,North\n" +
		"2024-02-01,Widget,1010,1,North\n" +
		"2024-03-01,,0,1,North\n" +
		"2024-04-01,Widget,1020,1,North\n" +
		"2024-06-01,Widget,990,1,North\n" +
		"2024-06-01,Widget,990,1,North\n"
	res, err := ingest.NewService(store.NewMemory(), quietLogger()).Ingest(context.Background(), []byte(batch), "h1.csv", nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Insights) != 6 {
		t.Fatalf("insights (%d) = %q", len(res.Insights), res.Insights)
	}
	if !contains(res.Insights, "Data spans 152 days - suitable for multi-period trend analysis") {
		t.Fatalf("insights = %q", res.Insights)
	}
	for _, want := range []string{
		"Removed 1 rows with no product and no amount",
		"Removed 1 duplicate rows",
		"Date column successfully parsed and standardized",
		"Processed 4 sales transactions",
	} {
		if !contains(res.Notes, want) {
			t.Errorf("notes missing %q: %q", want, res.Notes)
		}
		if contains(res.Insights, want) {
			t.Errorf("insights should not carry processing note %q", want)
		}
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
