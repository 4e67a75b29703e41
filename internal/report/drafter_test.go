package report_test

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/sirupsen/logrus"

	"github.com/KaramelBytes/salesloom-cli/internal/ai"
	"github.com/KaramelBytes/salesloom-cli/internal/report"
	"github.com/KaramelBytes/salesloom-cli/internal/sales"
	"github.com/KaramelBytes/salesloom-cli/internal/store"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

var fixedNow = func() time.Time { return time.Date(2024, time.March, 15, 10, 0, 0, 0, time.UTC) }

// failing returns a generator that errors for the listed persona names.
func failing(names ...string) ai.Generator {
	return ai.GeneratorFunc(func(_ context.Context, p ai.Prompt) (string, error) {
		for _, n := range names {
			if strings.HasPrefix(p.Instructions, "Role: "+n) {
				return "", errors.New("provider down")
			}
		}
		return "draft for " + strings.SplitN(p.Instructions, "\n", 2)[0], nil
	})
}

func seeded(t *testing.T) *store.Memory {
	t.Helper()
	ctx := context.Background()
	m := store.NewMemory()
	id, err := m.RecordFile(ctx, "fp", "sales.csv", 2, nil)
	if err != nil {
		t.Fatal(err)
	}
	d := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	rows := []sales.Record{
		{OccurredOn: &d, Product: "Widget", Category: "Tools", Amount: 1200.5, Quantity: 3, Region: "North"},
		{Product: "Gadget", Category: sales.Unknown, Amount: 99.5, Quantity: 1, Region: "South"},
	}
	if _, err := m.InsertRows(ctx, rows, nil, &id); err != nil {
		t.Fatal(err)
	}
	return m
}

func TestRunPartialFailure(t *testing.T) {
	m := seeded(t)
	d := report.NewDrafter(failing("Business Reporter", "Trend Forecaster"), m, quietLogger(), report.WithClock(fixedNow))
	round, err := d.Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if round.Status != report.StatusSuccess || round.ArticlesGenerated != 3 || round.State != report.StateDone {
		t.Fatalf("unexpected round: %+v", round)
	}
	var got []string
	for _, a := range round.Articles {
		got = append(got, a.Persona)
		if a.ID == 0 {
			t.Fatalf("draft %s was not stored", a.Persona)
		}
	}
	want := []string{"market_analyst", "sales_strategist", "executive_briefer"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("personas mismatch (-want +got):\n%s", diff)
	}
	if round.Articles[0].Title != "Market Analyst Report - March 2024" {
		t.Fatalf("title = %q", round.Articles[0].Title)
	}
	if round.GenerationDate != "2024-03-15" {
		t.Fatalf("generation date = %q", round.GenerationDate)
	}
	stored, _ := m.RecentDrafts(context.Background(), time.Now().AddDate(0, 0, -1), nil)
	if len(stored) != 3 {
		t.Fatalf("stored drafts = %d, want 3", len(stored))
	}
}

func TestRunNoData(t *testing.T) {
	var calls int32
	gen := ai.GeneratorFunc(func(context.Context, ai.Prompt) (string, error) {
		atomic.AddInt32(&calls, 1)
		return "x", nil
	})
	d := report.NewDrafter(gen, store.NewMemory(), quietLogger())
	round, err := d.Run(context.Background(), nil)
	if !errors.Is(err, report.ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
	if round.Status != report.StatusError || round.ArticlesGenerated != 0 || round.State != report.StateNoData {
		t.Fatalf("unexpected round: %+v", round)
	}
	if calls != 0 {
		t.Fatalf("generator called %d times", calls)
	}
}

func TestRunScopesByOwner(t *testing.T) {
	m := seeded(t)
	d := report.NewDrafter(failing(), m, quietLogger())
	if _, err := d.Run(context.Background(), sales.Owner(42)); !errors.Is(err, report.ErrNoData) {
		t.Fatalf("owner without uploads should have no data, got %v", err)
	}
}

type brokenDrafts struct{ *store.Memory }

func (brokenDrafts) InsertDraft(context.Context, string, string, string, *int64) (*sales.Draft, error) {
	return nil, errors.New("disk full")
}

func TestRunKeepsUnsavedDrafts(t *testing.T) {
	d := report.NewDrafter(failing(), brokenDrafts{seeded(t)}, quietLogger(), report.WithClock(fixedNow))
	round, err := d.Run(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if round.ArticlesGenerated != len(report.Personas) {
		t.Fatalf("articles = %d", round.ArticlesGenerated)
	}
	for _, a := range round.Articles {
		if a.ID != 0 || a.Body == "" {
			t.Fatalf("unexpected unsaved draft: %+v", a)
		}
	}
}

func TestPromptsCarryLimitsAndContext(t *testing.T) {
	m := seeded(t)
	s, _ := m.Aggregate(context.Background(), nil)
	d := report.NewDrafter(failing(), m, quietLogger(), report.WithLimits(400, 0.2))
	prompts := d.Prompts(s)
	if len(prompts) != 5 {
		t.Fatalf("prompts = %d", len(prompts))
	}
	p := prompts[0]
	if p.MaxTokens != 400 || p.Temperature != 0.2 {
		t.Fatalf("limits = %d %v", p.MaxTokens, p.Temperature)
	}
	if !strings.HasPrefix(p.Context, "Use the following data:\nSummary: Total Sales: $1,300") {
		t.Fatalf("context = %q", p.Context)
	}
	if !strings.HasSuffix(p.Context, "Length: 200-300 words.") {
		t.Fatalf("missing length hint: %q", p.Context)
	}
}
