// Package report drafts persona-styled narratives from a sales summary.
package report

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc/pool"

	"github.com/KaramelBytes/salesloom-cli/internal/aggregate"
	"github.com/KaramelBytes/salesloom-cli/internal/ai"
	"github.com/KaramelBytes/salesloom-cli/internal/sales"
	"github.com/KaramelBytes/salesloom-cli/internal/store"
	"github.com/KaramelBytes/salesloom-cli/internal/utils"
)

// ErrNoData is returned by Run when nothing has been ingested for the scope.
var ErrNoData = errors.New("no data available for article generation, upload data first")

// State is a step of one generation round.
type State string

const (
	StateCheckData  State = "CHECK_DATA"
	StateNoData     State = "NO_DATA"
	StateGenerating State = "GENERATING"
	StateStoring    State = "STORING"
	StateDone       State = "DONE"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// contextTokenLimit bounds the data block sent with each persona call.
const contextTokenLimit = 1500

// Generated is one successful persona call before it is stored.
type Generated struct {
	Persona Persona
	Title   string
	Body    string
}

// Round is the outcome of one generation round.
type Round struct {
	Status            string            `json:"status"`
	ArticlesGenerated int               `json:"articles_generated"`
	Articles          []sales.Draft     `json:"articles"`
	GenerationDate    string            `json:"generation_date"`
	DataSummary       aggregate.Summary `json:"data_summary"`
	State             State             `json:"-"`
}

// Drafter runs persona generation against a Generator and a Store.
type Drafter struct {
	gen         ai.Generator
	store       store.Store
	log         logrus.FieldLogger
	personas    []Persona
	maxTokens   int
	temperature float64
	now         func() time.Time
}

// Option customizes a Drafter.
type Option func(*Drafter)

// WithPersonas replaces the persona set.
func WithPersonas(p []Persona) Option { return func(d *Drafter) { d.personas = p } }

// WithLimits sets the generation budget passed to every call.
func WithLimits(maxTokens int, temperature float64) Option {
	return func(d *Drafter) {
		if maxTokens > 0 {
			d.maxTokens = maxTokens
		}
		if temperature > 0 {
			d.temperature = temperature
		}
	}
}

// WithClock overrides the time source used for titles and generation dates.
func WithClock(now func() time.Time) Option { return func(d *Drafter) { d.now = now } }

func NewDrafter(gen ai.Generator, st store.Store, log logrus.FieldLogger, opts ...Option) *Drafter {
	if log == nil {
		log = logrus.StandardLogger()
	}
	d := &Drafter{
		gen:         gen,
		store:       st,
		log:         log.WithField("module", "report"),
		personas:    Personas,
		maxTokens:   ai.DefaultMaxTokens,
		temperature: ai.DefaultTemperature,
		now:         time.Now,
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Prompts returns the prompt each persona would receive for s.
func (d *Drafter) Prompts(s aggregate.Summary) []ai.Prompt {
	msg := UserMessage(utils.TruncateToTokenLimit(BuildContext(s), contextTokenLimit))
	out := make([]ai.Prompt, len(d.personas))
	for i, p := range d.personas {
		out[i] = ai.Prompt{
			Instructions: p.Instructions,
			Context:      msg,
			MaxTokens:    d.maxTokens,
			Temperature:  d.temperature,
		}
	}
	return out
}

// Draft calls every persona concurrently and waits for all of them. Failed
// calls are logged and left out; the rest keep persona order.
func (d *Drafter) Draft(ctx context.Context, s aggregate.Summary, date time.Time) []Generated {
	type indexed struct {
		i int
		g Generated
	}
	prompts := d.Prompts(s)
	p := pool.NewWithResults[indexed]().WithErrors().WithContext(ctx)
	for i, persona := range d.personas {
		p.Go(func(ctx context.Context) (indexed, error) {
			body, err := d.gen.Generate(ctx, prompts[i])
			if err != nil {
				d.log.WithError(err).WithField("persona", persona.Key).Error("persona generation failed")
				return indexed{}, err
			}
			return indexed{i: i, g: Generated{Persona: persona, Title: Title(persona, date), Body: body}}, nil
		})
	}
	res, err := p.Wait()
	if err != nil {
		d.log.WithField("succeeded", len(res)).Warn("some personas failed")
	}
	sort.Slice(res, func(a, b int) bool { return res[a].i < res[b].i })
	out := make([]Generated, len(res))
	for i, r := range res {
		out[i] = r.g
	}
	return out
}

// Run executes one round for owner: check data, generate, store.
func (d *Drafter) Run(ctx context.Context, owner *int64) (*Round, error) {
	now := d.now()
	log := d.log.WithField("operation", "generate")
	round := &Round{
		Status:         StatusError,
		Articles:       []sales.Draft{},
		GenerationDate: now.Format(sales.DateLayout),
		DataSummary:    aggregate.Empty(),
		State:          StateCheckData,
	}

	files, err := d.store.FileCount(ctx, owner)
	if err != nil {
		log.WithError(err).Error("file count failed")
		files = 0
	}
	summary, err := d.store.Aggregate(ctx, owner)
	if err != nil {
		log.WithError(err).Error("aggregate failed")
		summary = aggregate.Empty()
	}
	round.DataSummary = summary
	if files == 0 || summary.RecordCount == 0 {
		round.State = StateNoData
		log.WithFields(logrus.Fields{"files": files, "records": summary.RecordCount}).Info("no data for generation")
		return round, ErrNoData
	}

	round.State = StateGenerating
	generated := d.Draft(ctx, summary, now)

	round.State = StateStoring
	round.Articles = d.persist(ctx, generated, owner, now)
	round.ArticlesGenerated = len(round.Articles)
	round.Status = StatusSuccess
	round.State = StateDone
	log.WithField("articles", round.ArticlesGenerated).Info("generation round done")
	return round, nil
}

// persist stores drafts concurrently. A draft whose insert fails is returned
// unsaved with a zero id.
func (d *Drafter) persist(ctx context.Context, generated []Generated, owner *int64, now time.Time) []sales.Draft {
	out := make([]sales.Draft, len(generated))
	p := pool.New().WithContext(ctx)
	for i, g := range generated {
		p.Go(func(ctx context.Context) error {
			saved, err := d.store.InsertDraft(ctx, g.Title, g.Body, g.Persona.Key, owner)
			if err != nil {
				d.log.WithError(err).WithField("persona", g.Persona.Key).Warn("storing draft failed")
				out[i] = sales.Draft{
					OwnerID:     owner,
					Title:       g.Title,
					Body:        g.Body,
					Persona:     g.Persona.Key,
					GeneratedOn: sales.Day(now),
					CreatedAt:   now,
				}
				return nil
			}
			out[i] = *saved
			return nil
		})
	}
	_ = p.Wait()
	return out
}
