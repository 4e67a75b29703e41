package analysis

import (
	"github.com/sirupsen/logrus"

	"github.com/KaramelBytes/salesloom-cli/internal/sales"
)

// Result is the outcome of turning one upload into canonical records.
type Result struct {
	Name      string
	Encoding  string
	Separator rune
	RowsRead  int
	Mapping   Mapping
	Records   []sales.Record
	Stats     NormalizeStats
	Quality   QualityReport
	Skipped   int
}

// Process sniffs, resolves, normalizes and filters one upload. Only unreadable
// input is an error; everything else degrades to defaults.
func Process(data []byte, name string, log logrus.FieldLogger) (*Result, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	log = log.WithFields(logrus.Fields{"module": "analysis", "file": name})

	t, err := ReadTable(data, name)
	if err != nil {
		return nil, err
	}
	m := ResolveHeaders(t.Headers)
	log.WithFields(logrus.Fields{
		"encoding":  t.Encoding,
		"separator": string(t.Separator),
		"rows":      t.Len(),
		"mapped":    len(m.Columns),
		"dropped":   len(m.Dropped),
	}).Debug("table sniffed")

	norm := Normalize(t, m)
	kept, rep := Filter(norm.Records)
	rep.OutliersCapped = norm.Stats.OutliersCapped

	res := &Result{
		Name:      name,
		Encoding:  t.Encoding,
		Separator: t.Separator,
		RowsRead:  t.Len(),
		Mapping:   m,
		Stats:     norm.Stats,
		Quality:   rep,
		Records:   make([]sales.Record, 0, len(kept)),
	}
	for i, r := range kept {
		if err := r.Validate(); err != nil {
			res.Skipped++
			log.WithError(err).WithField("row", i).Warn("skipping invalid row")
			continue
		}
		res.Records = append(res.Records, r)
	}
	if norm.Stats.DateColumn == "" && len(m.DateCandidates) > 0 {
		log.WithField("candidates", m.DateCandidates).Warn("no date column could be parsed")
	}
	return res, nil
}
