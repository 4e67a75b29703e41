// Package ingest turns uploaded files into stored sales rows.
package ingest

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/KaramelBytes/salesloom-cli/internal/aggregate"
	"github.com/KaramelBytes/salesloom-cli/internal/analysis"
	"github.com/KaramelBytes/salesloom-cli/internal/store"
	"github.com/KaramelBytes/salesloom-cli/internal/utils"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// DuplicateInsight is the only insight of a duplicate upload.
const DuplicateInsight = "File already uploaded previously - skipping duplicate"

// Result is the response of one ingestion call.
type Result struct {
	Status          string                   `json:"status"`
	RowsProcessed   int                      `json:"rows_processed"`
	RowsStored      int                      `json:"rows_stored"`
	Summary         aggregate.Summary        `json:"summary"`
	Insights        []string                 `json:"insights"`
	Notes           []string                 `json:"processing_notes"`
	Fingerprint     string                   `json:"file_hash"`
	DuplicateUpload bool                     `json:"duplicate_upload"`
	Quality         *analysis.QualityReport  `json:"quality,omitempty"`
	Normalization   *analysis.NormalizeStats `json:"normalization,omitempty"`
	FileID          int64                    `json:"file_upload_id,omitempty"`
}

// Service runs the ingestion pipeline against a store.
type Service struct {
	store store.Store
	log   logrus.FieldLogger
}

func NewService(st store.Store, log logrus.FieldLogger) *Service {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Service{store: st, log: log.WithField("module", "ingest")}
}

// Ingest fingerprints, parses and stores one upload for owner. Only unreadable
// input is returned as an error; storage failures are logged and degrade.
func (s *Service) Ingest(ctx context.Context, data []byte, name string, owner *int64) (*Result, error) {
	fp := utils.FingerprintBytes(data)
	log := s.log.WithFields(logrus.Fields{"file": name, "fingerprint": fp[:12]})

	dup, err := s.store.FileExists(ctx, fp, owner)
	if err != nil {
		log.WithError(err).Warn("duplicate check failed, treating upload as new")
		dup = false
	}
	if dup {
		log.Info("duplicate upload skipped")
		return &Result{
			Status:          StatusSuccess,
			Summary:         s.summary(ctx, owner, log),
			Insights:        []string{DuplicateInsight},
			Notes:           []string{},
			Fingerprint:     fp,
			DuplicateUpload: true,
		}, nil
	}

	res, err := analysis.Process(data, name, log)
	if err != nil {
		log.WithError(err).Error("upload could not be parsed")
		return &Result{
			Status:      StatusError,
			Summary:     aggregate.Empty(),
			Insights:    []string{fmt.Sprintf("Processing failed: %v", err)},
			Notes:       []string{},
			Fingerprint: fp,
		}, fmt.Errorf("ingest %s: %w", name, err)
	}

	out := &Result{
		Status:        StatusSuccess,
		RowsProcessed: len(res.Records),
		Fingerprint:   fp,
		Quality:       &res.Quality,
		Normalization: &res.Stats,
	}
	// A failed save leaves no file row behind, so the same bytes can be retried.
	fileID, stored, err := s.store.SaveUpload(ctx, fp, name, res.Records, owner)
	if err != nil {
		log.WithError(err).Error("storing upload failed")
		fileID, stored = 0, 0
	}
	out.FileID = fileID
	out.RowsStored = stored
	out.Summary = s.summary(ctx, owner, log)
	out.Insights, out.Notes = insights(res)
	log.WithFields(logrus.Fields{
		"rows_read":   res.RowsRead,
		"rows_stored": stored,
		"removed":     res.Quality.Removed(),
		"skipped":     res.Skipped,
	}).Info("upload ingested")
	return out, nil
}

func (s *Service) summary(ctx context.Context, owner *int64, log logrus.FieldLogger) aggregate.Summary {
	sum, err := s.store.Aggregate(ctx, owner)
	if err != nil {
		log.WithError(err).Error("aggregate failed")
		return aggregate.Empty()
	}
	return sum
}

// insights returns the batch's business signals, already capped by the rule
// set, and separately the notes on what cleaning did.
func insights(res *analysis.Result) (signals, notes []string) {
	notes = res.Quality.Notes()
	if res.Skipped > 0 {
		notes = append(notes, fmt.Sprintf("Skipped %d rows that failed validation", res.Skipped))
	}
	if res.Stats.DateColumn != "" {
		notes = append(notes, "Date column successfully parsed and standardized")
	}
	batch := aggregate.Summarize(res.Records, aggregate.Rich)
	if batch.RecordCount > 0 {
		notes = append(notes,
			fmt.Sprintf("Processed %d sales transactions", batch.RecordCount),
			"Total revenue: "+aggregate.FormatMoney(batch.TotalSales),
		)
	}
	signals = batch.Insights
	if signals == nil {
		signals = []string{}
	}
	if notes == nil {
		notes = []string{}
	}
	return signals, notes
}
