package sales

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Unknown is the fallback value for categorical fields that are missing or null-like.
const Unknown = "Unknown"

// DateLayout is the canonical day layout used when dates are rendered or stored as text.
const DateLayout = "2006-01-02"

// Record is one normalized sales row (the canonical schema every upload is mapped onto).
type Record struct {
	OccurredOn   *time.Time `json:"date,omitempty"`
	Product      string     `json:"product"`
	Category     string     `json:"category"`
	Amount       float64    `json:"sales_amount"`
	Quantity     int        `json:"quantity"`
	Region       string     `json:"region"`
	OwnerID      *int64     `json:"user_id,omitempty"`
	SourceFileID *int64     `json:"file_upload_id,omitempty"`
}

// NewRecord returns a record populated with the canonical defaults.
func NewRecord() Record {
	return Record{
		Product:  Unknown,
		Category: Unknown,
		Region:   Unknown,
		Quantity: 1,
	}
}

// Validate reports whether the record satisfies the canonical invariants.
func (r Record) Validate() error {
	if math.IsNaN(r.Amount) || math.IsInf(r.Amount, 0) {
		return fmt.Errorf("amount is not finite: %v", r.Amount)
	}
	if r.Amount < 0 {
		return fmt.Errorf("amount is negative: %v", r.Amount)
	}
	if r.Quantity < 0 {
		return fmt.Errorf("quantity is negative: %d", r.Quantity)
	}
	if r.Product == "" || r.Category == "" || r.Region == "" {
		return errors.New("categorical field is empty")
	}
	return nil
}

// DateString renders OccurredOn as YYYY-MM-DD, or "" when absent.
func (r Record) DateString() string {
	if r.OccurredOn == nil {
		return ""
	}
	return r.OccurredOn.Format(DateLayout)
}

// SourceFile identifies one ingested upload.
type SourceFile struct {
	ID          int64     `json:"id"`
	OwnerID     *int64    `json:"user_id,omitempty"`
	Fingerprint string    `json:"file_hash"`
	Name        string    `json:"filename"`
	RowCount    int       `json:"record_count"`
	UploadedAt  time.Time `json:"upload_date"`
}

// Draft is one generated narrative report.
type Draft struct {
	ID          int64     `json:"id"`
	OwnerID     *int64    `json:"user_id,omitempty"`
	Title       string    `json:"title"`
	Body        string    `json:"content"`
	Persona     string    `json:"article_type"`
	GeneratedOn time.Time `json:"generated_date"`
	CreatedAt   time.Time `json:"created_at"`
}

// User is an optional owner of uploads and drafts.
type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// ClearCounts reports how many entities of each kind a clear removed.
type ClearCounts struct {
	SalesData   int `json:"sales_data"`
	Articles    int `json:"articles"`
	FileUploads int `json:"file_uploads"`
}

// StorageInfo describes the active storage backend.
type StorageInfo struct {
	Type      string `json:"type"`
	Connected bool   `json:"connected"`
	FileCount int    `json:"file_count"`
	UserCount int    `json:"user_count"`
}

// Owner returns a pointer to id, or nil when id is not positive.
func Owner(id int64) *int64 {
	if id <= 0 {
		return nil
	}
	return &id
}

// Day truncates t to midnight UTC.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
