// Package store persists source files, canonical sales rows, drafts and users.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/KaramelBytes/salesloom-cli/internal/aggregate"
	"github.com/KaramelBytes/salesloom-cli/internal/sales"
)

var (
	// ErrNotFound is returned when a looked-up entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a unique username or email is taken.
	ErrConflict = errors.New("already exists")
)

// Store is the persistence boundary. A nil owner means the call is not scoped
// to any user.
type Store interface {
	Info(ctx context.Context) sales.StorageInfo
	FileExists(ctx context.Context, fingerprint string, owner *int64) (bool, error)
	RecordFile(ctx context.Context, fingerprint, name string, rows int, owner *int64) (int64, error)
	InsertRows(ctx context.Context, rows []sales.Record, owner, fileID *int64) (int, error)
	// SaveUpload records the file and its rows as one unit; on error neither is kept.
	// The file's row count is the number of rows stored.
	SaveUpload(ctx context.Context, fingerprint, name string, rows []sales.Record, owner *int64) (fileID int64, stored int, err error)
	FileCount(ctx context.Context, owner *int64) (int, error)
	Aggregate(ctx context.Context, owner *int64) (aggregate.Summary, error)
	InsertDraft(ctx context.Context, title, body, persona string, owner *int64) (*sales.Draft, error)
	RecentDrafts(ctx context.Context, since time.Time, owner *int64) ([]sales.Draft, error)
	Clear(ctx context.Context, owner *int64) (sales.ClearCounts, error)
	CreateUser(ctx context.Context, username, email string) (*sales.User, error)
	GetUser(ctx context.Context, id int64) (*sales.User, error)
	ListUsers(ctx context.Context) ([]sales.User, error)
	ListFiles(ctx context.Context, owner *int64) ([]sales.SourceFile, error)
	Close() error
}

// roundCents rounds an amount half away from zero to two decimals.
func roundCents(x float64) float64 {
	return decimal.NewFromFloat(x).Round(2).InexactFloat64()
}

// ownerKey maps an optional owner onto the stored column value; 0 is unowned.
func ownerKey(owner *int64) int64 {
	if owner == nil {
		return 0
	}
	return *owner
}

func matchesOwner(stored int64, owner *int64) bool {
	return owner == nil || stored == *owner
}
