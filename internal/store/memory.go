package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/KaramelBytes/salesloom-cli/internal/aggregate"
	"github.com/KaramelBytes/salesloom-cli/internal/sales"
)

type memRow struct {
	owner int64
	rec   sales.Record
}

type fileKey struct {
	owner       int64
	fingerprint string
}

// Memory is an in-process Store. Data is lost on exit.
type Memory struct {
	mu     sync.RWMutex
	now    func() time.Time
	nextID int64
	files  map[fileKey]*sales.SourceFile
	rows   []memRow
	drafts []sales.Draft
	users  []sales.User
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{now: time.Now, files: map[fileKey]*sales.SourceFile{}}
}

func (m *Memory) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *Memory) Info(ctx context.Context) sales.StorageInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return sales.StorageInfo{Type: "memory", Connected: true, FileCount: len(m.files), UserCount: len(m.users)}
}

func (m *Memory) FileExists(ctx context.Context, fingerprint string, owner *int64) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for k := range m.files {
		if k.fingerprint == fingerprint && matchesOwner(k.owner, owner) {
			return true, nil
		}
	}
	return false, nil
}

func (m *Memory) RecordFile(ctx context.Context, fingerprint, name string, rows int, owner *int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.recordFile(fingerprint, name, rows, owner), nil
}

func (m *Memory) InsertRows(ctx context.Context, rows []sales.Record, owner, fileID *int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.insertRows(rows, owner, fileID), nil
}

func (m *Memory) SaveUpload(ctx context.Context, fingerprint, name string, rows []sales.Record, owner *int64) (int64, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.recordFile(fingerprint, name, len(rows), owner)
	return id, m.insertRows(rows, owner, &id), nil
}

func (m *Memory) recordFile(fingerprint, name string, rows int, owner *int64) int64 {
	k := fileKey{owner: ownerKey(owner), fingerprint: fingerprint}
	if f, ok := m.files[k]; ok {
		f.RowCount = rows
		return f.ID
	}
	f := &sales.SourceFile{
		ID:          m.id(),
		OwnerID:     sales.Owner(k.owner),
		Fingerprint: fingerprint,
		Name:        name,
		RowCount:    rows,
		UploadedAt:  m.now().UTC(),
	}
	m.files[k] = f
	return f.ID
}

func (m *Memory) insertRows(rows []sales.Record, owner, fileID *int64) int {
	for _, r := range rows {
		r.Amount = roundCents(r.Amount)
		r.OwnerID = sales.Owner(ownerKey(owner))
		r.SourceFileID = nil
		if fileID != nil {
			id := *fileID
			r.SourceFileID = &id
		}
		m.rows = append(m.rows, memRow{owner: ownerKey(owner), rec: r})
	}
	return len(rows)
}

func (m *Memory) FileCount(ctx context.Context, owner *int64) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for k := range m.files {
		if matchesOwner(k.owner, owner) {
			n++
		}
	}
	return n, nil
}

func (m *Memory) Aggregate(ctx context.Context, owner *int64) (aggregate.Summary, error) {
	m.mu.RLock()
	recs := make([]sales.Record, 0, len(m.rows))
	for _, r := range m.rows {
		if matchesOwner(r.owner, owner) {
			recs = append(recs, r.rec)
		}
	}
	m.mu.RUnlock()
	return aggregate.Summarize(recs, aggregate.Basic), nil
}

func (m *Memory) InsertDraft(ctx context.Context, title, body, persona string, owner *int64) (*sales.Draft, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now().UTC()
	d := sales.Draft{
		ID:          m.id(),
		OwnerID:     sales.Owner(ownerKey(owner)),
		Title:       title,
		Body:        body,
		Persona:     persona,
		GeneratedOn: sales.Day(now),
		CreatedAt:   now,
	}
	m.drafts = append(m.drafts, d)
	return &d, nil
}

func (m *Memory) RecentDrafts(ctx context.Context, since time.Time, owner *int64) ([]sales.Draft, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cutoff := sales.Day(since)
	out := []sales.Draft{}
	for _, d := range m.drafts {
		if matchesOwner(ownerKey(d.OwnerID), owner) && !d.GeneratedOn.Before(cutoff) {
			out = append(out, d)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) Clear(ctx context.Context, owner *int64) (sales.ClearCounts, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var c sales.ClearCounts
	rows := m.rows[:0]
	for _, r := range m.rows {
		if matchesOwner(r.owner, owner) {
			c.SalesData++
			continue
		}
		rows = append(rows, r)
	}
	m.rows = rows
	drafts := m.drafts[:0]
	for _, d := range m.drafts {
		if matchesOwner(ownerKey(d.OwnerID), owner) {
			c.Articles++
			continue
		}
		drafts = append(drafts, d)
	}
	m.drafts = drafts
	for k := range m.files {
		if matchesOwner(k.owner, owner) {
			delete(m.files, k)
			c.FileUploads++
		}
	}
	return c, nil
}

func (m *Memory) CreateUser(ctx context.Context, username, email string) (*sales.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Username, username) || strings.EqualFold(u.Email, email) {
			return nil, fmt.Errorf("user %q or email %q: %w", username, email, ErrConflict)
		}
	}
	u := sales.User{ID: m.id(), Username: username, Email: email, CreatedAt: m.now().UTC()}
	m.users = append(m.users, u)
	return &u, nil
}

func (m *Memory) GetUser(ctx context.Context, id int64) (*sales.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.ID == id {
			u := u
			return &u, nil
		}
	}
	return nil, fmt.Errorf("user %d: %w", id, ErrNotFound)
}

func (m *Memory) ListUsers(ctx context.Context) ([]sales.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]sales.User{}, m.users...), nil
}

func (m *Memory) ListFiles(ctx context.Context, owner *int64) ([]sales.SourceFile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []sales.SourceFile{}
	for k, f := range m.files {
		if matchesOwner(k.owner, owner) {
			out = append(out, *f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) Close() error { return nil }
