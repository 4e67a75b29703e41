package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"github.com/KaramelBytes/salesloom-cli/internal/aggregate"
	"github.com/KaramelBytes/salesloom-cli/internal/sales"
)

// SQL is a Store backed by database/sql. It speaks SQLite and PostgreSQL.
type SQL struct {
	db  *sql.DB
	d   dialect
	log logrus.FieldLogger
	now func() time.Time
}

// OpenSQLite opens (creating if needed) a SQLite database at path.
func OpenSQLite(ctx context.Context, path string, log logrus.FieldLogger) (*SQL, error) {
	db, err := sql.Open(sqliteDialect.driver, path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)
	return newSQL(ctx, db, sqliteDialect, log)
}

// OpenPostgres connects to PostgreSQL using the pgx database/sql driver.
func OpenPostgres(ctx context.Context, dsn string, log logrus.FieldLogger) (*SQL, error) {
	db, err := sql.Open(postgresDialect.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return newSQL(ctx, db, postgresDialect, log)
}

func newSQL(ctx context.Context, db *sql.DB, d dialect, log logrus.FieldLogger) (*SQL, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	s := &SQL{db: db, d: d, log: log.WithField("module", "store"), now: time.Now}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect %s: %w", d.name, err)
	}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQL) migrate(ctx context.Context) error {
	for _, stmt := range s.d.schema() {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	return nil
}

func (s *SQL) q(query string) string { return s.d.rebind(query) }

// ownerFilter returns a WHERE fragment restricting to owner, or "" when unscoped.
func ownerFilter(owner *int64, prefix string) (string, []any) {
	if owner == nil {
		return "", nil
	}
	return " " + prefix + " user_id = ?", []any{*owner}
}

func (s *SQL) Info(ctx context.Context) sales.StorageInfo {
	info := sales.StorageInfo{Type: s.d.name}
	if err := s.db.PingContext(ctx); err != nil {
		s.log.WithError(err).Warn("storage ping failed")
		return info
	}
	info.Connected = true
	if n, err := s.FileCount(ctx, nil); err == nil {
		info.FileCount = n
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&info.UserCount); err != nil {
		s.log.WithError(err).Warn("count users failed")
	}
	return info
}

func (s *SQL) FileExists(ctx context.Context, fingerprint string, owner *int64) (bool, error) {
	where, args := ownerFilter(owner, "AND")
	var n int
	err := s.db.QueryRowContext(ctx,
		s.q(`SELECT COUNT(*) FROM file_uploads WHERE file_hash = ?`+where),
		append([]any{fingerprint}, args...)...).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("file exists: %w", err)
	}
	return n > 0, nil
}

// execer is the part of *sql.DB and *sql.Tx the write helpers need.
type execer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

func (s *SQL) RecordFile(ctx context.Context, fingerprint, name string, rows int, owner *int64) (int64, error) {
	return s.recordFile(ctx, s.db, fingerprint, name, rows, owner)
}

func (s *SQL) InsertRows(ctx context.Context, rows []sales.Record, owner, fileID *int64) (n int, err error) {
	if len(rows) == 0 {
		return 0, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin insert: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	if n, err = s.insertRows(ctx, tx, rows, owner, fileID); err != nil {
		return 0, err
	}
	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit insert: %w", err)
	}
	return n, nil
}

func (s *SQL) SaveUpload(ctx context.Context, fingerprint, name string, rows []sales.Record, owner *int64) (id int64, n int, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("begin upload: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	if id, err = s.recordFile(ctx, tx, fingerprint, name, len(rows), owner); err != nil {
		return 0, 0, err
	}
	if n, err = s.insertRows(ctx, tx, rows, owner, &id); err != nil {
		return 0, 0, err
	}
	if err = tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("commit upload: %w", err)
	}
	return id, n, nil
}

func (s *SQL) recordFile(ctx context.Context, x execer, fingerprint, name string, rows int, owner *int64) (int64, error) {
	var id int64
	err := x.QueryRowContext(ctx, s.q(`
INSERT INTO file_uploads (user_id, file_hash, filename, record_count, upload_date)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (user_id, file_hash) DO UPDATE SET record_count = excluded.record_count
RETURNING id`),
		ownerKey(owner), fingerprint, name, rows, s.d.timeArg(s.now())).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("record file: %w", err)
	}
	return id, nil
}

func (s *SQL) insertRows(ctx context.Context, x execer, rows []sales.Record, owner, fileID *int64) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	stmt, err := x.PrepareContext(ctx, s.q(`
INSERT INTO sales_data (user_id, file_upload_id, date, product, category, sales_amount, quantity, region, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`))
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	var file any
	if fileID != nil {
		file = *fileID
	}
	created := s.d.timeArg(s.now())
	for i, r := range rows {
		if _, err := stmt.ExecContext(ctx,
			ownerKey(owner), file, s.d.dateArg(r.OccurredOn),
			r.Product, r.Category, roundCents(r.Amount), r.Quantity, r.Region, created); err != nil {
			return 0, fmt.Errorf("insert row %d: %w", i, err)
		}
	}
	return len(rows), nil
}

func (s *SQL) FileCount(ctx context.Context, owner *int64) (int, error) {
	where, args := ownerFilter(owner, "WHERE")
	var n int
	if err := s.db.QueryRowContext(ctx, s.q(`SELECT COUNT(*) FROM file_uploads`+where), args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("file count: %w", err)
	}
	return n, nil
}

// Aggregate loads the owner's rows in insertion order and summarizes them in Go,
// which keeps tie-breaking identical across backends.
func (s *SQL) Aggregate(ctx context.Context, owner *int64) (aggregate.Summary, error) {
	where, args := ownerFilter(owner, "WHERE")
	rows, err := s.db.QueryContext(ctx,
		s.q(`SELECT date, product, category, sales_amount, quantity, region FROM sales_data`+where+` ORDER BY id`),
		args...)
	if err != nil {
		return aggregate.Empty(), fmt.Errorf("aggregate: %w", err)
	}
	defer rows.Close()

	var recs []sales.Record
	for rows.Next() {
		var (
			r  sales.Record
			dt timeValue
		)
		if err := rows.Scan(&dt, &r.Product, &r.Category, &r.Amount, &r.Quantity, &r.Region); err != nil {
			return aggregate.Empty(), fmt.Errorf("aggregate scan: %w", err)
		}
		if dt.Valid {
			d := sales.Day(dt.Time)
			r.OccurredOn = &d
		}
		recs = append(recs, r)
	}
	if err := rows.Err(); err != nil {
		return aggregate.Empty(), fmt.Errorf("aggregate rows: %w", err)
	}
	return aggregate.Summarize(recs, aggregate.Basic), nil
}

func (s *SQL) InsertDraft(ctx context.Context, title, body, persona string, owner *int64) (*sales.Draft, error) {
	now := s.now().UTC()
	d := &sales.Draft{
		OwnerID:     sales.Owner(ownerKey(owner)),
		Title:       title,
		Body:        body,
		Persona:     persona,
		GeneratedOn: sales.Day(now),
		CreatedAt:   now,
	}
	err := s.db.QueryRowContext(ctx, s.q(`
INSERT INTO articles (user_id, title, content, article_type, generated_date, created_at)
VALUES (?, ?, ?, ?, ?, ?)
RETURNING id`),
		ownerKey(owner), title, body, persona, s.d.dateArg(&d.GeneratedOn), s.d.timeArg(now)).Scan(&d.ID)
	if err != nil {
		return nil, fmt.Errorf("insert draft: %w", err)
	}
	return d, nil
}

func (s *SQL) RecentDrafts(ctx context.Context, since time.Time, owner *int64) ([]sales.Draft, error) {
	where, args := ownerFilter(owner, "AND")
	cutoff := sales.Day(since)
	rows, err := s.db.QueryContext(ctx, s.q(`
SELECT id, user_id, title, content, article_type, generated_date, created_at
FROM articles WHERE generated_date >= ?`+where+`
ORDER BY created_at DESC, id DESC`),
		append([]any{s.d.dateArg(&cutoff)}, args...)...)
	if err != nil {
		return nil, fmt.Errorf("recent drafts: %w", err)
	}
	defer rows.Close()

	out := []sales.Draft{}
	for rows.Next() {
		var (
			d         sales.Draft
			owner     int64
			generated timeValue
			created   timeValue
		)
		if err := rows.Scan(&d.ID, &owner, &d.Title, &d.Body, &d.Persona, &generated, &created); err != nil {
			return nil, fmt.Errorf("recent drafts scan: %w", err)
		}
		d.OwnerID = sales.Owner(owner)
		d.GeneratedOn = sales.Day(generated.Time)
		d.CreatedAt = created.Time
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *SQL) Clear(ctx context.Context, owner *int64) (c sales.ClearCounts, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return c, fmt.Errorf("begin clear: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	where, args := ownerFilter(owner, "WHERE")
	targets := []struct {
		table string
		count *int
	}{
		{"sales_data", &c.SalesData},
		{"articles", &c.Articles},
		{"file_uploads", &c.FileUploads},
	}
	for _, t := range targets {
		res, err := tx.ExecContext(ctx, s.q(`DELETE FROM `+t.table+where), args...)
		if err != nil {
			return sales.ClearCounts{}, fmt.Errorf("clear %s: %w", t.table, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return sales.ClearCounts{}, fmt.Errorf("clear %s: %w", t.table, err)
		}
		*t.count = int(n)
	}
	if err = tx.Commit(); err != nil {
		return sales.ClearCounts{}, fmt.Errorf("commit clear: %w", err)
	}
	return c, nil
}

func (s *SQL) CreateUser(ctx context.Context, username, email string) (*sales.User, error) {
	var taken int
	if err := s.db.QueryRowContext(ctx, s.q(`
SELECT COUNT(*) FROM users WHERE lower(username) = lower(?) OR lower(email) = lower(?)`),
		username, email).Scan(&taken); err != nil {
		return nil, fmt.Errorf("check user %q: %w", username, err)
	}
	if taken > 0 {
		return nil, fmt.Errorf("user %q or email %q: %w", username, email, ErrConflict)
	}
	u := &sales.User{Username: username, Email: email, CreatedAt: s.now().UTC()}
	err := s.db.QueryRowContext(ctx, s.q(`
INSERT INTO users (username, email, created_at) VALUES (?, ?, ?) RETURNING id`),
		username, email, s.d.timeArg(u.CreatedAt)).Scan(&u.ID)
	if err != nil {
		return nil, fmt.Errorf("create user %q: %w", username, err)
	}
	return u, nil
}

func (s *SQL) GetUser(ctx context.Context, id int64) (*sales.User, error) {
	var (
		u       sales.User
		created timeValue
	)
	err := s.db.QueryRowContext(ctx, s.q(`SELECT id, username, email, created_at FROM users WHERE id = ?`), id).
		Scan(&u.ID, &u.Username, &u.Email, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user %d: %w", id, err)
	}
	u.CreatedAt = created.Time
	return &u, nil
}

func (s *SQL) ListUsers(ctx context.Context) ([]sales.User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, username, email, created_at FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()
	out := []sales.User{}
	for rows.Next() {
		var (
			u       sales.User
			created timeValue
		)
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &created); err != nil {
			return nil, fmt.Errorf("list users scan: %w", err)
		}
		u.CreatedAt = created.Time
		out = append(out, u)
	}
	return out, rows.Err()
}

func (s *SQL) ListFiles(ctx context.Context, owner *int64) ([]sales.SourceFile, error) {
	where, args := ownerFilter(owner, "WHERE")
	rows, err := s.db.QueryContext(ctx,
		s.q(`SELECT id, user_id, file_hash, filename, record_count, upload_date FROM file_uploads`+where+` ORDER BY id`),
		args...)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	defer rows.Close()
	out := []sales.SourceFile{}
	for rows.Next() {
		var (
			f        sales.SourceFile
			owner    int64
			uploaded timeValue
		)
		if err := rows.Scan(&f.ID, &owner, &f.Fingerprint, &f.Name, &f.RowCount, &uploaded); err != nil {
			return nil, fmt.Errorf("list files scan: %w", err)
		}
		f.OwnerID = sales.Owner(owner)
		f.UploadedAt = uploaded.Time
		out = append(out, f)
	}
	return out, rows.Err()
}

func (s *SQL) Close() error { return s.db.Close() }
