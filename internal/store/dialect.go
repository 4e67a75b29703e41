package store

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/KaramelBytes/salesloom-cli/internal/sales"
)

// dialect captures the differences between the supported SQL engines.
type dialect struct {
	name       string
	driver     string
	idColumn   string
	timeType   string
	dateType   string
	amountType string
	positional bool
}

var (
	sqliteDialect = dialect{
		name:       "sqlite",
		driver:     "sqlite",
		idColumn:   "INTEGER PRIMARY KEY AUTOINCREMENT",
		timeType:   "TEXT",
		dateType:   "TEXT",
		amountType: "REAL",
	}
	postgresDialect = dialect{
		name:       "postgres",
		driver:     "pgx",
		idColumn:   "BIGSERIAL PRIMARY KEY",
		timeType:   "TIMESTAMPTZ",
		dateType:   "DATE",
		amountType: "NUMERIC(12,2)",
		positional: true,
	}
)

// rebind rewrites ? placeholders to $n for engines that need positional parameters.
func (d dialect) rebind(q string) string {
	if !d.positional {
		return q
	}
	var b strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (d dialect) schema() []string {
	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS users (
	id %s,
	username TEXT NOT NULL UNIQUE,
	email TEXT NOT NULL UNIQUE,
	created_at %s NOT NULL
)`, d.idColumn, d.timeType),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS file_uploads (
	id %s,
	user_id BIGINT NOT NULL DEFAULT 0,
	file_hash TEXT NOT NULL,
	filename TEXT NOT NULL,
	record_count INTEGER NOT NULL DEFAULT 0,
	upload_date %s NOT NULL,
	UNIQUE (user_id, file_hash)
)`, d.idColumn, d.timeType),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS sales_data (
	id %s,
	user_id BIGINT NOT NULL DEFAULT 0,
	file_upload_id BIGINT,
	date %s,
	product TEXT NOT NULL,
	category TEXT NOT NULL,
	sales_amount %s NOT NULL,
	quantity INTEGER NOT NULL,
	region TEXT NOT NULL,
	created_at %s NOT NULL
)`, d.idColumn, d.dateType, d.amountType, d.timeType),
		`CREATE INDEX IF NOT EXISTS idx_sales_data_user ON sales_data (user_id)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS articles (
	id %s,
	user_id BIGINT NOT NULL DEFAULT 0,
	title TEXT NOT NULL,
	content TEXT NOT NULL,
	article_type TEXT NOT NULL,
	generated_date %s NOT NULL,
	created_at %s NOT NULL
)`, d.idColumn, d.dateType, d.timeType),
	}
}

// timeArg encodes a timestamp parameter. SQLite stores RFC 3339 text.
func (d dialect) timeArg(t time.Time) any {
	if d.positional {
		return t.UTC()
	}
	return t.UTC().Format(time.RFC3339Nano)
}

// dateArg encodes an optional calendar date parameter.
func (d dialect) dateArg(t *time.Time) any {
	if t == nil {
		return nil
	}
	if d.positional {
		return sales.Day(*t)
	}
	return t.Format(sales.DateLayout)
}

var scanLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05",
	sales.DateLayout,
}

// timeValue scans TIMESTAMP, DATE and text columns into a time.Time.
type timeValue struct {
	Time  time.Time
	Valid bool
}

func (v *timeValue) Scan(src any) error {
	switch s := src.(type) {
	case nil:
		v.Time, v.Valid = time.Time{}, false
		return nil
	case time.Time:
		v.Time, v.Valid = s.UTC(), true
		return nil
	case []byte:
		return v.parse(string(s))
	case string:
		return v.parse(s)
	}
	return fmt.Errorf("cannot scan %T into time", src)
}

func (v *timeValue) parse(s string) error {
	for _, layout := range scanLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			v.Time, v.Valid = t.UTC(), true
			return nil
		}
	}
	return fmt.Errorf("unrecognized time %q", s)
}
