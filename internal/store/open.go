package store

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/KaramelBytes/salesloom-cli/internal/utils"
)

// Backend names accepted by Open.
const (
	BackendAuto     = "auto"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// Options selects and configures a backend.
type Options struct {
	Backend     string
	DatabaseURL string
	SQLitePath  string
}

func (o Options) resolve() string {
	b := strings.ToLower(strings.TrimSpace(o.Backend))
	if b != "" && b != BackendAuto {
		return b
	}
	switch {
	case o.DatabaseURL != "":
		return BackendPostgres
	case o.SQLitePath == "" || o.SQLitePath == ":memory:":
		return BackendMemory
	default:
		return BackendSQLite
	}
}

// Open returns the configured Store. A database that cannot be reached degrades
// to the in-memory store and the failure is logged.
func Open(ctx context.Context, opt Options, log logrus.FieldLogger) (Store, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	log = log.WithField("module", "store")
	switch backend := opt.resolve(); backend {
	case BackendMemory:
		log.Info("using in-memory storage")
		return NewMemory(), nil
	case BackendPostgres:
		if opt.DatabaseURL == "" {
			return nil, fmt.Errorf("postgres storage requires database_url")
		}
		s, err := OpenPostgres(ctx, opt.DatabaseURL, log)
		if err != nil {
			log.WithError(err).Error("postgres unavailable, falling back to in-memory storage")
			return NewMemory(), nil
		}
		log.Info("connected to postgres")
		return s, nil
	case BackendSQLite:
		if dir := filepath.Dir(opt.SQLitePath); dir != "" && dir != "." {
			if err := utils.EnsureDir(dir); err != nil {
				return nil, fmt.Errorf("create sqlite dir: %w", err)
			}
		}
		s, err := OpenSQLite(ctx, opt.SQLitePath, log)
		if err != nil {
			log.WithError(err).Error("sqlite unavailable, falling back to in-memory storage")
			return NewMemory(), nil
		}
		log.WithField("path", opt.SQLitePath).Debug("opened sqlite storage")
		return s, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", backend)
	}
}
