package providers

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/samber/do/v2"

	"github.com/pagewise/pagewise-server/internal/config"
	"github.com/pagewise/pagewise-server/internal/history"
	"github.com/pagewise/pagewise-server/internal/logger"
	"github.com/pagewise/pagewise-server/internal/service"
	"github.com/pagewise/pagewise-server/internal/store"
	"github.com/pagewise/pagewise-server/internal/store/memory"
	"github.com/pagewise/pagewise-server/internal/store/sqlite"
)

// Database is what every history backend provides: view logs, user
// profiles and a liveness check.
type Database interface {
	history.Backend
	service.UserStore
	Ping(ctx context.Context) error
	Close() error
}

var (
	_ Database = (*memory.Store)(nil)
	_ Database = (*store.Store)(nil)
	_ Database = (*sqlite.Store)(nil)
)

// DatabaseHandle wraps the configured backend with shutdown capability.
type DatabaseHandle struct {
	Database
	Backend string
}

// Shutdown implements do.Shutdownable.
func (h *DatabaseHandle) Shutdown() error {
	return h.Close()
}

// ProvideDatabase opens the history backend named in the configuration.
func ProvideDatabase(i do.Injector) (*DatabaseHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	var (
		db   Database
		path string
		err  error
	)
	switch cfg.History.Backend {
	case config.HistoryBackendMemory:
		db = memory.New()
		log.Warn("Using in-memory history; views are lost on restart")
	case config.HistoryBackendBadger:
		path = filepath.Join(cfg.Data.BasePath, "db")
		db, err = store.New(path, log.Logger)
	case config.HistoryBackendSQLite:
		path = filepath.Join(cfg.Data.BasePath, "pagewise.db")
		db, err = sqlite.Open(path, log.Logger)
	default:
		err = fmt.Errorf("unknown history backend %q", cfg.History.Backend)
	}
	if err != nil {
		return nil, err
	}

	log.Info("Database initialized", "backend", cfg.History.Backend, "path", path)

	return &DatabaseHandle{Database: db, Backend: cfg.History.Backend}, nil
}

// ProvideHistoryStore provides the bounded per-user view history.
func ProvideHistoryStore(i do.Injector) (*history.Store, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	db := do.MustInvoke[*DatabaseHandle](i)

	return history.NewStore(db.Database, history.Options{
		Capacity: cfg.History.Capacity,
	}, log.With("component", "history")), nil
}
