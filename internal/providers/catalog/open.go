package catalog

import (
	"context"
	"fmt"

	"github.com/GriffinCanCode/CueDeck/backend/internal/domain/session"
	"github.com/GriffinCanCode/CueDeck/backend/internal/infrastructure/config"
	"github.com/GriffinCanCode/CueDeck/backend/internal/logging"
	"go.uber.org/zap"
)

// Catalog is a session.Catalog holding resources
type Catalog interface {
	session.Catalog
	Close() error
}

// Open builds the catalog selected by cfg.Catalog.Driver
func Open(ctx context.Context, cfg *config.Config, logger *logging.Logger) (Catalog, error) {
	logger = logger.OrNop()
	switch cfg.Catalog.Driver {
	case "memory":
		logger.Info("Using in-memory catalog")
		return NewMemory(), nil
	case "sqlite":
		path := cfg.CatalogDBPath()
		db, err := OpenSQLite(ctx, path)
		if err != nil {
			return nil, err
		}
		logger.Info("Using SQLite catalog", zap.String("path", path))
		return db, nil
	case "remote":
		rc := DefaultRemoteConfig(cfg.Catalog.URL)
		if cfg.Catalog.Timeout > 0 {
			rc.Timeout = cfg.Catalog.Timeout
		}
		rc.RPS = cfg.Catalog.RPS
		remote, err := NewRemote(rc, logger)
		if err != nil {
			return nil, err
		}
		logger.Info("Using remote catalog", zap.String("url", cfg.Catalog.URL))
		return remote, nil
	default:
		return nil, fmt.Errorf("unknown catalog driver %q", cfg.Catalog.Driver)
	}
}
