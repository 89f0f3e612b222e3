// Package factory builds the service's infrastructure components from
// configuration.
package factory

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/linkgrove/searchsync/internal/config"
	storepkg "github.com/linkgrove/searchsync/internal/store"
	storepg "github.com/linkgrove/searchsync/internal/store/postgres"
	storelite "github.com/linkgrove/searchsync/internal/store/sqlite"
)

// NewStore returns the projection store selected by cfg.DBDriver. The
// connection opens synchronously because health checks probe it right away;
// schema bootstrap runs async so startup stays fast.
func NewStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (storepkg.Store, error) {
	switch cfg.DBDriver {
	case "postgres":
		if cfg.PostgresDSN == "" {
			return nil, fmt.Errorf("SEARCHSYNC_POSTGRES_DSN is required when DB_DRIVER=postgres")
		}
		db, err := storepg.Open(cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		go func() {
			bootstrapCtx, cancel := context.WithTimeout(ctx, time.Duration(cfg.BootstrapTimeoutSeconds)*time.Second)
			defer cancel()
			if err := storepg.Bootstrap(bootstrapCtx, db); err != nil {
				log.Warn().Err(err).Str("driver", cfg.DBDriver).Msg("store bootstrap check failed")
			} else {
				log.Debug().Str("driver", cfg.DBDriver).Msg("store bootstrap check completed")
			}
		}()
		return storepg.NewWithDB(db), nil

	case "sqlite":
		db, err := storelite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		// sqlite bootstrap is immediate; no network involved
		if err := storelite.Bootstrap(ctx, db); err != nil {
			return nil, err
		}
		return storelite.NewWithDB(db), nil

	default:
		return nil, fmt.Errorf("unknown DB_DRIVER: %s", cfg.DBDriver)
	}
}
