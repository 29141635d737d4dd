package factory

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/euangelion/plan-service/internal/config"
	storepkg "github.com/euangelion/plan-service/internal/store"
	storepg "github.com/euangelion/plan-service/internal/store/postgres"
	storelite "github.com/euangelion/plan-service/internal/store/sqlite"
)

// NewStore returns a store.Store for the configured driver.
// Launches an async bootstrap check; returns the store immediately for fast
// startup.
func NewStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (storepkg.Store, error) {
	switch cfg.DBDriver {
	case "postgres":
		dsn := cfg.PostgresDSN
		if dsn == "" {
			return nil, fmt.Errorf("PLAN_SERVICE_POSTGRES_DSN is required when DB_DRIVER=postgres")
		}
		db, err := storepg.Open(dsn)
		if err != nil {
			return nil, err
		}

		go func() {
			bootstrapTimeout := time.Duration(cfg.BootstrapTimeoutSeconds) * time.Second
			bootstrapCtx, cancel := context.WithTimeout(ctx, bootstrapTimeout)
			defer cancel()

			if err := storepg.Bootstrap(bootstrapCtx, dsn); err != nil {
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
		return storelite.NewWithDB(db), nil

	default:
		return nil, fmt.Errorf("unknown DB_DRIVER: %s", cfg.DBDriver)
	}
}
