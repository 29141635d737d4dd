package factory

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/euangelion/plan-service/internal/config"
	"github.com/euangelion/plan-service/internal/generative"
)

// NewTextProvider creates the generative text provider when enabled.
// Launches an optional async warmup ping; returns the provider immediately
// for fast startup. Returns nil when generation is disabled, which routes
// every day through deterministic composition.
func NewTextProvider(ctx context.Context, cfg *config.Config, log zerolog.Logger) generative.TextProvider {
	if !cfg.GenerativeEnabled {
		return nil
	}

	provider := generative.NewHTTPProvider(cfg.ProviderURL, cfg.ProviderModel,
		time.Duration(cfg.ProviderTimeoutSecs)*time.Second)

	go func() {
		warmupTimeout := time.Duration(cfg.BootstrapTimeoutSeconds) * time.Second
		warmupCtx, cancel := context.WithTimeout(ctx, warmupTimeout)
		defer cancel()

		if err := provider.HealthPing(warmupCtx); err != nil {
			log.Warn().Err(err).
				Str("url", cfg.ProviderURL).Str("model", cfg.ProviderModel).
				Msg("text provider warmup failed")
		} else {
			log.Debug().Str("model", cfg.ProviderModel).Msg("text provider warmup completed")
		}
	}()

	return provider
}
