package planservice

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/euangelion/plan-service/internal/api"
	"github.com/euangelion/plan-service/internal/config"
	"github.com/euangelion/plan-service/internal/corpus"
	"github.com/euangelion/plan-service/internal/factory"
	"github.com/euangelion/plan-service/internal/generative"
	"github.com/euangelion/plan-service/internal/health"
	"github.com/euangelion/plan-service/internal/locks"
	"github.com/euangelion/plan-service/internal/logger"
	"github.com/euangelion/plan-service/internal/services"
	"github.com/euangelion/plan-service/internal/store"
)

// Run starts the plan service HTTP server and blocks until shutdown or error.
func Run() error {
	log := logger.New("plan-service")

	cfg, err := config.New()
	if err != nil {
		log.Error().Err(err).Msg("Failed to load configuration")
		return err
	}
	if cfg.DebugLogging {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	log.Info().
		Str("db_driver", cfg.DBDriver).
		Int("http_port", cfg.HTTPPort).
		Bool("generative", cfg.GenerativeEnabled).
		Msg("Plan service starting")

	// Cancellable root context bound to SIGINT/SIGTERM
	ctx, stop := newServerContext()
	defer stop()

	st, err := factory.NewStore(ctx, cfg, log)
	if err != nil {
		log.Error().Stack().Err(err).Msg("Store adapter unavailable")
		return err
	}
	idx := factory.NewCorpusIndex(cfg, log)
	provider := factory.NewTextProvider(ctx, cfg, log)

	svcHealth := startHealthCheckers(ctx, cfg, log, st)
	router := buildRouter(st, idx, provider, cfg, svcHealth.IsHealthy, log)

	if err := waitUntilHealthy(ctx, cfg, svcHealth); err != nil {
		log.Error().Stack().Err(err).Msg("startup health check failed")
		return err
	}

	server := newHTTPServer(ctx, cfg, router)
	errCh := serveHTTP(server, log, cfg)

	select {
	case <-ctx.Done():
		log.Info().Msg("Shutting down server")
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctxShutdown); err != nil {
			log.Error().Stack().Err(err).Msg("Server forced to shutdown")
			return err
		}
		log.Info().Msg("Server exited")
		return nil
	case err := <-errCh:
		log.Error().Stack().Err(err).Msg("HTTP server failed")
		return err
	}
}

// buildRouter wires the services and handlers behind the HTTP surface.
func buildRouter(st store.Store, idx *corpus.Index, provider generative.TextProvider, cfg *config.Config, probe func() bool, log zerolog.Logger) *mux.Router {
	adapter := generative.New(provider, generative.Config{
		Enabled:               cfg.GenerativeEnabled,
		GenerativeClosingDays: cfg.GenerativeClosingDays,
	}, log)
	lockStore := locks.NewStore(time.Duration(cfg.LockTTLSeconds) * time.Second)

	return api.NewRouter(api.RouterDeps{
		Slots:       services.NewSlotService(st),
		Plans:       services.NewPlanService(st, adapter, idx, cfg.LengthMinutes, log),
		Coordinator: services.NewGenerationCoordinator(st, lockStore, idx, adapter, cfg.LengthMinutes, log),
		HealthProbe: probe,
	})
}

// startHealthCheckers starts the store checker and the service aggregator.
func startHealthCheckers(ctx context.Context, cfg *config.Config, log zerolog.Logger, st store.Store) *health.ServiceHealthChecker {
	probeTimeout := time.Duration(cfg.HealthProbeTimeoutSeconds) * time.Second
	interval := time.Duration(cfg.HealthIntervalSeconds) * time.Second

	storeChecker := store.NewStoreHealthChecker(st, log, probeTimeout)
	go storeChecker.Start(ctx, interval)

	svcHealth := health.NewServiceHealthChecker(log, storeChecker)
	go svcHealth.Start(ctx, interval)
	return svcHealth
}

func newHTTPServer(ctx context.Context, cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           handler,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
}

func serveHTTP(server *http.Server, log zerolog.Logger, cfg *config.Config) <-chan error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.HTTPPort).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()
	return errCh
}

// calculateStartupHealthTimeout returns the startup health timeout in seconds,
// calculated as interval*2 with a minimum of 60 seconds.
func calculateStartupHealthTimeout(healthIntervalSeconds int) int {
	timeout := healthIntervalSeconds * 2
	if timeout < 60 {
		return 60
	}
	return timeout
}

// waitUntilHealthy blocks until service health is healthy or the startup window expires.
func waitUntilHealthy(ctx context.Context, cfg *config.Config, svcHealth *health.ServiceHealthChecker) error {
	// Checkers start unhealthy and need a probe cycle to flip.
	timeoutSeconds := calculateStartupHealthTimeout(cfg.HealthIntervalSeconds)
	deadline := time.Now().Add(time.Duration(timeoutSeconds) * time.Second)
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()
	for {
		if svcHealth.IsHealthy() {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("startup aborted: dependencies not healthy within %d seconds", timeoutSeconds)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// newServerContext returns a cancellable context that is cancelled on SIGINT/SIGTERM.
func newServerContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
