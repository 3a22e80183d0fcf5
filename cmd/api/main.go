package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wolfman30/raffle-registration-bot/internal/api/router"
	"github.com/wolfman30/raffle-registration-bot/internal/app/bootstrap"
	appconfig "github.com/wolfman30/raffle-registration-bot/internal/config"
	httpmiddleware "github.com/wolfman30/raffle-registration-bot/internal/http/middleware"
	"github.com/wolfman30/raffle-registration-bot/internal/observability/metrics"
	"github.com/wolfman30/raffle-registration-bot/internal/registration"
	"github.com/wolfman30/raffle-registration-bot/internal/replies"
	"github.com/wolfman30/raffle-registration-bot/pkg/logging"
)

const pruneInterval = time.Hour

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.NewWithWriter(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	logger.Info("starting raffle registration bot",
		"env", cfg.Env,
		"port", cfg.Port,
		"verifier", cfg.VerifierMode,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
	fmt.Println("Server exited gracefully")
}

func run(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) error {
	metricsHandler, registrationMetrics := setupMetrics()

	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	if redisClient != nil {
		defer redisClient.Close()
	}
	pool, err := bootstrap.BuildPostgresPool(ctx, cfg)
	if err != nil {
		return err
	}
	if pool != nil {
		defer pool.Close()
	} else {
		logger.Warn("DATABASE_URL not set, registrants are kept in memory")
	}
	auditDB, err := bootstrap.BuildAuditDB(cfg)
	if err != nil {
		return err
	}
	if auditDB != nil {
		defer auditDB.Close()
	}

	verifier, err := bootstrap.BuildVerifier(cfg, registrationMetrics)
	if err != nil {
		return err
	}
	processed := bootstrap.BuildProcessedStore(pool)
	adapter := bootstrap.BuildMessengerAdapter(cfg, processed, registrationMetrics, logger)
	catalog, err := bootstrap.BuildCatalog(cfg)
	if err != nil {
		return err
	}
	sender := replies.NewSender(catalog, adapter, logger).WithMetrics(registrationMetrics)

	machine := registration.NewMachine(registration.Config{
		Sessions:    bootstrap.BuildSessionStore(redisClient, cfg, logger),
		Replies:     sender,
		Mobile:      verifier,
		OTP:         verifier,
		Guard:       bootstrap.BuildAbuseGuard(redisClient, cfg, logger),
		Registrants: bootstrap.BuildRegistrantRepository(pool),
		Auditor:     bootstrap.BuildAuditor(auditDB, logger),
		Metrics:     registrationMetrics,
		Logger:      logger,
	})
	adapter.SetProcessor(machine)

	limiter := httpmiddleware.NewRateLimiter(cfg.WebhookRateLimit, cfg.WebhookRateBurst).WithMetrics(registrationMetrics)
	go limiter.Run(ctx)
	go bootstrap.RunProcessedPruner(ctx, processed, pruneInterval, bootstrap.ProcessedRetention, logger)

	srv := newHTTPServer(cfg, router.New(&router.Config{
		Logger:         logger,
		Webhook:        adapter,
		MetricsHandler: metricsHandler,
		WebhookLimiter: limiter,
	}))

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	if err := adapter.Wait(shutdownCtx); err != nil {
		logger.Warn("in-flight webhook events did not finish", "error", err)
	}
	logger.Info("server stopped")
	return nil
}

func setupMetrics() (http.Handler, *metrics.RegistrationMetrics) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), metrics.NewRegistrationMetrics(reg)
}

func newHTTPServer(cfg *appconfig.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}
