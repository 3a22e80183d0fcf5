package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/raffle-registration-bot/internal/abuse"
	"github.com/wolfman30/raffle-registration-bot/internal/channels/messenger"
	"github.com/wolfman30/raffle-registration-bot/internal/compliance"
	appconfig "github.com/wolfman30/raffle-registration-bot/internal/config"
	"github.com/wolfman30/raffle-registration-bot/internal/events"
	"github.com/wolfman30/raffle-registration-bot/internal/observability/metrics"
	"github.com/wolfman30/raffle-registration-bot/internal/registrants"
	"github.com/wolfman30/raffle-registration-bot/internal/replies"
	"github.com/wolfman30/raffle-registration-bot/internal/session"
	"github.com/wolfman30/raffle-registration-bot/internal/verification"
	"github.com/wolfman30/raffle-registration-bot/pkg/logging"
)

// BuildSessionStore prefers Redis and falls back to process memory.
func BuildSessionStore(redisClient *redis.Client, cfg *appconfig.Config, logger *logging.Logger) session.Store {
	if redisClient == nil {
		logger.Warn("sessions are kept in memory and will not survive a restart")
		return session.NewMemoryStore(cfg.SessionTTL)
	}
	return session.NewRedisStore(redisClient, cfg.SessionTTL)
}

// BuildAbuseGuard prefers Redis and falls back to process memory.
func BuildAbuseGuard(redisClient *redis.Client, cfg *appconfig.Config, logger *logging.Logger) abuse.Guard {
	guardCfg := abuse.Config{MaxAttempts: cfg.AbuseMaxAttempts, Window: cfg.AbuseWindow}
	if redisClient == nil {
		return abuse.NewMemoryGuard(guardCfg)
	}
	return abuse.NewRedisGuard(redisClient, guardCfg, logger)
}

// BuildVerifier selects the verification backend named by VERIFIER_MODE.
func BuildVerifier(cfg *appconfig.Config, m *metrics.RegistrationMetrics) (verification.Verifier, error) {
	switch cfg.VerifierMode {
	case appconfig.VerifierModeStub, "":
		return verification.NewStub(cfg.StubMobileRegistered, cfg.StubOTPCode), nil
	case appconfig.VerifierModeHTTP:
		if cfg.VerifierBaseURL == "" {
			return nil, fmt.Errorf("bootstrap: VERIFIER_BASE_URL is required for http verifier")
		}
		return verification.NewHTTPClient(cfg.VerifierBaseURL, cfg.VerifierAPIKey, cfg.VerifierTimeout).WithMetrics(m), nil
	}
	return nil, fmt.Errorf("bootstrap: unknown verifier mode %q", cfg.VerifierMode)
}

// BuildRegistrantRepository uses Postgres when a pool is available.
func BuildRegistrantRepository(pool *pgxpool.Pool) registrants.Repository {
	if pool == nil {
		return registrants.NewInMemoryRepository()
	}
	return registrants.NewPostgresRepository(pool)
}

// BuildProcessedStore uses Postgres when a pool is available.
func BuildProcessedStore(pool *pgxpool.Pool) messenger.ProcessedStore {
	if pool == nil {
		return events.NewMemoryStore(events.DefaultMemoryTTL)
	}
	return events.NewProcessedStore(pool)
}

// BuildAuditor writes to the audit table when a database is available and
// to the log otherwise.
func BuildAuditor(db *sql.DB, logger *logging.Logger) compliance.Auditor {
	if db == nil {
		return compliance.NewLogAuditor(logger)
	}
	return compliance.NewAuditService(db)
}

// BuildCatalog renders replies with the configured campaign copy, overlaid
// with CAMPAIGN_FILE when one is set.
func BuildCatalog(cfg *appconfig.Config) (*replies.Catalog, error) {
	campaign := replies.Campaign{
		Brand:    cfg.CampaignBrand,
		Product:  cfg.CampaignProduct,
		Name:     cfg.CampaignName,
		PageURL:  cfg.CampaignPageURL,
		Contact:  cfg.CampaignContact,
		PermitNo: cfg.CampaignPermitNo,
		SeriesNo: cfg.CampaignSeriesNo,
	}
	if cfg.CampaignFile != "" {
		var err error
		if campaign, err = replies.LoadCampaignFile(cfg.CampaignFile, campaign); err != nil {
			return nil, fmt.Errorf("bootstrap: %w", err)
		}
	}
	return replies.NewCatalog(campaign), nil
}

// BuildMessengerAdapter creates the channel adapter. The processor is wired
// later with SetProcessor.
func BuildMessengerAdapter(cfg *appconfig.Config, processed messenger.ProcessedStore, m *metrics.RegistrationMetrics, logger *logging.Logger) *messenger.Adapter {
	adapter := messenger.NewAdapter(messenger.AdapterConfig{
		PageAccessToken: cfg.MessengerPageAccessToken,
		AppSecret:       cfg.MessengerAppSecret,
		VerifyToken:     cfg.MessengerVerifyToken,
		ClientOptions: []messenger.ClientOption{
			messenger.WithTimeout(cfg.SendTimeout),
			messenger.WithRetry(cfg.SendRetryMaxAttempts, cfg.SendRetryBaseDelay),
			messenger.WithGraphAPIBase(cfg.GraphAPIBase),
		},
		ProcessTimeout: cfg.ProcessTimeout,
		Processed:      processed,
		Metrics:        m,
		Logger:         logger,
	})
	return adapter
}

// ProcessedRetention bounds how long Postgres keeps delivered message ids.
const ProcessedRetention = 7 * 24 * time.Hour

type processedPruner interface {
	PruneBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// RunProcessedPruner deletes processed message ids older than retention on
// every tick until ctx is cancelled. Stores that keep their own TTL are
// ignored.
func RunProcessedPruner(ctx context.Context, store messenger.ProcessedStore, interval, retention time.Duration, logger *logging.Logger) {
	pruner, ok := store.(processedPruner)
	if !ok {
		return
	}
	if logger == nil {
		logger = logging.Default()
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			pruneOnce(ctx, pruner, now.Add(-retention), logger)
		}
	}
}

func pruneOnce(ctx context.Context, pruner processedPruner, cutoff time.Time, logger *logging.Logger) {
	removed, err := pruner.PruneBefore(ctx, cutoff)
	if err != nil {
		logger.Warn("failed to prune processed events", "error", err)
		return
	}
	if removed > 0 {
		logger.Info("pruned processed events", "removed", removed, "cutoff", cutoff)
	}
}
