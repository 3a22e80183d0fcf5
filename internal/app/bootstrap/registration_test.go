package bootstrap

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/raffle-registration-bot/internal/abuse"
	"github.com/wolfman30/raffle-registration-bot/internal/compliance"
	appconfig "github.com/wolfman30/raffle-registration-bot/internal/config"
	"github.com/wolfman30/raffle-registration-bot/internal/events"
	"github.com/wolfman30/raffle-registration-bot/internal/registrants"
	"github.com/wolfman30/raffle-registration-bot/internal/replies"
	"github.com/wolfman30/raffle-registration-bot/internal/session"
	"github.com/wolfman30/raffle-registration-bot/internal/verification"
	"github.com/wolfman30/raffle-registration-bot/pkg/logging"
)

func TestBuildStoresFallBackToMemory(t *testing.T) {
	cfg := &appconfig.Config{AbuseMaxAttempts: 3, AbuseWindow: time.Hour, SessionTTL: time.Hour}
	logger := logging.Discard()

	if _, ok := BuildSessionStore(nil, cfg, logger).(*session.MemoryStore); !ok {
		t.Fatalf("expected memory session store")
	}
	if _, ok := BuildAbuseGuard(nil, cfg, logger).(*abuse.MemoryGuard); !ok {
		t.Fatalf("expected memory abuse guard")
	}
	if _, ok := BuildRegistrantRepository(nil).(*registrants.InMemoryRepository); !ok {
		t.Fatalf("expected memory registrant repository")
	}
	if _, ok := BuildProcessedStore(nil).(*events.MemoryStore); !ok {
		t.Fatalf("expected memory processed store")
	}
	if _, ok := BuildAuditor(nil, logger).(*compliance.LogAuditor); !ok {
		t.Fatalf("expected log auditor")
	}
}

func TestBuildStoresUseRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	cfg := &appconfig.Config{AbuseMaxAttempts: 3, AbuseWindow: time.Hour, SessionTTL: time.Hour}

	if _, ok := BuildSessionStore(client, cfg, logging.Discard()).(*session.RedisStore); !ok {
		t.Fatalf("expected redis session store")
	}
	if _, ok := BuildAbuseGuard(client, cfg, logging.Discard()).(*abuse.RedisGuard); !ok {
		t.Fatalf("expected redis abuse guard")
	}
}

func TestBuildVerifier(t *testing.T) {
	v, err := BuildVerifier(&appconfig.Config{VerifierMode: appconfig.VerifierModeStub, StubOTPCode: "123456"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	stub, ok := v.(*verification.Stub)
	if !ok {
		t.Fatalf("expected stub verifier, got %T", v)
	}
	if stub.OTPCode != "123456" {
		t.Fatalf("expected configured OTP code, got %q", stub.OTPCode)
	}

	v, err = BuildVerifier(&appconfig.Config{VerifierMode: appconfig.VerifierModeHTTP, VerifierBaseURL: "http://verifier.local", VerifierTimeout: time.Second}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := v.(*verification.HTTPClient); !ok {
		t.Fatalf("expected http verifier, got %T", v)
	}

	if _, err := BuildVerifier(&appconfig.Config{VerifierMode: appconfig.VerifierModeHTTP}, nil); err == nil {
		t.Fatalf("expected error without base url")
	}
	if _, err := BuildVerifier(&appconfig.Config{VerifierMode: "carrier-pigeon"}, nil); err == nil {
		t.Fatalf("expected error for unknown mode")
	}
}

func TestBuildCatalogUsesCampaignCopy(t *testing.T) {
	catalog, err := BuildCatalog(&appconfig.Config{
		CampaignBrand:   "Bear Brand",
		CampaignProduct: "BEAR BRAND POWDERED MILK DRINK",
		CampaignName:    "Summer Raffle",
		CampaignPageURL: "https://www.facebook.com/BearBrandPH/",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	req := catalog.Render("psid-1", replies.PrivacyTemplate)
	if req.Recipient.ID != "psid-1" {
		t.Fatalf("expected recipient psid-1, got %q", req.Recipient.ID)
	}
}

func TestBuildCatalogMissingCampaignFile(t *testing.T) {
	_, err := BuildCatalog(&appconfig.Config{CampaignFile: filepath.Join(t.TempDir(), "missing.yaml")})
	if err == nil {
		t.Fatalf("expected error for missing campaign file")
	}
}

func TestBuildMessengerAdapter(t *testing.T) {
	cfg := &appconfig.Config{
		MessengerPageAccessToken: "token",
		MessengerVerifyToken:     "verify",
		GraphAPIBase:             "http://graph.local",
		SendTimeout:              time.Second,
		SendRetryMaxAttempts:     1,
		ProcessTimeout:           time.Second,
	}
	if adapter := BuildMessengerAdapter(cfg, events.NewMemoryStore(time.Minute), nil, logging.Discard()); adapter == nil {
		t.Fatalf("expected adapter")
	}
}

type fakePruner struct {
	cutoff  time.Time
	removed int64
	err     error
}

func (f *fakePruner) PruneBefore(_ context.Context, cutoff time.Time) (int64, error) {
	f.cutoff = cutoff
	return f.removed, f.err
}

func TestPruneOnce(t *testing.T) {
	cutoff := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	pruner := &fakePruner{removed: 4}
	pruneOnce(context.Background(), pruner, cutoff, logging.Discard())
	if !pruner.cutoff.Equal(cutoff) {
		t.Fatalf("expected cutoff %v, got %v", cutoff, pruner.cutoff)
	}

	pruneOnce(context.Background(), &fakePruner{err: errors.New("db down")}, cutoff, logging.Discard())
}

func TestRunProcessedPrunerIgnoresMemoryStore(t *testing.T) {
	done := make(chan struct{})
	go func() {
		RunProcessedPruner(context.Background(), events.NewMemoryStore(time.Minute), time.Millisecond, time.Hour, logging.Discard())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("expected pruner to return for a store without PruneBefore")
	}
}
