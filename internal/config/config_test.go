package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("ENV", "")
	t.Setenv("VERIFIER_MODE", "")
	t.Setenv("STUB_OTP_CODE", "")
	t.Setenv("SEND_TIMEOUT", "")
	cfg := Load()
	if cfg.Port != "1337" {
		t.Fatalf("expected default port, got %s", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Fatalf("expected default env, got %s", cfg.Env)
	}
	if cfg.VerifierMode != VerifierModeStub {
		t.Fatalf("expected stub verifier by default, got %s", cfg.VerifierMode)
	}
	if cfg.StubOTPCode != "415122" {
		t.Fatalf("expected default stub otp, got %s", cfg.StubOTPCode)
	}
	if !cfg.StubMobileRegistered {
		t.Fatalf("expected stub mobile lookups to report registered by default")
	}
	if cfg.SendTimeout != 10*time.Second {
		t.Fatalf("expected default send timeout, got %s", cfg.SendTimeout)
	}
	if cfg.AbuseMaxAttempts != 3 {
		t.Fatalf("expected default abuse attempts, got %d", cfg.AbuseMaxAttempts)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ENV", "production")
	t.Setenv("GRAPH_API_BASE", "http://graph.local/v6.0/")
	t.Setenv("VERIFIER_MODE", " HTTP ")
	t.Setenv("VERIFIER_BASE_URL", "http://verifier.local/")
	t.Setenv("SEND_RETRY_MAX_ATTEMPTS", "5")
	t.Setenv("ABUSE_WINDOW", "15m")
	t.Setenv("WEBHOOK_RATE_LIMIT", "2.5")
	t.Setenv("REDIS_TLS", "true")
	cfg := Load()
	if cfg.Port != "9090" {
		t.Fatalf("expected override port, got %s", cfg.Port)
	}
	if cfg.GraphAPIBase != "http://graph.local/v6.0" {
		t.Fatalf("expected trailing slash trimmed, got %s", cfg.GraphAPIBase)
	}
	if cfg.VerifierMode != VerifierModeHTTP {
		t.Fatalf("expected http verifier mode, got %q", cfg.VerifierMode)
	}
	if cfg.VerifierBaseURL != "http://verifier.local" {
		t.Fatalf("expected verifier base override, got %s", cfg.VerifierBaseURL)
	}
	if cfg.SendRetryMaxAttempts != 5 {
		t.Fatalf("expected retry override, got %d", cfg.SendRetryMaxAttempts)
	}
	if cfg.AbuseWindow != 15*time.Minute {
		t.Fatalf("expected abuse window override, got %s", cfg.AbuseWindow)
	}
	if cfg.WebhookRateLimit != 2.5 {
		t.Fatalf("expected rate override, got %v", cfg.WebhookRateLimit)
	}
	if !cfg.RedisTLS {
		t.Fatalf("expected redis tls enabled")
	}
}

func TestValidate(t *testing.T) {
	cfg := &Config{Env: "production", VerifierMode: VerifierModeHTTP, AbuseMaxAttempts: 0}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"MESSENGER_VERIFY_TOKEN", "MESSENGER_PAGE_ACCESS_TOKEN", "VERIFIER_BASE_URL", "ABUSE_MAX_ATTEMPTS"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected %s in %q", want, err.Error())
		}
	}

	ok := &Config{Env: "test", VerifierMode: VerifierModeStub, AbuseMaxAttempts: 3}
	if err := ok.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	bad := &Config{Env: "test", VerifierMode: "carrier-pigeon", AbuseMaxAttempts: 3}
	if err := bad.Validate(); err == nil {
		t.Fatal("expected unknown verifier mode error")
	}
}
