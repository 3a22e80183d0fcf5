package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Verifier backends selectable through VERIFIER_MODE.
const (
	VerifierModeStub = "stub"
	VerifierModeHTTP = "http"
)

// Config holds application configuration
type Config struct {
	Port      string
	Env       string
	LogLevel  string
	LogFormat string

	// Messenger / Graph API
	MessengerVerifyToken     string
	MessengerPageAccessToken string
	MessengerAppSecret       string
	GraphAPIBase             string
	SendTimeout              time.Duration
	SendRetryMaxAttempts     int
	SendRetryBaseDelay       time.Duration
	ProcessTimeout           time.Duration
	WebhookRateLimit         float64
	WebhookRateBurst         int

	// Mobile / OTP verification backend
	VerifierMode         string
	VerifierBaseURL      string
	VerifierAPIKey       string
	VerifierTimeout      time.Duration
	StubMobileRegistered bool
	StubOTPCode          string

	// Abuse guard and sessions
	AbuseMaxAttempts int
	AbuseWindow      time.Duration
	SessionTTL       time.Duration

	RedisAddr     string
	RedisPassword string
	RedisTLS      bool
	DatabaseURL   string

	// Campaign copy used by the reply catalog. CampaignFile, when set, is a
	// YAML file whose fields override the CAMPAIGN_* values.
	CampaignFile     string
	CampaignBrand    string
	CampaignProduct  string
	CampaignName     string
	CampaignPageURL  string
	CampaignContact  string
	CampaignPermitNo string
	CampaignSeriesNo string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:      getEnv("PORT", "1337"),
		Env:       getEnv("ENV", "development"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		MessengerVerifyToken:     getEnv("MESSENGER_VERIFY_TOKEN", ""),
		MessengerPageAccessToken: getEnv("MESSENGER_PAGE_ACCESS_TOKEN", ""),
		MessengerAppSecret:       getEnv("MESSENGER_APP_SECRET", ""),
		GraphAPIBase:             strings.TrimRight(getEnv("GRAPH_API_BASE", "https://graph.facebook.com/v18.0"), "/"),
		SendTimeout:              getEnvAsDuration("SEND_TIMEOUT", 10*time.Second),
		SendRetryMaxAttempts:     getEnvAsInt("SEND_RETRY_MAX_ATTEMPTS", 3),
		SendRetryBaseDelay:       getEnvAsDuration("SEND_RETRY_BASE_DELAY", 250*time.Millisecond),
		ProcessTimeout:           getEnvAsDuration("PROCESS_TIMEOUT", 30*time.Second),
		WebhookRateLimit:         getEnvAsFloat("WEBHOOK_RATE_LIMIT", 50),
		WebhookRateBurst:         getEnvAsInt("WEBHOOK_RATE_BURST", 100),

		VerifierMode:         strings.ToLower(strings.TrimSpace(getEnv("VERIFIER_MODE", VerifierModeStub))),
		VerifierBaseURL:      strings.TrimRight(getEnv("VERIFIER_BASE_URL", ""), "/"),
		VerifierAPIKey:       getEnv("VERIFIER_API_KEY", ""),
		VerifierTimeout:      getEnvAsDuration("VERIFIER_TIMEOUT", 5*time.Second),
		StubMobileRegistered: getEnvAsBool("STUB_MOBILE_REGISTERED", true),
		StubOTPCode:          getEnv("STUB_OTP_CODE", "415122"),

		AbuseMaxAttempts: getEnvAsInt("ABUSE_MAX_ATTEMPTS", 3),
		AbuseWindow:      getEnvAsDuration("ABUSE_WINDOW", time.Hour),
		SessionTTL:       getEnvAsDuration("SESSION_TTL", 30*24*time.Hour),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),
		DatabaseURL:   getEnv("DATABASE_URL", ""),

		CampaignFile:     getEnv("CAMPAIGN_FILE", ""),
		CampaignBrand:    getEnv("CAMPAIGN_BRAND", "Bear Brand"),
		CampaignProduct:  getEnv("CAMPAIGN_PRODUCT", "BEAR BRAND POWDERED MILK DRINK"),
		CampaignName:     getEnv("CAMPAIGN_NAME", "Bear Brand PMD Digital Raffle Promo Campaign"),
		CampaignPageURL:  getEnv("CAMPAIGN_PAGE_URL", "https://www.facebook.com/BearBrandPH/"),
		CampaignContact:  getEnv("CAMPAIGN_CONTACT", "bearbrand@email.ph, 02-123-4455 or toll free at 1-800- 826654398"),
		CampaignPermitNo: getEnv("CAMPAIGN_PERMIT_NO", "XXXXXX"),
		CampaignSeriesNo: getEnv("CAMPAIGN_SERIES_NO", "SSSSSS"),
	}
}

// Validate reports configuration that would prevent the service from working.
func (c *Config) Validate() error {
	var errs []error
	if c.Env != "test" {
		if strings.TrimSpace(c.MessengerVerifyToken) == "" {
			errs = append(errs, errors.New("MESSENGER_VERIFY_TOKEN is required"))
		}
		if strings.TrimSpace(c.MessengerPageAccessToken) == "" {
			errs = append(errs, errors.New("MESSENGER_PAGE_ACCESS_TOKEN is required"))
		}
	}
	switch c.VerifierMode {
	case VerifierModeStub:
	case VerifierModeHTTP:
		if c.VerifierBaseURL == "" {
			errs = append(errs, errors.New("VERIFIER_BASE_URL is required when VERIFIER_MODE=http"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown VERIFIER_MODE %q", c.VerifierMode))
	}
	if c.AbuseMaxAttempts < 1 {
		errs = append(errs, errors.New("ABUSE_MAX_ATTEMPTS must be positive"))
	}
	return errors.Join(errs...)
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
