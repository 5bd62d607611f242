// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	ProposalBackendStatic     = "static"
	ProposalBackendGenerative = "generative"

	OutboxBackendFilesystem = "filesystem"
	OutboxBackendMinIO      = "minio"

	SnapshotBackendFile     = "file"
	SnapshotBackendPostgres = "postgres"
	SnapshotBackendNone     = "none"

	DuplicatePolicyUpsert = "upsert"
	DuplicatePolicyReject = "reject"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// LeadStoreConfig provides settings for the lead store and its snapshot.
type LeadStoreConfig interface {
	GetLeadSnapshotBackend() string
	GetLeadSnapshotPath() string
	GetLeadDuplicatePolicy() string
	GetPhoneDefaultRegion() string
}

// QualificationConfig provides the initial qualification threshold.
type QualificationConfig interface {
	GetQualificationThreshold() float64
}

// ProposalConfig provides settings for the proposal generator backends.
type ProposalConfig interface {
	GetProposalBackend() string
	GetGenerativeBaseURL() string
	GetGenerativeModel() string
	GetGenerativeAPIKey() string
	GetGenerativeTimeout() time.Duration
	GetGenerativeTemperature() float64
}

// OutboxConfig provides settings for the outbox sink.
type OutboxConfig interface {
	GetOutboxBackend() string
	GetOutboxDir() string
	GetOutboxMinIOBucket() string
}

// MinIOConfig provides settings for MinIO S3-compatible storage.
type MinIOConfig interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	IsMinIOEnabled() bool
}

// EmailConfig provides the sender identity stamped on email artifacts.
type EmailConfig interface {
	GetEmailFromName() string
	GetEmailFromAddress() string
}

// CallConfig provides the provider-facing fields of call requests.
type CallConfig interface {
	GetCallAssistantID() string
	GetCallWebhookURL() string
	GetCallSynthesisPrompt() string
}

// WebhookConfig provides settings for the call webhook endpoint.
type WebhookConfig interface {
	GetWebhookRateLimit() float64
	GetWebhookRateBurst() int
	GetProposalIntentPhrases() []string
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env            string
	HTTPAddr       string
	DatabaseURL    string
	CORSAllowAll   bool
	CORSOrigins    []string
	CORSAllowCreds bool

	LeadSnapshotBackend string
	LeadSnapshotPath    string
	LeadDuplicatePolicy string
	PhoneDefaultRegion  string

	QualificationThreshold float64

	ProposalBackend       string
	GenerativeBaseURL     string
	GenerativeModel       string
	GenerativeAPIKey      string
	GenerativeTimeout     time.Duration
	GenerativeTemperature float64

	OutboxBackend     string
	OutboxDir         string
	OutboxMinIOBucket string
	MinIOEndpoint     string
	MinIOAccessKey    string
	MinIOSecretKey    string
	MinIOUseSSL       bool

	EmailFromName    string
	EmailFromAddress string

	CallAssistantID     string
	CallWebhookURL      string
	CallSynthesisPrompt string

	WebhookRateLimit float64
	WebhookRateBurst int

	// ProposalIntentPhrases replaces the default "send a proposal" phrase
	// when set.
	ProposalIntentPhrases []string
}

// Database
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// HTTP
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }

// Lead store
func (c *Config) GetLeadSnapshotBackend() string { return c.LeadSnapshotBackend }
func (c *Config) GetLeadSnapshotPath() string    { return c.LeadSnapshotPath }
func (c *Config) GetLeadDuplicatePolicy() string { return c.LeadDuplicatePolicy }
func (c *Config) GetPhoneDefaultRegion() string  { return c.PhoneDefaultRegion }

// Qualification
func (c *Config) GetQualificationThreshold() float64 { return c.QualificationThreshold }

// Proposals
func (c *Config) GetProposalBackend() string          { return c.ProposalBackend }
func (c *Config) GetGenerativeBaseURL() string        { return c.GenerativeBaseURL }
func (c *Config) GetGenerativeModel() string          { return c.GenerativeModel }
func (c *Config) GetGenerativeAPIKey() string         { return c.GenerativeAPIKey }
func (c *Config) GetGenerativeTimeout() time.Duration { return c.GenerativeTimeout }
func (c *Config) GetGenerativeTemperature() float64   { return c.GenerativeTemperature }

// Outbox
func (c *Config) GetOutboxBackend() string     { return c.OutboxBackend }
func (c *Config) GetOutboxDir() string         { return c.OutboxDir }
func (c *Config) GetOutboxMinIOBucket() string { return c.OutboxMinIOBucket }

// MinIO
func (c *Config) GetMinIOEndpoint() string  { return c.MinIOEndpoint }
func (c *Config) GetMinIOAccessKey() string { return c.MinIOAccessKey }
func (c *Config) GetMinIOSecretKey() string { return c.MinIOSecretKey }
func (c *Config) GetMinIOUseSSL() bool      { return c.MinIOUseSSL }
func (c *Config) IsMinIOEnabled() bool      { return c.MinIOEndpoint != "" }

// Email
func (c *Config) GetEmailFromName() string    { return c.EmailFromName }
func (c *Config) GetEmailFromAddress() string { return c.EmailFromAddress }

// Calls
func (c *Config) GetCallAssistantID() string     { return c.CallAssistantID }
func (c *Config) GetCallWebhookURL() string      { return c.CallWebhookURL }
func (c *Config) GetCallSynthesisPrompt() string { return c.CallSynthesisPrompt }

// Webhook
func (c *Config) GetWebhookRateLimit() float64 { return c.WebhookRateLimit }
func (c *Config) GetWebhookRateBurst() int     { return c.WebhookRateBurst }
func (c *Config) GetProposalIntentPhrases() []string {
	return c.ProposalIntentPhrases
}

// Load reads configuration from a .env file (when present) and the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv builds a Config from the current environment without touching .env.
func FromEnv() (*Config, error) {
	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:4200"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	threshold, err := parseFloat("QUALIFICATION_THRESHOLD", getEnv("QUALIFICATION_THRESHOLD", "5000"))
	if err != nil {
		return nil, err
	}
	temperature, err := parseFloat("GENERATIVE_TEMPERATURE", getEnv("GENERATIVE_TEMPERATURE", "0.3"))
	if err != nil {
		return nil, err
	}
	rateLimit, err := parseFloat("WEBHOOK_RATE_LIMIT", getEnv("WEBHOOK_RATE_LIMIT", "5"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Env:            getEnv("APP_ENV", "development"),
		HTTPAddr:       getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		CORSAllowAll:   corsAllowAll,
		CORSOrigins:    corsOrigins,
		CORSAllowCreds: strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "false"), "true"),

		LeadSnapshotBackend: strings.ToLower(getEnv("LEAD_SNAPSHOT_BACKEND", SnapshotBackendFile)),
		LeadSnapshotPath:    getEnv("LEADS_SNAPSHOT_PATH", "data/leads.json"),
		LeadDuplicatePolicy: strings.ToLower(getEnv("LEAD_DUPLICATE_POLICY", DuplicatePolicyUpsert)),
		PhoneDefaultRegion:  strings.ToUpper(getEnv("PHONE_DEFAULT_REGION", "US")),

		QualificationThreshold: threshold,

		ProposalBackend:       strings.ToLower(getEnv("PROPOSAL_BACKEND", ProposalBackendStatic)),
		GenerativeBaseURL:     getEnv("GENERATIVE_BASE_URL", "http://127.0.0.1:11434/v1"),
		GenerativeModel:       getEnv("GENERATIVE_MODEL", "gemma3"),
		GenerativeAPIKey:      getEnv("GENERATIVE_API_KEY", ""),
		GenerativeTimeout:     mustDuration(getEnv("GENERATIVE_TIMEOUT", "30s")),
		GenerativeTemperature: temperature,

		OutboxBackend:     strings.ToLower(getEnv("OUTBOX_BACKEND", OutboxBackendFilesystem)),
		OutboxDir:         getEnv("OUTBOX_DIR", "outbox"),
		OutboxMinIOBucket: getEnv("OUTBOX_MINIO_BUCKET", "lead-outbox"),
		MinIOEndpoint:     getEnv("MINIO_ENDPOINT", ""),
		MinIOAccessKey:    getEnv("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey:    getEnv("MINIO_SECRET_KEY", ""),
		MinIOUseSSL:       strings.EqualFold(getEnv("MINIO_USE_SSL", "false"), "true"),

		EmailFromName:    getEnv("EMAIL_FROM_NAME", "Sales Team"),
		EmailFromAddress: getEnv("EMAIL_FROM_ADDRESS", "sales@example.com"),

		CallAssistantID:     getEnv("CALL_ASSISTANT_ID", "local-assistant"),
		CallWebhookURL:      getEnv("CALL_WEBHOOK_URL", "http://localhost:8080/api/v1/webhook/calls"),
		CallSynthesisPrompt: getEnv("CALL_SYNTHESIS_PROMPT", "Friendly sales agent confirming proposal need."),

		WebhookRateLimit: rateLimit,
		WebhookRateBurst: int(mustInt64(getEnv("WEBHOOK_RATE_BURST", "10"))),

		ProposalIntentPhrases: splitCSV(getEnv("PROPOSAL_INTENT_PHRASES", "")),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.QualificationThreshold < 0 {
		return fmt.Errorf("QUALIFICATION_THRESHOLD must be non-negative")
	}
	switch c.ProposalBackend {
	case ProposalBackendStatic, ProposalBackendGenerative:
	default:
		return fmt.Errorf("PROPOSAL_BACKEND must be %q or %q", ProposalBackendStatic, ProposalBackendGenerative)
	}
	if c.ProposalBackend == ProposalBackendGenerative && c.GenerativeTimeout <= 0 {
		return fmt.Errorf("GENERATIVE_TIMEOUT must be a positive duration")
	}
	switch c.OutboxBackend {
	case OutboxBackendFilesystem:
		if strings.TrimSpace(c.OutboxDir) == "" {
			return fmt.Errorf("OUTBOX_DIR is required for the filesystem outbox")
		}
	case OutboxBackendMinIO:
		if !c.IsMinIOEnabled() {
			return fmt.Errorf("MINIO_ENDPOINT is required when OUTBOX_BACKEND is minio")
		}
	default:
		return fmt.Errorf("OUTBOX_BACKEND must be %q or %q", OutboxBackendFilesystem, OutboxBackendMinIO)
	}
	switch c.LeadSnapshotBackend {
	case SnapshotBackendFile, SnapshotBackendNone:
	case SnapshotBackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when LEAD_SNAPSHOT_BACKEND is postgres")
		}
	default:
		return fmt.Errorf("LEAD_SNAPSHOT_BACKEND must be file, postgres or none")
	}
	switch c.LeadDuplicatePolicy {
	case DuplicatePolicyUpsert, DuplicatePolicyReject:
	default:
		return fmt.Errorf("LEAD_DUPLICATE_POLICY must be %q or %q", DuplicatePolicyUpsert, DuplicatePolicyReject)
	}
	if c.CORSAllowAll && c.CORSAllowCreds {
		return fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt64(value string) int64 {
	result, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0
	}
	return result
}

func parseFloat(key, value string) (float64, error) {
	result, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || math.IsNaN(result) || math.IsInf(result, 0) {
		return 0, fmt.Errorf("%s must be a number, got %q", key, value)
	}
	return result, nil
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
