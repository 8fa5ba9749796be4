package config

import (
	"os"
	"strconv"
	"strings"
)

// Config holds application configuration.
type Config struct {
	Port            string
	Env             string
	CORSAllowOrigin []string

	DatabaseURL string
	DataStore   string

	ObjectStoreType string
	LocalStoreDir   string
	AWSRegion       string
	S3Bucket        string
	S3Prefix        string
	SSEKMSKeyID     string

	LLMProvider  string
	LLMModel     string
	OpenAIAPIKey string
	GeminiAPIKey string

	EmailProvider string
	ResendAPIKey  string
	SMTPHost      string
	SMTPPort      int
	SMTPUsername  string
	SMTPPassword  string
	FromEmail     string
	BusinessEmail string

	CronSecret               string
	ReminderTimezone         string
	ReminderWindowDays       int
	RemindersToSubcontractor bool
}

const (
	defaultFromEmail     = "Ascend Website <onboarding@resend.dev>"
	defaultBusinessEmail = "delivered@resend.dev"
	defaultTimezone      = "Australia/Sydney"
	defaultWindowDays    = 90
)

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	dbURL := getEnv("DATABASE_URL", os.Getenv("POSTGRES_URL"))

	return Config{
		Port:            getEnv("PORT", "8080"),
		Env:             normalizeEnv(getEnv("ENV", "dev")),
		CORSAllowOrigin: splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:3000")),

		DatabaseURL: dbURL,
		DataStore:   normalizeDataStore(getEnv("DATA_STORE", ""), dbURL),

		ObjectStoreType: normalizeStoreType(getEnv("OBJECT_STORE", "none")),
		LocalStoreDir:   getEnv("LOCAL_STORE_DIR", "./data"),
		AWSRegion:       getEnv("AWS_REGION", ""),
		S3Bucket:        getEnv("S3_BUCKET", ""),
		S3Prefix:        getEnv("S3_PREFIX", "subcontractor-packs/"),
		SSEKMSKeyID:     getEnv("SSE_KMS_KEY_ID", ""),

		LLMProvider:  strings.ToLower(getEnv("LLM_PROVIDER", "openai")),
		LLMModel:     getEnv("LLM_MODEL", ""),
		OpenAIAPIKey: getEnv("OPENAI_API_KEY", ""),
		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),

		EmailProvider: strings.ToLower(getEnv("EMAIL_PROVIDER", "resend")),
		ResendAPIKey:  getEnv("RESEND_API_KEY", ""),
		SMTPHost:      getEnv("SMTP_HOST", ""),
		SMTPPort:      getEnvInt("SMTP_PORT", 587),
		SMTPUsername:  getEnv("SMTP_USERNAME", ""),
		SMTPPassword:  getEnv("SMTP_PASSWORD", ""),
		FromEmail:     getEnv("FROM_EMAIL", defaultFromEmail),
		BusinessEmail: getEnv("BUSINESS_EMAIL", defaultBusinessEmail),

		CronSecret:               getEnv("CRON_SECRET", ""),
		ReminderTimezone:         getEnv("REMINDER_TIMEZONE", defaultTimezone),
		ReminderWindowDays:       getEnvInt("REMINDER_WINDOW_DAYS", defaultWindowDays),
		RemindersToSubcontractor: getEnvBool("REMINDERS_TO_SUBCONTRACTOR", false),
	}
}

// IsProduction reports whether error details should be withheld from clients.
func (c Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, def string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) int {
	raw := getEnv(key, "")
	if raw == "" {
		return def
	}
	val, err := strconv.Atoi(raw)
	if err != nil || val <= 0 {
		return def
	}
	return val
}

func getEnvBool(key string, def bool) bool {
	raw := getEnv(key, "")
	if raw == "" {
		return def
	}
	val, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}
	return val
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging", "preview":
		return "staging"
	case "local":
		return "local"
	default:
		return "dev"
	}
}

// normalizeDataStore picks postgres whenever a database URL is present unless
// memory was asked for explicitly. An empty result means persistence is off.
func normalizeDataStore(raw, dbURL string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "memory":
		return "memory"
	case "none", "off":
		return ""
	}
	if strings.TrimSpace(dbURL) != "" {
		return "postgres"
	}
	return ""
}

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	case "local":
		return "local"
	default:
		return "none"
	}
}
