package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	EnvDevelopment = "DEV"
	EnvProduction  = "PROD"
)

const (
	EmailProviderResend = "resend"
	EmailProviderSMTP   = "smtp"
	EmailProviderLog    = "log"
)

type AppConfig struct {
	AppEnv   string // EnvDevelopment or EnvProduction
	LogLevel slog.Level
	HTTPAddr string

	KeycloakClientID     string
	KeycloakClientSecret string
	KeycloakRealm        string
	KeycloakURL          string
	PostgresURL          string
	RedisURL             string

	ProxyURLs          []string
	IndeedRSSURL       string
	RemoteOKAPIURL     string
	EnableSampleSource bool
	ListingLanguages   []string

	EnableScrapeScheduler bool
	ScrapeInterval        time.Duration

	EnableEmailScheduler bool
	PerfectMatchInterval time.Duration
	DigestInterval       time.Duration
	TrendsInterval       time.Duration
	EmailInitialDelay    time.Duration
	DigestHour           int
	TrendsWeekday        time.Weekday
	TrendsHour           int
	Location             *time.Location

	EmailProvider string
	EmailFrom     string
	EmailReplyTo  string
	ResendAPIKey  string
	SMTPHost      string
	SMTPPort      string
	SMTPPassword  string
	AppBaseURL    string
	FeedbackEmail string
}

var Config AppConfig

// LoadConfig reads the process environment into Config and exits when it is invalid.
func LoadConfig() {
	cfg, err := Parse(os.Getenv)
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	Config = cfg
}

// Parse builds an AppConfig from getenv. It reports the first missing required
// variable or malformed value.
func Parse(getenv func(string) string) (AppConfig, error) {
	l := loader{getenv: getenv}
	cfg := AppConfig{}

	cfg.AppEnv = getenv("APP_ENV")
	cfg.HTTPAddr = l.optional("HTTP_ADDR", ":8080")

	cfg.KeycloakClientID = l.required("KEYCLOAK_CLIENT_ID")
	cfg.KeycloakClientSecret = l.required("KEYCLOAK_CLIENT_SECRET")
	cfg.KeycloakRealm = l.required("KEYCLOAK_REALM")
	cfg.KeycloakURL = l.required("KEYCLOAK_URL")
	cfg.PostgresURL = l.required("POSTGRES_URL")
	cfg.RedisURL = getenv("REDIS_URL")

	cfg.ProxyURLs = splitList(getenv("PROXY_URLS"))
	cfg.IndeedRSSURL = getenv("INDEED_RSS_URL")
	cfg.RemoteOKAPIURL = l.optional("REMOTEOK_API_URL", "https://remoteok.io/api")
	cfg.EnableSampleSource = l.boolean("ENABLE_SAMPLE_SOURCE", true)
	cfg.ListingLanguages = splitList(getenv("LISTING_LANGUAGES"))

	cfg.EnableScrapeScheduler = l.boolean("ENABLE_SCRAPE_SCHEDULER", true)
	cfg.ScrapeInterval = l.duration("SCRAPE_INTERVAL", time.Hour)

	cfg.EnableEmailScheduler = l.boolean("ENABLE_EMAIL_SCHEDULER", true)
	cfg.PerfectMatchInterval = l.duration("PERFECT_MATCH_INTERVAL", 15*time.Minute)
	cfg.DigestInterval = l.duration("DIGEST_INTERVAL", time.Hour)
	cfg.TrendsInterval = l.duration("TRENDS_INTERVAL", 6*time.Hour)
	cfg.EmailInitialDelay = l.duration("EMAIL_INITIAL_DELAY", 5*time.Second)
	cfg.DigestHour = l.intRange("DIGEST_HOUR", 8, 0, 23)
	cfg.TrendsWeekday = time.Weekday(l.intRange("TRENDS_WEEKDAY", int(time.Monday), 0, 6))
	cfg.TrendsHour = l.intRange("TRENDS_HOUR", 9, 0, 23)
	cfg.Location = l.location("TIMEZONE")

	cfg.EmailFrom = l.optional("EMAIL_FROM", "alerts@gigscout.com")
	cfg.EmailReplyTo = l.optional("EMAIL_REPLY_TO", "noreply@gigscout.com")
	cfg.ResendAPIKey = getenv("RESEND_API_KEY")
	cfg.SMTPHost = getenv("SMTP_HOST")
	cfg.SMTPPort = l.optional("SMTP_PORT", "587")
	cfg.SMTPPassword = getenv("SMTP_PASSWORD")
	cfg.AppBaseURL = l.optional("APP_BASE_URL", "https://gigscout.com")
	cfg.FeedbackEmail = l.optional("FEEDBACK_EMAIL", "feedback@gigscout.com")
	cfg.EmailProvider = l.emailProvider(cfg)

	lvlString := l.optional("LOG_LEVEL", "INFO")
	var err error
	cfg.LogLevel, err = parseLogLevel(lvlString)
	if err != nil {
		slog.Error("Invalid LOG_LEVEL", "error", err)
		cfg.LogLevel = slog.LevelInfo
	}

	if l.err != nil {
		return AppConfig{}, l.err
	}
	return cfg, nil
}

func parseLogLevel(s string) (slog.Level, error) {
	var level slog.Level
	var err = level.UnmarshalText([]byte(s))
	return level, err
}

// loader keeps the first error so Parse reads like a flat list of variables.
type loader struct {
	getenv func(string) string
	err    error
}

func (l *loader) fail(err error) {
	if l.err == nil {
		l.err = err
	}
}

func (l *loader) required(key string) string {
	value := l.getenv(key)
	if value == "" {
		l.fail(fmt.Errorf("required env var %s not set", key))
	}
	return value
}

func (l *loader) optional(key, defaultValue string) string {
	value := l.getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func (l *loader) boolean(key string, defaultValue bool) bool {
	value := l.getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		l.fail(fmt.Errorf("%s: %w", key, err))
		return defaultValue
	}
	return b
}

func (l *loader) duration(key string, defaultValue time.Duration) time.Duration {
	value := l.getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		l.fail(fmt.Errorf("%s: %w", key, err))
		return defaultValue
	}
	if d <= 0 {
		l.fail(fmt.Errorf("%s: must be positive, got %s", key, value))
		return defaultValue
	}
	return d
}

func (l *loader) intRange(key string, defaultValue, lo, hi int) int {
	value := l.getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		l.fail(fmt.Errorf("%s: %w", key, err))
		return defaultValue
	}
	if n < lo || n > hi {
		l.fail(fmt.Errorf("%s: %d out of range [%d, %d]", key, n, lo, hi))
		return defaultValue
	}
	return n
}

func (l *loader) location(key string) *time.Location {
	value := l.getenv(key)
	if value == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(value)
	if err != nil {
		l.fail(fmt.Errorf("%s: %w", key, err))
		return time.Local
	}
	return loc
}

// emailProvider picks the explicit provider or falls back to whichever
// credentials are present, ending with the log-only sender.
func (l *loader) emailProvider(cfg AppConfig) string {
	value := strings.ToLower(l.getenv("EMAIL_PROVIDER"))
	switch value {
	case EmailProviderResend:
		if cfg.ResendAPIKey == "" {
			l.fail(errors.New("EMAIL_PROVIDER=resend requires RESEND_API_KEY"))
		}
		return value
	case EmailProviderSMTP:
		if cfg.SMTPHost == "" {
			l.fail(errors.New("EMAIL_PROVIDER=smtp requires SMTP_HOST"))
		}
		return value
	case EmailProviderLog:
		return value
	case "":
	default:
		l.fail(fmt.Errorf("EMAIL_PROVIDER: unknown provider %q", value))
		return EmailProviderLog
	}

	switch {
	case cfg.ResendAPIKey != "":
		return EmailProviderResend
	case cfg.SMTPHost != "":
		return EmailProviderSMTP
	default:
		return EmailProviderLog
	}
}

func splitList(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (c AppConfig) IsProduction() bool {
	return c.AppEnv == EnvProduction
}
