package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all application configuration
//
//nolint:govet // Field alignment optimization would reduce readability
type Config struct {
	Server        ServerConfig
	ReCAPTCHA     ReCAPTCHAConfig
	FormEndpoint  FormEndpointConfig
	Contact       ContactConfig
	Session       SessionConfig
	EventTriggers EventTriggerConfig
	Logging       LoggingConfig
	Observability ObservabilityConfig
	Profiling     ProfilingConfig
}

type ServerConfig struct {
	Port           string
	GinMode        string
	AppEnv         string
	BaseURL        string
	AllowedOrigins []string
}

type ReCAPTCHAConfig struct {
	SecretKey string
	SiteKey   string
	MinScore  float64
	Action    string
}

// Enabled reports whether tokens are verified server-side
func (c ReCAPTCHAConfig) Enabled() bool {
	return c.SecretKey != ""
}

// FormEndpointConfig points at the hosted script that appends submissions to the spreadsheet
type FormEndpointConfig struct {
	URL            string
	TimeoutSeconds int
	MaxPending     int
}

// ContactConfig holds the page copy that differs per deployment
type ContactConfig struct {
	CompanyName         string
	ConfirmationPath    string
	ConfirmationDelayMS int
	Address             string
	Phone               string
	Email               string
	BusinessHours       string
}

type SessionConfig struct {
	Secret       string
	Issuer       string
	TTLMinutes   int
	CookieDomain string
	CookieSecure bool
}

type EventTriggerConfig struct {
	SubmissionSucceededTriggerURL string
}

type LoggingConfig struct {
	Level string
	Dir   string
}

type ObservabilityConfig struct {
	AlloyEndpoint     string
	ServiceName       string
	ServiceNamespace  string
	ServiceVersion    string
	ServiceInstanceID string
}

type ProfilingConfig struct {
	Enabled               bool
	Endpoint              string
	AppName               string
	SampleTypes           string
	UploadIntervalSeconds int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("PORT", "8080")
	v.SetDefault("GIN_MODE", "release")
	v.SetDefault("APP_ENV", "production")
	v.SetDefault("BASE_URL", "https://tsukikage-sato.com")
	v.SetDefault("ALLOWED_CORS_ORIGINS", "https://tsukikage-sato.com,https://www.tsukikage-sato.com")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_DIR", "/app/logs")
	v.SetDefault("RECAPTCHA_MIN_SCORE", 0.5)
	v.SetDefault("RECAPTCHA_ACTION", "contact_form")
	v.SetDefault("FORM_ENDPOINT_TIMEOUT_SECONDS", 15)
	v.SetDefault("MAX_PENDING_SUBMISSIONS", 256)
	v.SetDefault("COMPANY_NAME", "月影の郷")
	v.SetDefault("CONFIRMATION_PATH", "/contact/thank-you")
	v.SetDefault("CONFIRMATION_DELAY_MS", 3000)
	v.SetDefault("CONTACT_ADDRESS", "〒000-0000 ○○県○○市○○町○○-○○")
	v.SetDefault("CONTACT_PHONE", "000-0000-0000")
	v.SetDefault("CONTACT_EMAIL", "info@tsukikage-sato.com")
	v.SetDefault("CONTACT_BUSINESS_HOURS", "9:00〜21:00")
	v.SetDefault("SESSION_ISSUER", "tsukikage-contact")
	v.SetDefault("SESSION_TTL_MINUTES", 30)
	v.SetDefault("COOKIE_DOMAIN", "")
	v.SetDefault("COOKIE_SECURE", true)
	v.SetDefault("O11Y_EXPORTER_ENDPOINT", "")
	v.SetDefault("O11Y_BE_SERVICE_NAME", "tsukikage-contact")
	v.SetDefault("O11Y_SERVICE_NAMESPACE", "tsukikage")
	v.SetDefault("O11Y_BE_SERVICE_VERSION", "1.0.0")
	v.SetDefault("O11Y_PROFILING_ENABLED", false)
	v.SetDefault("O11Y_PROFILING_APP_NAME", "tsukikage-contact")
	v.SetDefault("O11Y_PROFILING_SAMPLE_TYPES", "cpu,alloc_space,goroutines")
	v.SetDefault("O11Y_PROFILING_UPLOAD_INTERVAL_SECONDS", 15)

	// Automatically read environment variables
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read from .env file if it exists
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("..")
	_ = v.ReadInConfig() //nolint:errcheck // Ignore error if .env file doesn't exist

	cfg := &Config{
		Server: ServerConfig{
			Port:           v.GetString("PORT"),
			GinMode:        v.GetString("GIN_MODE"),
			AppEnv:         v.GetString("APP_ENV"),
			BaseURL:        v.GetString("BASE_URL"),
			AllowedOrigins: splitList(v.GetString("ALLOWED_CORS_ORIGINS")),
		},
		ReCAPTCHA: ReCAPTCHAConfig{
			SecretKey: v.GetString("RECAPTCHA_SECRET_KEY"),
			SiteKey:   v.GetString("RECAPTCHA_SITE_KEY"),
			MinScore:  v.GetFloat64("RECAPTCHA_MIN_SCORE"),
			Action:    v.GetString("RECAPTCHA_ACTION"),
		},
		FormEndpoint: FormEndpointConfig{
			URL:            v.GetString("FORM_ENDPOINT_URL"),
			TimeoutSeconds: v.GetInt("FORM_ENDPOINT_TIMEOUT_SECONDS"),
			MaxPending:     v.GetInt("MAX_PENDING_SUBMISSIONS"),
		},
		Contact: ContactConfig{
			CompanyName:         v.GetString("COMPANY_NAME"),
			ConfirmationPath:    v.GetString("CONFIRMATION_PATH"),
			ConfirmationDelayMS: v.GetInt("CONFIRMATION_DELAY_MS"),
			Address:             v.GetString("CONTACT_ADDRESS"),
			Phone:               v.GetString("CONTACT_PHONE"),
			Email:               v.GetString("CONTACT_EMAIL"),
			BusinessHours:       v.GetString("CONTACT_BUSINESS_HOURS"),
		},
		Session: SessionConfig{
			Secret:       v.GetString("SESSION_SECRET"),
			Issuer:       v.GetString("SESSION_ISSUER"),
			TTLMinutes:   v.GetInt("SESSION_TTL_MINUTES"),
			CookieDomain: v.GetString("COOKIE_DOMAIN"),
			CookieSecure: v.GetBool("COOKIE_SECURE"),
		},
		EventTriggers: EventTriggerConfig{
			SubmissionSucceededTriggerURL: v.GetString("NOTIFY_TRIGGER_URL"),
		},
		Logging: LoggingConfig{
			Level: v.GetString("LOG_LEVEL"),
			Dir:   v.GetString("LOG_DIR"),
		},
		Observability: ObservabilityConfig{
			AlloyEndpoint:     v.GetString("O11Y_EXPORTER_ENDPOINT"),
			ServiceName:       v.GetString("O11Y_BE_SERVICE_NAME"),
			ServiceNamespace:  v.GetString("O11Y_SERVICE_NAMESPACE"),
			ServiceVersion:    v.GetString("O11Y_BE_SERVICE_VERSION"),
			ServiceInstanceID: v.GetString("SERVICE_INSTANCE_ID"),
		},
		Profiling: ProfilingConfig{
			Enabled:               v.GetBool("O11Y_PROFILING_ENABLED"),
			Endpoint:              v.GetString("O11Y_PROFILING_ENDPOINT"),
			AppName:               v.GetString("O11Y_PROFILING_APP_NAME"),
			SampleTypes:           v.GetString("O11Y_PROFILING_SAMPLE_TYPES"),
			UploadIntervalSeconds: v.GetInt("O11Y_PROFILING_UPLOAD_INTERVAL_SECONDS"),
		},
	}

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// splitList parses a comma-separated value, dropping empty entries
func splitList(raw string) []string {
	items := []string{}
	for _, item := range strings.Split(raw, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			items = append(items, item)
		}
	}
	return items
}

// Validate checks if required configuration values are set
func (c *Config) Validate() error {
	// Server configuration
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}
	if c.Server.BaseURL == "" {
		return fmt.Errorf("BASE_URL is required")
	}
	if len(c.Server.AllowedOrigins) == 0 {
		return fmt.Errorf("ALLOWED_CORS_ORIGINS is required")
	}

	// The form endpoint is the only place submissions go
	if c.FormEndpoint.URL == "" {
		return fmt.Errorf("FORM_ENDPOINT_URL is required")
	}
	if c.FormEndpoint.TimeoutSeconds <= 0 {
		return fmt.Errorf("FORM_ENDPOINT_TIMEOUT_SECONDS must be positive")
	}
	if c.FormEndpoint.MaxPending <= 0 {
		return fmt.Errorf("MAX_PENDING_SUBMISSIONS must be positive")
	}

	// ReCAPTCHA configuration
	if c.ReCAPTCHA.SiteKey == "" {
		return fmt.Errorf("RECAPTCHA_SITE_KEY is required")
	}
	if c.ReCAPTCHA.SecretKey == "" && !c.IsDevelopment() {
		return fmt.Errorf("RECAPTCHA_SECRET_KEY is required")
	}
	if c.ReCAPTCHA.MinScore < 0 || c.ReCAPTCHA.MinScore > 1 {
		return fmt.Errorf("RECAPTCHA_MIN_SCORE must be between 0 and 1")
	}

	// Session configuration
	if c.Session.Secret == "" {
		return fmt.Errorf("SESSION_SECRET is required")
	}
	if c.Session.TTLMinutes <= 0 {
		return fmt.Errorf("SESSION_TTL_MINUTES must be positive")
	}

	if c.Contact.ConfirmationDelayMS < 0 {
		return fmt.Errorf("CONFIRMATION_DELAY_MS must not be negative")
	}
	if !strings.HasPrefix(c.Contact.ConfirmationPath, "/") {
		return fmt.Errorf("CONFIRMATION_PATH must be an absolute path")
	}

	if c.Profiling.Enabled && c.Profiling.Endpoint == "" {
		return fmt.Errorf("O11Y_PROFILING_ENDPOINT is required when profiling is enabled")
	}

	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Server.AppEnv == "development" || c.Server.GinMode == "debug"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Server.AppEnv == "production"
}
