package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           "8080",
			AppEnv:         "production",
			BaseURL:        "https://tsukikage-sato.com",
			AllowedOrigins: []string{"https://tsukikage-sato.com"},
		},
		ReCAPTCHA: ReCAPTCHAConfig{
			SecretKey: "secret",
			SiteKey:   "site",
			MinScore:  0.5,
		},
		FormEndpoint: FormEndpointConfig{
			URL:            "https://script.google.com/macros/s/abc/exec",
			TimeoutSeconds: 15,
			MaxPending:     16,
		},
		Contact: ContactConfig{
			ConfirmationPath:    "/contact/thank-you",
			ConfirmationDelayMS: 3000,
		},
		Session: SessionConfig{
			Secret:     "session-secret",
			TTLMinutes: 30,
		},
	}
}

func TestConfig_IsDevelopment(t *testing.T) {
	tests := []struct {
		name     string
		config   *Config
		expected bool
	}{
		{
			name:     "development environment",
			config:   &Config{Server: ServerConfig{AppEnv: "development"}},
			expected: true,
		},
		{
			name:     "debug gin mode",
			config:   &Config{Server: ServerConfig{GinMode: "debug"}},
			expected: true,
		},
		{
			name:     "production environment",
			config:   &Config{Server: ServerConfig{AppEnv: "production"}},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.config.IsDevelopment())
		})
	}
}

func TestConfig_IsProduction(t *testing.T) {
	assert.True(t, (&Config{Server: ServerConfig{AppEnv: "production"}}).IsProduction())
	assert.False(t, (&Config{Server: ServerConfig{AppEnv: "staging"}}).IsProduction())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(c *Config)
		errorMsg string
	}{
		{
			name:   "valid config",
			mutate: func(c *Config) {},
		},
		{
			name:     "missing form endpoint",
			mutate:   func(c *Config) { c.FormEndpoint.URL = "" },
			errorMsg: "FORM_ENDPOINT_URL is required",
		},
		{
			name:     "non-positive endpoint timeout",
			mutate:   func(c *Config) { c.FormEndpoint.TimeoutSeconds = 0 },
			errorMsg: "FORM_ENDPOINT_TIMEOUT_SECONDS must be positive",
		},
		{
			name:     "missing site key",
			mutate:   func(c *Config) { c.ReCAPTCHA.SiteKey = "" },
			errorMsg: "RECAPTCHA_SITE_KEY is required",
		},
		{
			name:     "missing secret key in production",
			mutate:   func(c *Config) { c.ReCAPTCHA.SecretKey = "" },
			errorMsg: "RECAPTCHA_SECRET_KEY is required",
		},
		{
			name: "missing secret key allowed in development",
			mutate: func(c *Config) {
				c.ReCAPTCHA.SecretKey = ""
				c.Server.AppEnv = "development"
			},
		},
		{
			name:     "score out of range",
			mutate:   func(c *Config) { c.ReCAPTCHA.MinScore = 1.5 },
			errorMsg: "RECAPTCHA_MIN_SCORE must be between 0 and 1",
		},
		{
			name:     "missing session secret",
			mutate:   func(c *Config) { c.Session.Secret = "" },
			errorMsg: "SESSION_SECRET is required",
		},
		{
			name:     "relative confirmation path",
			mutate:   func(c *Config) { c.Contact.ConfirmationPath = "contact/thank-you" },
			errorMsg: "CONFIRMATION_PATH must be an absolute path",
		},
		{
			name: "profiling without endpoint",
			mutate: func(c *Config) {
				c.Profiling.Enabled = true
			},
			errorMsg: "O11Y_PROFILING_ENDPOINT is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.errorMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errorMsg)
		})
	}
}

func setRequiredEnv(t *testing.T) {
	t.Setenv("FORM_ENDPOINT_URL", "https://script.google.com/macros/s/abc/exec")
	t.Setenv("RECAPTCHA_SITE_KEY", "site-key")
	t.Setenv("RECAPTCHA_SECRET_KEY", "secret-key")
	t.Setenv("SESSION_SECRET", "session-secret")
}

func TestLoad_WithDefaults(t *testing.T) {
	chdir(t, t.TempDir())
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "release", cfg.Server.GinMode)
	assert.Equal(t, "production", cfg.Server.AppEnv)
	assert.Equal(t, []string{"https://tsukikage-sato.com", "https://www.tsukikage-sato.com"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "contact_form", cfg.ReCAPTCHA.Action)
	assert.Equal(t, 15, cfg.FormEndpoint.TimeoutSeconds)
	assert.Equal(t, "月影の郷", cfg.Contact.CompanyName)
	assert.Equal(t, "/contact/thank-you", cfg.Contact.ConfirmationPath)
	assert.Equal(t, 3000, cfg.Contact.ConfirmationDelayMS)
	assert.True(t, cfg.Session.CookieSecure)
}

func TestLoad_WithEnvironmentVariables(t *testing.T) {
	chdir(t, t.TempDir())
	setRequiredEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("APP_ENV", "development")
	t.Setenv("ALLOWED_CORS_ORIGINS", " http://localhost:3000 , ,https://example.com")
	t.Setenv("FORM_ENDPOINT_TIMEOUT_SECONDS", "5")
	t.Setenv("COMPANY_NAME", "Test Inn")
	t.Setenv("NOTIFY_TRIGGER_URL", "https://hooks.example.com/notify?id=")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, "development", cfg.Server.AppEnv)
	assert.Equal(t, []string{"http://localhost:3000", "https://example.com"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 5, cfg.FormEndpoint.TimeoutSeconds)
	assert.Equal(t, "Test Inn", cfg.Contact.CompanyName)
	assert.Equal(t, "https://hooks.example.com/notify?id=", cfg.EventTriggers.SubmissionSucceededTriggerURL)
}

func TestLoad_ValidationFailure(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("FORM_ENDPOINT_URL", "")
	t.Setenv("SESSION_SECRET", "session-secret")
	t.Setenv("RECAPTCHA_SITE_KEY", "site-key")

	cfg, err := Load()

	assert.Error(t, err)
	assert.Nil(t, cfg)
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent of testing.T.Chdir, which needs Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}
