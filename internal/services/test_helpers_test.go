package services_test

import (
	"github.com/tsukikage-sato/contact-web/config"
	"github.com/tsukikage-sato/contact-web/pkg/logger"
)

func init() {
	// Initialize logger for tests
	if err := logger.Initialize(logger.Config{
		Level:       "debug",
		Environment: "development",
	}); err != nil {
		panic(err)
	}
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			AppEnv: "development",
		},
		ReCAPTCHA: config.ReCAPTCHAConfig{
			SiteKey:  "test-site-key",
			MinScore: 0.5,
			Action:   "contact_form",
		},
		FormEndpoint: config.FormEndpointConfig{
			URL:            "https://script.google.com/macros/s/test/exec",
			TimeoutSeconds: 1,
			MaxPending:     8,
		},
		Contact: config.ContactConfig{
			CompanyName:         "月影の郷",
			ConfirmationPath:    "/contact/thank-you",
			ConfirmationDelayMS: 20,
			Address:             "長野県北安曇郡白馬村",
			Phone:               "0261-00-0000",
			Email:               "info@tsukikage-sato.com",
			BusinessHours:       "9:00〜20:00",
		},
		Session: config.SessionConfig{
			TTLMinutes: 30,
		},
	}
}
