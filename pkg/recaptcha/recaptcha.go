package recaptcha

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	apperrors "github.com/tsukikage-sato/contact-web/pkg/errors"
	"github.com/tsukikage-sato/contact-web/pkg/httpclient"
	"github.com/tsukikage-sato/contact-web/pkg/logger"
	"github.com/tsukikage-sato/contact-web/pkg/metrics"
	"go.uber.org/zap"
)

// VerifyURL is Google's server-side verification endpoint
const VerifyURL = "https://www.google.com/recaptcha/api/siteverify"

var (
	// ErrNotLoaded means the browser never produced a token, or no verifier is configured
	ErrNotLoaded = fmt.Errorf("reCAPTCHA not loaded: %w", apperrors.ErrUnavailable)

	// ErrVerificationFailed means Google rejected the token
	ErrVerificationFailed = errors.New("recaptcha verification failed")
)

// Response represents the response from Google's reCAPTCHA verification API
type Response struct {
	Success     bool     `json:"success"`
	Score       float64  `json:"score"`
	Action      string   `json:"action"`
	ChallengeTS string   `json:"challenge_ts"`
	Hostname    string   `json:"hostname"`
	ErrorCodes  []string `json:"error-codes"`
}

// Verifier handles reCAPTCHA v3 verification
type Verifier struct {
	secretKey  string
	minScore   float64
	verifyURL  string
	httpClient httpclient.Client
}

// NewVerifier creates a new reCAPTCHA verifier
func NewVerifier(secretKey string, minScore float64, httpClient httpclient.Client) *Verifier {
	return &Verifier{
		secretKey:  secretKey,
		minScore:   minScore,
		verifyURL:  VerifyURL,
		httpClient: httpClient,
	}
}

// WithVerifyURL overrides the verification endpoint (used by tests)
func (v *Verifier) WithVerifyURL(u string) *Verifier {
	v.verifyURL = u
	return v
}

// Enabled reports whether a secret key is configured
func (v *Verifier) Enabled() bool {
	return v != nil && v.secretKey != ""
}

// Verify verifies a reCAPTCHA token with Google's API and checks the action and score
func (v *Verifier) Verify(ctx context.Context, token, action string) error {
	start := time.Now()

	data := url.Values{}
	data.Set("secret", v.secretKey)
	data.Set("response", token)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.verifyURL, strings.NewReader(data.Encode()))
	if err != nil {
		return fmt.Errorf("failed to build recaptcha request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := v.httpClient.Do(req)
	if err != nil {
		metrics.VerificationTotal.WithLabelValues("error").Inc()
		logger.LogAPICall("recaptcha", "siteverify", "error", metrics.MeasureDuration(start), zap.Error(err))
		return fmt.Errorf("failed to verify recaptcha: %w", err)
	}
	defer resp.Body.Close()

	var result Response
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		metrics.VerificationTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("failed to decode recaptcha response: %w", err)
	}

	logger.LogAPICall("recaptcha", "siteverify", "success", metrics.MeasureDuration(start),
		zap.Bool("verified", result.Success),
		zap.Float64("score", result.Score),
		zap.String("action", result.Action))

	if !result.Success {
		metrics.VerificationTotal.WithLabelValues("rejected").Inc()
		return fmt.Errorf("%w: %s", ErrVerificationFailed, strings.Join(result.ErrorCodes, ","))
	}
	if action != "" && result.Action != "" && result.Action != action {
		metrics.VerificationTotal.WithLabelValues("rejected").Inc()
		return fmt.Errorf("%w: action %q does not match %q", ErrVerificationFailed, result.Action, action)
	}
	if result.Score < v.minScore {
		metrics.VerificationTotal.WithLabelValues("low_score").Inc()
		return fmt.Errorf("%w: score %.2f below %.2f", ErrVerificationFailed, result.Score, v.minScore)
	}

	metrics.VerificationTotal.WithLabelValues("success").Inc()
	return nil
}

// TokenSource hands out the token a browser presented for one submission,
// after it has been checked with Google.
type TokenSource struct {
	verifier *Verifier
	token    string
}

// NewTokenSource binds a client-presented token to a verifier
func NewTokenSource(verifier *Verifier, token string) *TokenSource {
	return &TokenSource{verifier: verifier, token: strings.TrimSpace(token)}
}

// Token returns the presented token once it has passed verification for action
func (s *TokenSource) Token(ctx context.Context, action string) (string, error) {
	if s.token == "" || s.verifier == nil {
		return "", ErrNotLoaded
	}

	if !s.verifier.Enabled() {
		logger.Warn("reCAPTCHA secret not configured, skipping server-side verification",
			zap.String("action", action))
		return s.token, nil
	}

	if err := s.verifier.Verify(ctx, s.token, action); err != nil {
		return "", err
	}
	return s.token, nil
}
