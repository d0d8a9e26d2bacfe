package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/tsukikage-sato/contact-web/config"
	"github.com/tsukikage-sato/contact-web/internal/cache"
	"github.com/tsukikage-sato/contact-web/internal/contactform"
	"github.com/tsukikage-sato/contact-web/internal/models"
	"github.com/tsukikage-sato/contact-web/pkg/httpclient"
	"github.com/tsukikage-sato/contact-web/pkg/logger"
	"github.com/tsukikage-sato/contact-web/pkg/recaptcha"
	"github.com/tsukikage-sato/contact-web/pkg/sanitize"
	"github.com/tsukikage-sato/contact-web/pkg/trigger"
)

// SubmissionSucceededEvent is the trigger event type sent after a delivery
const SubmissionSucceededEvent = "contact.submission_succeeded"

// ContactPage is everything the contact page template needs
type ContactPage struct {
	SessionID       string
	Form            models.FormState
	Status          models.SubmissionStatus
	ErrorMessage    string
	RequestID       string
	Redirect        string
	RedirectAfterMS int
	SiteKey         string
	CompanyName     string
	Info            models.ContactInfo
}

// ContactService handles contact form sessions and submissions
type ContactService struct {
	sessions   *cache.SessionCache
	verifier   *recaptcha.Verifier
	config     *config.Config
	httpClient httpclient.Client
}

// NewContactService creates a new contact service instance. Every session
// shares one pending-request registry so the bound applies service-wide.
func NewContactService(
	cfg *config.Config,
	endpoint contactform.Endpoint,
	verifier *recaptcha.Verifier,
	httpClient httpclient.Client,
) *ContactService {
	pending := contactform.NewRegistry(cfg.FormEndpoint.MaxPending)
	opts := contactform.Options{
		CompanyName:        cfg.Contact.CompanyName,
		ConfirmationPath:   cfg.Contact.ConfirmationPath,
		ConfirmationDelay:  time.Duration(cfg.Contact.ConfirmationDelayMS) * time.Millisecond,
		DeliveryTimeout:    time.Duration(cfg.FormEndpoint.TimeoutSeconds) * time.Second,
		VerificationAction: cfg.ReCAPTCHA.Action,
	}

	sessions := cache.NewSessionCache(time.Duration(cfg.Session.TTLMinutes)*time.Minute, func(nav contactform.Navigator) *contactform.Controller {
		return contactform.NewController(contactform.Deps{
			Endpoint:  endpoint,
			Pending:   pending,
			Navigator: nav,
			Sanitizer: sanitize.FormSanitizer{},
		}, opts)
	})

	return &ContactService{
		sessions:   sessions,
		verifier:   verifier,
		config:     cfg,
		httpClient: httpClient,
	}
}

// Page returns the page state for sessionID, starting a session if needed
func (s *ContactService) Page(sessionID string) ContactPage {
	session := s.sessions.GetOrCreate(sessionID)
	snap := session.Controller.Snapshot()

	page := ContactPage{
		SessionID:    sessionID,
		Form:         snap.Form,
		Status:       snap.Status,
		ErrorMessage: snap.ErrorMessage,
		RequestID:    snap.RequestID,
		Redirect:     session.Redirect(),
		SiteKey:      s.config.ReCAPTCHA.SiteKey,
		CompanyName:  s.config.Contact.CompanyName,
		Info:         s.Info(),
	}
	if snap.Status == models.StatusSuccess && page.Redirect == "" {
		page.RedirectAfterMS = s.config.Contact.ConfirmationDelayMS
	}
	return page
}

// Submit runs one submission for sessionID with the browser-presented token
func (s *ContactService) Submit(ctx context.Context, sessionID string, form models.FormState, token string) (contactform.Result, error) {
	session := s.sessions.GetOrCreate(sessionID)

	var tokens contactform.TokenSource
	if s.verifier != nil {
		tokens = recaptcha.NewTokenSource(s.verifier, token)
	}

	result, err := session.Controller.Submit(ctx, form, tokens)
	if err != nil {
		logger.Debug("Contact submission refused",
			zap.String("session_id", sessionID),
			zap.Error(err))
		return result, err
	}

	if result.Status == models.StatusSuccess {
		trigger.CallAsync(s.config.EventTriggers.SubmissionSucceededTriggerURL, trigger.Event{
			Type:       SubmissionSucceededEvent,
			RequestID:  result.RequestID,
			OccurredAt: time.Now().UTC().Format(time.RFC3339),
		}, s.httpClient)
	}
	return result, nil
}

// Update keeps the values a visitor entered without submitting them
func (s *ContactService) Update(sessionID string, form models.FormState) error {
	return s.sessions.GetOrCreate(sessionID).Controller.Update(form)
}

// Dismiss returns the session from error to idle
func (s *ContactService) Dismiss(sessionID string) bool {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return false
	}
	return session.Controller.Dismiss()
}

// Status reports the session's submission state
func (s *ContactService) Status(sessionID string) models.ContactStatusResponse {
	page := s.Page(sessionID)

	resp := models.ContactStatusResponse{
		Status:          page.Status,
		RequestID:       page.RequestID,
		Error:           page.ErrorMessage,
		Redirect:        page.Redirect,
		RedirectAfterMS: page.RedirectAfterMS,
	}
	if page.Status != models.StatusSuccess {
		form := page.Form
		resp.Form = &form
	}
	return resp
}

// Redirect returns the route the session navigated to, if any, and ends
// the session. The next visit starts with a fresh form.
func (s *ContactService) Redirect(sessionID string) (string, bool) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return "", false
	}
	route := session.Redirect()
	if route == "" {
		return "", false
	}
	s.sessions.Drop(sessionID)
	return route, true
}

// Info returns the static contact panel
func (s *ContactService) Info() models.ContactInfo {
	return models.ContactInfo{
		Address:       s.config.Contact.Address,
		Phone:         s.config.Contact.Phone,
		Email:         s.config.Contact.Email,
		BusinessHours: s.config.Contact.BusinessHours,
	}
}

// ActiveSessions returns the number of live sessions
func (s *ContactService) ActiveSessions() int {
	return s.sessions.Len()
}

// Close ends every session, cancelling pending navigations
func (s *ContactService) Close() {
	s.sessions.Flush()
}
