// Package contactform holds the per-visitor state machine behind the contact page.
//
//	idle --Submit--> submitting --success--> success (terminal)
//	                 submitting --failure--> error --Dismiss--> idle
package contactform

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tsukikage-sato/contact-web/internal/models"
	apperrors "github.com/tsukikage-sato/contact-web/pkg/errors"
	"github.com/tsukikage-sato/contact-web/pkg/logger"
	"github.com/tsukikage-sato/contact-web/pkg/metrics"
)

// VerificationAction is the default reCAPTCHA action label for contact submissions
const VerificationAction = "contact_form"

var validate = validator.New()

// TokenSource issues a verified bot-verification token
type TokenSource interface {
	Token(ctx context.Context, action string) (string, error)
}

// Endpoint delivers a payload to the form-processing endpoint
type Endpoint interface {
	Deliver(ctx context.Context, requestID string, payload models.OutboundPayload) (models.EndpointResponse, error)
}

// Sanitizer cleans free text before it leaves the service
type Sanitizer interface {
	Form(form models.FormState) models.FormState
}

// Deps are the collaborators a Controller talks to
type Deps struct {
	Endpoint  Endpoint
	Pending   *Registry
	Scheduler Scheduler
	Navigator Navigator
	Sanitizer Sanitizer
	Now       func() time.Time
	NewID     func() string
}

// Options are the fixed parameters of the page
type Options struct {
	CompanyName        string
	ConfirmationPath   string
	ConfirmationDelay  time.Duration
	DeliveryTimeout    time.Duration
	VerificationAction string // defaults to VerificationAction
}

// Snapshot is a consistent copy of the controller state
type Snapshot struct {
	Form         models.FormState
	Status       models.SubmissionStatus
	ErrorMessage string
	RequestID    string
}

// Result describes one Submit call
type Result struct {
	RequestID    string
	Status       models.SubmissionStatus
	ErrorMessage string
	// Err is the classified failure, nil on success
	Err *SubmitError
}

// Controller owns one visitor's contact form. It is safe for concurrent use.
type Controller struct {
	deps Deps
	opts Options

	mu        sync.Mutex
	form      models.FormState
	status    models.SubmissionStatus
	errMsg    string
	requestID string
	navTask   Task
	closed    bool
}

// NewController creates a controller with the page-load defaults
func NewController(deps Deps, opts Options) *Controller {
	if deps.Scheduler == nil {
		deps.Scheduler = RuntimeScheduler{}
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.NewID == nil {
		deps.NewID = uuid.NewString
	}
	if deps.Pending == nil {
		deps.Pending = NewRegistry(1)
	}
	if opts.VerificationAction == "" {
		opts.VerificationAction = VerificationAction
	}
	if opts.DeliveryTimeout <= 0 {
		opts.DeliveryTimeout = 15 * time.Second
	}

	return &Controller{
		deps:   deps,
		opts:   opts,
		form:   models.DefaultFormState(),
		status: models.StatusIdle,
	}
}

// Snapshot returns the current state
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		Form:         c.form,
		Status:       c.status,
		ErrorMessage: c.errMsg,
		RequestID:    c.requestID,
	}
}

// Form returns the retained field values
func (c *Controller) Form() models.FormState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.form
}

// Status returns the submission status
func (c *Controller) Status() models.SubmissionStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// ErrorMessage returns the message shown on the error panel
func (c *Controller) ErrorMessage() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errMsg
}

// Update replaces the editable field values
func (c *Controller) Update(form models.FormState) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.status {
	case models.StatusSubmitting:
		return ErrSubmissionInProgress
	case models.StatusSuccess:
		return ErrAlreadySubmitted
	}
	c.form = form
	return nil
}

// Validate checks the constraints the page puts on its inputs
func Validate(form models.FormState) error {
	if err := validate.Struct(form); err != nil {
		return errors.Join(ErrInvalidForm, err)
	}
	return nil
}

// Submit runs one submission attempt: verify, deliver, interpret.
// Failures are reported through the returned Result and the controller state;
// the error return is reserved for attempts that were refused outright.
func (c *Controller) Submit(ctx context.Context, form models.FormState, tokens TokenSource) (Result, error) {
	if err := Validate(form); err != nil {
		return Result{Status: c.Status()}, err
	}
	// Markup-only fields are empty once sanitized
	outbound := form
	if c.deps.Sanitizer != nil {
		outbound = c.deps.Sanitizer.Form(form)
		if err := Validate(outbound); err != nil {
			return Result{Status: c.Status()}, err
		}
	}

	requestID := c.deps.NewID()

	c.mu.Lock()
	switch c.status {
	case models.StatusSubmitting:
		c.mu.Unlock()
		return Result{Status: models.StatusSubmitting}, ErrSubmissionInProgress
	case models.StatusSuccess:
		c.mu.Unlock()
		return Result{Status: models.StatusSuccess}, ErrAlreadySubmitted
	case models.StatusError:
		c.mu.Unlock()
		return Result{Status: models.StatusError}, ErrNotDismissed
	}
	c.form = form
	c.status = models.StatusSubmitting
	c.errMsg = ""
	c.requestID = requestID
	c.mu.Unlock()

	log := logger.With(zap.String("request_id", requestID))
	log.Info("Contact form submission started")

	resp, subErr := c.run(ctx, requestID, outbound, tokens)
	if subErr == nil && !resp.Succeeded() {
		msg := strings.TrimSpace(resp.Message)
		if msg == "" {
			msg = MessageEndpointDefault
		}
		subErr = &SubmitError{Kind: KindEndpointRejected, Message: msg}
	}

	if subErr != nil {
		c.fail(subErr)
		metrics.ContactFormSubmissions.WithLabelValues(string(subErr.Kind)).Inc()
		log.Warn("Contact form submission failed",
			zap.String("kind", string(subErr.Kind)),
			zap.Error(subErr))
		return Result{
			RequestID:    requestID,
			Status:       models.StatusError,
			ErrorMessage: subErr.Message,
			Err:          subErr,
		}, nil
	}

	c.succeed()
	metrics.ContactFormSubmissions.WithLabelValues("success").Inc()
	log.Info("Contact form submission delivered")
	return Result{RequestID: requestID, Status: models.StatusSuccess}, nil
}

// run acquires a token and delivers the already sanitized form. The token is
// always settled before anything is sent. Once sent, the delivery outlives the
// caller's context and is bounded only by DeliveryTimeout.
func (c *Controller) run(ctx context.Context, requestID string, outbound models.FormState, tokens TokenSource) (models.EndpointResponse, *SubmitError) {
	if tokens == nil {
		return models.EndpointResponse{}, &SubmitError{Kind: KindVerificationUnavailable, Message: MessageVerificationUnavailable}
	}

	token, err := tokens.Token(ctx, c.opts.VerificationAction)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrUnavailable) {
			return models.EndpointResponse{}, &SubmitError{Kind: KindVerificationUnavailable, Message: MessageVerificationUnavailable, Err: err}
		}
		return models.EndpointResponse{}, &SubmitError{Kind: KindVerificationFailed, Message: MessageVerificationFailed, Err: err}
	}

	payload := models.NewOutboundPayload(outbound, c.opts.CompanyName, token, c.deps.Now())

	if err := c.deps.Pending.Register(requestID); err != nil {
		return models.EndpointResponse{}, &SubmitError{Kind: KindBusy, Message: MessageFallback, Err: err}
	}

	detached := context.WithoutCancel(ctx)
	deliverCtx, cancel := context.WithTimeout(detached, c.opts.DeliveryTimeout)
	defer cancel()

	go func() {
		resp, err := c.deps.Endpoint.Deliver(deliverCtx, requestID, payload)
		c.deps.Pending.Resolve(requestID, Outcome{Response: resp, Err: err})
	}()

	outcome, err := c.deps.Pending.Wait(detached, requestID, c.opts.DeliveryTimeout)
	if err == nil {
		err = outcome.Err
	}
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return models.EndpointResponse{}, &SubmitError{Kind: KindTimeout, Message: MessageTimeout, Err: err}
		}
		return models.EndpointResponse{}, &SubmitError{Kind: KindNetwork, Message: MessageNetwork, Err: err}
	}

	return outcome.Response, nil
}

func (c *Controller) fail(subErr *SubmitError) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.status = models.StatusError
	c.errMsg = subErr.Message
}

func (c *Controller) succeed() {
	c.mu.Lock()
	c.status = models.StatusSuccess
	c.errMsg = ""
	c.form = models.DefaultFormState()
	schedule := !c.closed && c.deps.Navigator != nil
	c.mu.Unlock()

	if !schedule {
		return
	}

	route := c.opts.ConfirmationPath
	task := c.deps.Scheduler.AfterFunc(c.opts.ConfirmationDelay, func() {
		c.mu.Lock()
		closed := c.closed
		c.mu.Unlock()
		if closed {
			return
		}
		metrics.ConfirmationNavigations.WithLabelValues("fired").Inc()
		c.deps.Navigator.Navigate(route)
	})

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		// Closed while scheduling
		task.Stop()
		return
	}
	c.navTask = task
}

// Dismiss returns from error to idle, keeping the entered values.
// It reports whether the state changed.
func (c *Controller) Dismiss() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.status != models.StatusError {
		return false
	}
	c.status = models.StatusIdle
	c.errMsg = ""
	return true
}

// Close ends the controller's lifetime. A pending confirmation navigation
// never fires after Close.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	if c.navTask != nil && c.navTask.Stop() {
		metrics.ConfirmationNavigations.WithLabelValues("cancelled").Inc()
	}
	c.navTask = nil
}
