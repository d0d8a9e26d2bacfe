package contactform

import (
	"fmt"

	apperrors "github.com/tsukikage-sato/contact-web/pkg/errors"
)

// ErrorKind classifies why a submission failed. The guest sees the same
// error panel for every kind; the kind exists for logs and metrics.
type ErrorKind string

const (
	KindVerificationUnavailable ErrorKind = "verification_unavailable"
	KindVerificationFailed      ErrorKind = "verification_failed"
	KindNetwork                 ErrorKind = "network"
	KindEndpointRejected        ErrorKind = "endpoint_rejected"
	KindTimeout                 ErrorKind = "timeout"
	KindBusy                    ErrorKind = "busy"
)

// Messages shown on the error panel
const (
	MessageVerificationUnavailable = "reCAPTCHA not loaded"
	MessageVerificationFailed      = "reCAPTCHA verification failed"
	MessageNetwork                 = "ネットワークエラーが発生しました"
	MessageEndpointDefault         = "送信に失敗しました"
	MessageTimeout                 = "送信がタイムアウトしました。しばらく時間をおいて再度お試しください。"
	MessageFallback                = "送信に失敗しました。しばらく時間をおいて再度お試しください。"
)

var (
	// ErrInvalidForm is returned when required fields or consent are missing.
	// The controller state is left untouched.
	ErrInvalidForm = fmt.Errorf("contact form is incomplete: %w", apperrors.ErrInvalidInput)

	// ErrSubmissionInProgress is returned while an earlier attempt is awaiting its result
	ErrSubmissionInProgress = apperrors.ConflictError("submission already in progress")

	// ErrAlreadySubmitted is returned once the page has reached success
	ErrAlreadySubmitted = apperrors.ConflictError("submission already completed")

	// ErrNotDismissed is returned while the error panel is still showing
	ErrNotDismissed = apperrors.ConflictError("error not dismissed")
)

// SubmitError is a failed submission attempt
type SubmitError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *SubmitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *SubmitError) Unwrap() error {
	return e.Err
}
