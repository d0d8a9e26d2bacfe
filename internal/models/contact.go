package models

import (
	"fmt"
	"time"
)

// PreferredContact is how the guest would like to be answered
type PreferredContact string

const (
	PreferredContactEmail PreferredContact = "email"
	PreferredContactPhone PreferredContact = "phone"
)

// Label returns the display label used on the page
func (p PreferredContact) Label() string {
	switch p {
	case PreferredContactPhone:
		return "お電話"
	default:
		return "メール"
	}
}

// FormState is the editable contact form. The binding tags mirror the
// constraints the page puts on its inputs.
type FormState struct {
	Name             string           `form:"name" json:"name" binding:"required,max=100" validate:"required,max=100"`
	Email            string           `form:"email" json:"email" binding:"required,email,max=254" validate:"required,email,max=254"`
	Phone            string           `form:"phone" json:"phone" binding:"max=30" validate:"max=30"`
	Subject          string           `form:"subject" json:"subject" binding:"required,max=200" validate:"required,max=200"`
	Message          string           `form:"message" json:"message" binding:"required,max=5000" validate:"required,max=5000"`
	PreferredContact PreferredContact `form:"preferredContact" json:"preferredContact" binding:"required,oneof=email phone" validate:"required,oneof=email phone"`
	PrivacyAgreement bool             `form:"privacyAgreement" json:"privacyAgreement" binding:"required" validate:"required"`
}

// DefaultFormState returns the form as it looks on page load
func DefaultFormState() FormState {
	return FormState{PreferredContact: PreferredContactEmail}
}

// SubmissionStatus is the page's submission state
type SubmissionStatus string

const (
	StatusIdle       SubmissionStatus = "idle"
	StatusSubmitting SubmissionStatus = "submitting"
	StatusSuccess    SubmissionStatus = "success"
	StatusError      SubmissionStatus = "error"
)

// timestampLayout matches JavaScript's Date.prototype.toISOString
const timestampLayout = "2006-01-02T15:04:05.000Z"

// OutboundPayload is the JSON document handed to the form endpoint
type OutboundPayload struct {
	Timestamp      string `json:"timestamp"`
	CompanyName    string `json:"companyName"`
	UserName       string `json:"userName"`
	Email          string `json:"email"`
	Message        string `json:"message"`
	RecaptchaToken string `json:"recaptchaToken"`
}

// NewOutboundPayload derives the payload for one submission attempt
func NewOutboundPayload(form FormState, companyName, token string, now time.Time) OutboundPayload {
	return OutboundPayload{
		Timestamp:      now.UTC().Format(timestampLayout),
		CompanyName:    companyName,
		UserName:       form.Name,
		Email:          form.Email,
		Message:        ComposeMessage(form),
		RecaptchaToken: token,
	}
}

// ComposeMessage folds subject, phone and preferred contact into the message body
func ComposeMessage(form FormState) string {
	return fmt.Sprintf("件名: %s\n電話番号: %s\n希望連絡方法: %s\n\n%s",
		form.Subject, form.Phone, form.PreferredContact, form.Message)
}

// EndpointResponse is what the form endpoint reports back
type EndpointResponse struct {
	Result  string `json:"result"`
	Message string `json:"message,omitempty"`
}

// Succeeded reports whether the endpoint accepted the submission
func (r EndpointResponse) Succeeded() bool {
	return r.Result == "success"
}

// ContactInfo is the static contact panel below the form
type ContactInfo struct {
	Address       string
	Phone         string
	Email         string
	BusinessHours string
}

// ContactSubmitRequest is a submission as posted by the page or the JSON API
type ContactSubmitRequest struct {
	FormState
	RecaptchaToken string `form:"recaptchaToken" json:"recaptchaToken"`
}

// ContactStatusResponse reports a session's submission state to API clients
type ContactStatusResponse struct {
	Status          SubmissionStatus `json:"status"`
	RequestID       string           `json:"requestId,omitempty"`
	Error           string           `json:"error,omitempty"`
	Redirect        string           `json:"redirect,omitempty"`
	RedirectAfterMS int              `json:"redirectAfterMs,omitempty"`
	Form            *FormState       `json:"form,omitempty"`
}
