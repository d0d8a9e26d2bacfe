package services

import (
	"context"

	"github.com/tsukikage-sato/contact-web/internal/contactform"
	"github.com/tsukikage-sato/contact-web/internal/models"
)

// ContactServiceInterface defines the interface for contact service operations
type ContactServiceInterface interface {
	Page(sessionID string) ContactPage
	Submit(ctx context.Context, sessionID string, form models.FormState, token string) (contactform.Result, error)
	Update(sessionID string, form models.FormState) error
	Dismiss(sessionID string) bool
	Status(sessionID string) models.ContactStatusResponse
	Redirect(sessionID string) (string, bool)
	Info() models.ContactInfo
}

var _ ContactServiceInterface = (*ContactService)(nil)
