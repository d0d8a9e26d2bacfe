// Package sanitize strips markup from guest-entered text before it is forwarded.
package sanitize

import (
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"

	"github.com/tsukikage-sato/contact-web/internal/models"
)

var (
	policyOnce sync.Once
	policy     *bluemonday.Policy
)

func strictPolicy() *bluemonday.Policy {
	policyOnce.Do(func() {
		policy = bluemonday.StrictPolicy()
	})
	return policy
}

// Text removes all HTML elements from s. Entities produced by the policy are
// decoded again so that plain characters such as & and < survive unchanged.
func Text(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(strictPolicy().Sanitize(s)))
}

// FormSanitizer cleans every free-text field of a contact form
type FormSanitizer struct{}

// Form returns a copy of form with markup removed
func (FormSanitizer) Form(form models.FormState) models.FormState {
	form.Name = Text(form.Name)
	form.Email = strings.TrimSpace(form.Email)
	form.Phone = Text(form.Phone)
	form.Subject = Text(form.Subject)
	form.Message = Text(form.Message)
	return form
}
