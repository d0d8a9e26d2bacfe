package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tsukikage-sato/contact-web/internal/contactform"
	"github.com/tsukikage-sato/contact-web/internal/middleware"
	"github.com/tsukikage-sato/contact-web/internal/models"
	"github.com/tsukikage-sato/contact-web/internal/services"
	apperrors "github.com/tsukikage-sato/contact-web/pkg/errors"
)

const contactPath = "/contact"

// contactView is the data behind contact.html
type contactView struct {
	Page           services.ContactPage
	FieldErrors    map[string]string
	Action         string
	RefreshSeconds int
}

type ContactHandler struct {
	service     services.ContactServiceInterface
	companyName string
	action      string
}

func NewContactHandler(service services.ContactServiceInterface, companyName, verificationAction string) *ContactHandler {
	if verificationAction == "" {
		verificationAction = contactform.VerificationAction
	}
	return &ContactHandler{service: service, companyName: companyName, action: verificationAction}
}

func sessionID(c *gin.Context) (string, bool) {
	id, err := middleware.GetSessionID(c)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Internal server error", err)
		return "", false
	}
	return id, true
}

func (h *ContactHandler) render(c *gin.Context, status int, page services.ContactPage, fieldErrors map[string]string) {
	view := contactView{
		Page:        page,
		FieldErrors: fieldErrors,
		Action:      h.action,
	}
	if page.RedirectAfterMS > 0 {
		view.RefreshSeconds = (page.RedirectAfterMS + 999) / 1000
	}
	c.HTML(status, "contact.html", view)
}

// ContactPage renders the form, or sends the visitor on once the
// confirmation navigation has fired
func (h *ContactHandler) ContactPage(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	if route, ok := h.service.Redirect(id); ok {
		c.Redirect(http.StatusSeeOther, route)
		return
	}

	h.render(c, http.StatusOK, h.service.Page(id), nil)
}

// SubmitForm handles the page's form post
func (h *ContactHandler) SubmitForm(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	var req models.ContactSubmitRequest
	if err := c.ShouldBind(&req); err != nil {
		attachError(c, err)
		page := h.service.Page(id)
		page.Form = req.FormState
		h.render(c, http.StatusBadRequest, page, fieldErrorMap(ParseValidationErrors(err)))
		return
	}

	if _, err := h.service.Submit(c.Request.Context(), id, req.FormState, req.RecaptchaToken); err != nil {
		attachError(c, err)
		if errors.Is(err, contactform.ErrInvalidForm) {
			page := h.service.Page(id)
			page.Form = req.FormState
			h.render(c, http.StatusBadRequest, page, fieldErrorMap(ParseValidationErrors(err)))
			return
		}
	}

	// Outcome is shown by the page itself
	c.Redirect(http.StatusSeeOther, contactPath)
}

// DismissError returns the page from the error panel to the form
func (h *ContactHandler) DismissError(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	h.service.Dismiss(id)
	c.Redirect(http.StatusSeeOther, contactPath)
}

// ThankYou renders the confirmation page
func (h *ContactHandler) ThankYou(c *gin.Context) {
	c.HTML(http.StatusOK, "thank_you.html", gin.H{
		"CompanyName": h.companyName,
	})
}

// Submit handles JSON submissions
func (h *ContactHandler) Submit(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	var req models.ContactSubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErrorWithDetails(c, http.StatusBadRequest, "Invalid request", ParseValidationErrors(err), err)
		return
	}

	result, err := h.service.Submit(c.Request.Context(), id, req.FormState, req.RecaptchaToken)
	if err != nil {
		switch {
		case errors.Is(err, contactform.ErrInvalidForm):
			respondErrorWithDetails(c, http.StatusBadRequest, "Invalid request", ParseValidationErrors(err), err)
		case apperrors.Is(err, apperrors.ErrConflict):
			attachError(c, err)
			c.JSON(http.StatusConflict, h.service.Status(id))
		default:
			respondError(c, http.StatusInternalServerError, "Internal server error", err)
		}
		return
	}

	status := http.StatusOK
	if result.Err != nil {
		attachError(c, result.Err)
		status = statusForKind(result.Err.Kind)
	}
	c.JSON(status, h.service.Status(id))
}

// Dismiss handles JSON error dismissal
func (h *ContactHandler) Dismiss(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	if !h.service.Dismiss(id) {
		c.JSON(http.StatusConflict, h.service.Status(id))
		return
	}
	c.JSON(http.StatusOK, h.service.Status(id))
}

// Status reports the session's submission state
func (h *ContactHandler) Status(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, h.service.Status(id))
}

func statusForKind(kind contactform.ErrorKind) int {
	switch kind {
	case contactform.KindVerificationUnavailable, contactform.KindVerificationFailed:
		return http.StatusBadRequest
	case contactform.KindBusy:
		return http.StatusServiceUnavailable
	case contactform.KindTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}
