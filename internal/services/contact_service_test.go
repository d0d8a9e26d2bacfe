package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/tsukikage-sato/contact-web/internal/contactform"
	"github.com/tsukikage-sato/contact-web/internal/models"
	"github.com/tsukikage-sato/contact-web/internal/services"
	"github.com/tsukikage-sato/contact-web/pkg/recaptcha"
)

func validForm() models.FormState {
	return models.FormState{
		Name:             "山田太郎",
		Email:            "taro@example.com",
		Phone:            "090-1234-5678",
		Subject:          "宿泊について",
		Message:          "<b>二名</b>で宿泊予定です",
		PreferredContact: models.PreferredContactPhone,
		PrivacyAgreement: true,
	}
}

func newService(endpoint *MockEndpoint) *services.ContactService {
	// An empty secret passes browser tokens through unverified
	verifier := recaptcha.NewVerifier("", 0.5, nil)
	return services.NewContactService(testConfig(), endpoint, verifier, nil)
}

func TestContactService_Page_NewSession(t *testing.T) {
	service := newService(new(MockEndpoint))
	defer service.Close()

	page := service.Page("s1")

	assert.Equal(t, models.StatusIdle, page.Status)
	assert.Equal(t, models.PreferredContactEmail, page.Form.PreferredContact)
	assert.Equal(t, "test-site-key", page.SiteKey)
	assert.Equal(t, "月影の郷", page.CompanyName)
	assert.Equal(t, "0261-00-0000", page.Info.Phone)
	assert.Equal(t, 1, service.ActiveSessions())
}

func TestContactService_Submit_SuccessThenRedirect(t *testing.T) {
	endpoint := new(MockEndpoint)
	service := newService(endpoint)
	defer service.Close()

	endpoint.On("Deliver", mock.Anything, mock.Anything, mock.MatchedBy(func(p models.OutboundPayload) bool {
		return p.RecaptchaToken == "tok-123" &&
			p.CompanyName == "月影の郷" &&
			p.Message == "件名: 宿泊について\n電話番号: 090-1234-5678\n希望連絡方法: phone\n\n二名で宿泊予定です"
	})).Return(models.EndpointResponse{Result: "success"}, nil).Once()

	result, err := service.Submit(context.Background(), "s1", validForm(), "tok-123")
	require.NoError(t, err)
	assert.Equal(t, models.StatusSuccess, result.Status)

	page := service.Page("s1")
	assert.Equal(t, models.StatusSuccess, page.Status)
	assert.Equal(t, models.FormState{PreferredContact: models.PreferredContactEmail}, page.Form)

	assert.Eventually(t, func() bool {
		_, ok := service.Redirect("s1")
		return ok
	}, time.Second, 5*time.Millisecond)

	// The session ended with the redirect
	assert.Equal(t, models.StatusIdle, service.Page("s1").Status)
	endpoint.AssertExpectations(t)
}

func TestContactService_Submit_MissingToken(t *testing.T) {
	endpoint := new(MockEndpoint)
	service := newService(endpoint)
	defer service.Close()

	result, err := service.Submit(context.Background(), "s1", validForm(), "")
	require.NoError(t, err)

	assert.Equal(t, models.StatusError, result.Status)
	assert.Equal(t, contactform.MessageVerificationUnavailable, result.ErrorMessage)
	endpoint.AssertNotCalled(t, "Deliver", mock.Anything, mock.Anything, mock.Anything)
}

func TestContactService_Submit_FailureThenDismiss(t *testing.T) {
	endpoint := new(MockEndpoint)
	service := newService(endpoint)
	defer service.Close()

	endpoint.On("Deliver", mock.Anything, mock.Anything, mock.Anything).
		Return(models.EndpointResponse{}, errors.New("connection refused")).Once()

	result, err := service.Submit(context.Background(), "s1", validForm(), "tok-123")
	require.NoError(t, err)
	assert.Equal(t, contactform.MessageNetwork, result.ErrorMessage)

	status := service.Status("s1")
	assert.Equal(t, models.StatusError, status.Status)
	assert.Equal(t, contactform.MessageNetwork, status.Error)
	require.NotNil(t, status.Form)
	assert.Equal(t, "山田太郎", status.Form.Name, "entered values are kept on failure")

	assert.True(t, service.Dismiss("s1"))
	assert.Equal(t, models.StatusIdle, service.Status("s1").Status)
	assert.False(t, service.Dismiss("s1"))
}

func TestContactService_Submit_InvalidForm(t *testing.T) {
	service := newService(new(MockEndpoint))
	defer service.Close()

	form := validForm()
	form.PrivacyAgreement = false

	_, err := service.Submit(context.Background(), "s1", form, "tok-123")

	assert.ErrorIs(t, err, contactform.ErrInvalidForm)
	assert.Equal(t, models.StatusIdle, service.Status("s1").Status)
}

func TestContactService_Status_SuccessReportsDelay(t *testing.T) {
	endpoint := new(MockEndpoint)
	cfg := testConfig()
	cfg.Contact.ConfirmationDelayMS = 60_000
	service := services.NewContactService(cfg, endpoint, recaptcha.NewVerifier("", 0.5, nil), nil)
	defer service.Close()

	endpoint.On("Deliver", mock.Anything, mock.Anything, mock.Anything).
		Return(models.EndpointResponse{Result: "success"}, nil).Once()

	_, err := service.Submit(context.Background(), "s1", validForm(), "tok-123")
	require.NoError(t, err)

	status := service.Status("s1")
	assert.Equal(t, models.StatusSuccess, status.Status)
	assert.Equal(t, 60_000, status.RedirectAfterMS)
	assert.Empty(t, status.Redirect)
	assert.Nil(t, status.Form)

	_, ok := service.Redirect("s1")
	assert.False(t, ok)
}

func TestContactService_Update(t *testing.T) {
	service := newService(new(MockEndpoint))
	defer service.Close()

	form := validForm()
	form.Message = "下書き"
	require.NoError(t, service.Update("s1", form))

	assert.Equal(t, "下書き", service.Page("s1").Form.Message)
}

func TestContactService_DismissUnknownSession(t *testing.T) {
	service := newService(new(MockEndpoint))
	defer service.Close()

	assert.False(t, service.Dismiss("missing"))
	_, ok := service.Redirect("missing")
	assert.False(t, ok)
}
