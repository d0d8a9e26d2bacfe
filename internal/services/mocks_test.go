package services_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/tsukikage-sato/contact-web/internal/models"
)

// MockEndpoint is a mock implementation of contactform.Endpoint
type MockEndpoint struct {
	mock.Mock
}

func (m *MockEndpoint) Deliver(ctx context.Context, requestID string, payload models.OutboundPayload) (models.EndpointResponse, error) {
	args := m.Called(ctx, requestID, payload)
	return args.Get(0).(models.EndpointResponse), args.Error(1)
}
