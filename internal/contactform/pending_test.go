package contactform_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsukikage-sato/contact-web/internal/contactform"
	"github.com/tsukikage-sato/contact-web/internal/models"
	apperrors "github.com/tsukikage-sato/contact-web/pkg/errors"
)

func TestRegistry_ResolveDeliversToWaiter(t *testing.T) {
	r := contactform.NewRegistry(2)
	require.NoError(t, r.Register("a"))

	go r.Resolve("a", contactform.Outcome{Response: models.EndpointResponse{Result: "success"}})

	outcome, err := r.Wait(context.Background(), "a", time.Second)
	require.NoError(t, err)
	assert.True(t, outcome.Response.Succeeded())
	assert.Zero(t, r.Len())
}

func TestRegistry_ResolveBeforeWait(t *testing.T) {
	r := contactform.NewRegistry(1)
	require.NoError(t, r.Register("a"))

	assert.True(t, r.Resolve("a", contactform.Outcome{Response: models.EndpointResponse{Result: "failure"}}))
	assert.False(t, r.Resolve("a", contactform.Outcome{}), "a request resolves once")

	outcome, err := r.Wait(context.Background(), "a", time.Second)
	require.NoError(t, err)
	assert.Equal(t, "failure", outcome.Response.Result)
	assert.Zero(t, r.Len())

	_, err = r.Wait(context.Background(), "a", time.Second)
	assert.ErrorIs(t, err, contactform.ErrNotPending)
}

func TestRegistry_Bounded(t *testing.T) {
	r := contactform.NewRegistry(2)
	require.NoError(t, r.Register("a"))
	require.NoError(t, r.Register("b"))

	err := r.Register("c")
	assert.ErrorIs(t, err, contactform.ErrTooManyPending)
	assert.ErrorIs(t, err, apperrors.ErrCapacity)

	r.Resolve("a", contactform.Outcome{})
	_, err = r.Wait(context.Background(), "a", time.Second)
	require.NoError(t, err)
	assert.NoError(t, r.Register("c"))
}

func TestRegistry_DuplicateID(t *testing.T) {
	r := contactform.NewRegistry(2)
	require.NoError(t, r.Register("a"))

	assert.ErrorIs(t, r.Register("a"), contactform.ErrDuplicateRequest)
}

func TestRegistry_TimeoutRemovesEntry(t *testing.T) {
	r := contactform.NewRegistry(1)
	require.NoError(t, r.Register("a"))

	_, err := r.Wait(context.Background(), "a", 10*time.Millisecond)

	assert.ErrorIs(t, err, contactform.ErrPendingTimeout)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Zero(t, r.Len())
	assert.False(t, r.Resolve("a", contactform.Outcome{}), "late results are dropped")
}

func TestRegistry_ContextCancelRemovesEntry(t *testing.T) {
	r := contactform.NewRegistry(1)
	require.NoError(t, r.Register("a"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Wait(ctx, "a", time.Second)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, r.Len())
}

func TestRegistry_RequestsDoNotMaskEachOther(t *testing.T) {
	r := contactform.NewRegistry(2)
	require.NoError(t, r.Register("first"))
	require.NoError(t, r.Register("second"))

	r.Resolve("second", contactform.Outcome{Response: models.EndpointResponse{Result: "success"}})
	r.Resolve("first", contactform.Outcome{Response: models.EndpointResponse{Result: "failure", Message: "first"}})

	first, err := r.Wait(context.Background(), "first", time.Second)
	require.NoError(t, err)
	assert.Equal(t, "first", first.Response.Message)

	second, err := r.Wait(context.Background(), "second", time.Second)
	require.NoError(t, err)
	assert.True(t, second.Response.Succeeded())
}
