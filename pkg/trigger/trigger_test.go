package trigger_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsukikage-sato/contact-web/pkg/httpclient"
	"github.com/tsukikage-sato/contact-web/pkg/retry"
	"github.com/tsukikage-sato/contact-web/pkg/trigger"
)

func fastRetry() retry.Config {
	config := retry.DefaultConfig()
	config.InitialDelay = time.Millisecond
	config.MaxDelay = time.Millisecond
	config.Jitter = false
	return config
}

func TestCall_PostsEvent(t *testing.T) {
	var got trigger.Event
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	event := trigger.Event{Type: "contact.submitted", RequestID: "req-1", OccurredAt: "2026-10-16T18:04:05.678Z"}
	err := trigger.Call(context.Background(), server.URL, event, httpclient.NewStandardClient(time.Second), fastRetry())

	require.NoError(t, err)
	assert.Equal(t, event, got)
}

func TestCall_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	err := trigger.Call(context.Background(), server.URL, trigger.Event{Type: "contact.submitted"}, httpclient.NewStandardClient(time.Second), fastRetry())

	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestCall_DoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	err := trigger.Call(context.Background(), server.URL, trigger.Event{Type: "contact.submitted"}, httpclient.NewStandardClient(time.Second), fastRetry())

	assert.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestCallAsync_EmptyURLIsNoop(t *testing.T) {
	assert.NotPanics(t, func() {
		trigger.CallAsync("", trigger.Event{Type: "contact.submitted"}, nil)
	})
}
