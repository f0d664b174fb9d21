package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/ledger-bot/internal/jobs"
)

// MockPublisher is a mock implementation of jobs.Publisher for testing.
type MockPublisher struct {
	PublishFunc func(ctx context.Context, job *jobs.UpdateJob) error
	published   []*jobs.UpdateJob
}

func (m *MockPublisher) Publish(ctx context.Context, job *jobs.UpdateJob) error {
	m.published = append(m.published, job)
	if m.PublishFunc != nil {
		return m.PublishFunc(ctx, job)
	}
	return nil
}

func (m *MockPublisher) Close() error { return nil }

const updateBody = `{"update_id":77,"message":{"message_id":10,"from":{"id":7},"chat":{"id":42},"date":0,"text":"coffee 500"}}`

func TestWebhookPublishesUpdate(t *testing.T) {
	pub := &MockPublisher{}
	h := NewWebhookHandler(pub, zerolog.Nop())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/telegram/webhook", strings.NewReader(updateBody)))

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, pub.published, 1)
	assert.Equal(t, "42:7", pub.published[0].Key)
	assert.Equal(t, 77, pub.published[0].Update.UpdateID)
	assert.Equal(t, "coffee 500", pub.published[0].Update.Message.Text)
}

func TestWebhookErrors(t *testing.T) {
	tests := []struct {
		name    string
		method  string
		body    string
		publish error
		want    int
	}{
		{"wrong method", http.MethodGet, "", nil, http.StatusMethodNotAllowed},
		{"bad json", http.MethodPost, "{", nil, http.StatusBadRequest},
		{"queue closed", http.MethodPost, updateBody, errors.New("queue is closed"), http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pub := &MockPublisher{PublishFunc: func(ctx context.Context, job *jobs.UpdateJob) error { return tt.publish }}
			rec := httptest.NewRecorder()
			NewWebhookHandler(pub, zerolog.Nop()).ServeHTTP(rec, httptest.NewRequest(tt.method, "/telegram/webhook", strings.NewReader(tt.body)))
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestWebhookFullQueueTimesOut(t *testing.T) {
	pub := &MockPublisher{PublishFunc: func(ctx context.Context, job *jobs.UpdateJob) error {
		<-ctx.Done()
		return ctx.Err()
	}}
	h := NewWebhookHandler(pub, zerolog.Nop())
	h.publishTimeout = 20 * time.Millisecond

	done := make(chan int, 1)
	go func() {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/telegram/webhook", strings.NewReader(updateBody)))
		done <- rec.Code
	}()

	select {
	case code := <-done:
		assert.Equal(t, http.StatusServiceUnavailable, code)
	case <-time.After(2 * time.Second):
		t.Fatal("webhook did not answer while the queue was full")
	}
}

type staticStats jobs.Stats

func (s staticStats) Stats() jobs.Stats { return jobs.Stats(s) }

func TestHealth(t *testing.T) {
	h := NewHealthHandler(staticStats{Published: 3, Processed: 2, Workers: 4})
	h.now = func() time.Time { return time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC) }

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{
		"status": "healthy",
		"time": "2026-10-18T12:00:00Z",
		"jobs": {"published": 3, "processed": 2, "failed": 0, "panicked": 0, "workers": 4}
	}`, rec.Body.String())
}
