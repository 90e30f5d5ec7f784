package webhooks

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	webhooksvc "github.com/angelmondragon/clipstream-backend/internal/webhooks"
	"github.com/angelmondragon/clipstream-backend/pkg/cloudflare"
	pkgerrors "github.com/angelmondragon/clipstream-backend/pkg/errors"
	"github.com/angelmondragon/clipstream-backend/pkg/outbox/idempotency"
)

type inMemoryStore struct {
	mu   sync.Mutex
	data map[string]string
}

func newInMemoryStore() *inMemoryStore {
	return &inMemoryStore{data: map[string]string{}}
}

func (s *inMemoryStore) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data[key], nil
}

func (s *inMemoryStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[key]; ok {
		return false, nil
	}
	s.data[key] = value.(string)
	return true, nil
}

func (s *inMemoryStore) IdempotencyKey(scope, id string) string {
	return scope + ":" + id
}

func (s *inMemoryStore) Del(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range keys {
		delete(s.data, key)
	}
	return nil
}

type fakeDeletedService struct {
	calls int
	err   error
}

func (f *fakeDeletedService) VideoDeleted(context.Context, webhooksvc.PushEnvelope) error {
	f.calls++
	return f.err
}

type fakeStreamService struct {
	body      []byte
	signature string
	err       error
}

func (f *fakeStreamService) TranscodeWebhook(context.Context) (*cloudflare.Webhook, error) {
	return &cloudflare.Webhook{NotificationURL: "https://api.example.com/webhooks/cloudflare/finished"}, nil
}

func (f *fakeStreamService) LiveInputVideos(_ context.Context, id string) ([]cloudflare.Video, error) {
	if id == "" {
		return nil, pkgerrors.BadInput()
	}
	return []cloudflare.Video{{UID: id + "-rec"}}, nil
}

func (f *fakeStreamService) TranscodingFinished(_ context.Context, body []byte, signature string) error {
	f.body = body
	f.signature = signature
	return f.err
}

func newGuard(t *testing.T) *idempotency.Guard {
	t.Helper()
	manager, err := idempotency.NewManager(newInMemoryStore(), time.Minute)
	require.NoError(t, err)
	guard, err := manager.Scope("video-deleted")
	require.NoError(t, err)
	return guard
}

func pushBody(t *testing.T, messageID string) []byte {
	t.Helper()
	body, err := json.Marshal(webhooksvc.PushEnvelope{Message: &webhooksvc.PushMessage{Data: "ZGF0YQ==", MessageID: messageID}})
	require.NoError(t, err)
	return body
}

func TestVideoDeleted_SuccessAndIdempotent(t *testing.T) {
	svc := &fakeDeletedService{}
	guard := newGuard(t)
	handler := VideoDeleted(svc, guard, nil)

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/webhooks/pubsub/video-deleted", bytes.NewReader(pushBody(t, "m-1"))))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}
	require.Equal(t, 1, svc.calls)
}

func TestVideoDeleted_FailureReleasesMessage(t *testing.T) {
	svc := &fakeDeletedService{err: pkgerrors.Wrap(pkgerrors.CodeDependency, errors.New("db down"), "delete publish")}
	guard := newGuard(t)
	handler := VideoDeleted(svc, guard, nil)

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/webhooks/pubsub/video-deleted", bytes.NewReader(pushBody(t, "m-2"))))
		require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	}
	require.Equal(t, 2, svc.calls)
}

func TestVideoDeleted_RejectsMalformedEnvelope(t *testing.T) {
	svc := &fakeDeletedService{}
	rec := httptest.NewRecorder()
	VideoDeleted(svc, nil, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/webhooks/pubsub/video-deleted", bytes.NewReader([]byte(`{}`))))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Zero(t, svc.calls)
}

func TestTranscodingFinished_ForwardsSignature(t *testing.T) {
	svc := &fakeStreamService{}
	req := httptest.NewRequest(http.MethodPost, "/webhooks/cloudflare/finished", bytes.NewReader([]byte(`{"uid":"v"}`)))
	req.Header.Set("Webhook-Signature", "time=1,sig1=abc")
	rec := httptest.NewRecorder()
	TranscodingFinished(svc, nil).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "time=1,sig1=abc", svc.signature)
	require.JSONEq(t, `{"uid":"v"}`, string(svc.body))
}

func TestTranscodingFinished_Unauthorized(t *testing.T) {
	svc := &fakeStreamService{err: pkgerrors.New(pkgerrors.CodeUnauthorized, "Signature expired")}
	rec := httptest.NewRecorder()
	TranscodingFinished(svc, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/webhooks/cloudflare/finished", bytes.NewReader([]byte(`{}`))))
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Contains(t, rec.Body.String(), "Signature expired")
}

func TestLiveInputVideos_ReadsQuery(t *testing.T) {
	svc := &fakeStreamService{}
	rec := httptest.NewRecorder()
	LiveInputVideos(svc, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/webhooks/cloudflare/video?liveInputId=live-1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "live-1-rec")

	rec = httptest.NewRecorder()
	LiveInputVideos(svc, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/webhooks/cloudflare/video", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
