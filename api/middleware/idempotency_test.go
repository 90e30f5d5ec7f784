package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/clipstream-backend/pkg/errors"
)

type fakeStore struct {
	mu   sync.Mutex
	data map[string]string
	ttls map[string]time.Duration
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeStore) Get(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if v, ok := f.data[key]; ok {
		return v, nil
	}
	return "", redis.Nil
}

func (f *fakeStore) SetNX(_ context.Context, key string, value any, ttl time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.data[key]; ok {
		return false, nil
	}
	f.data[key], _ = value.(string)
	f.ttls[key] = ttl
	return true, nil
}

func (f *fakeStore) IdempotencyKey(scope, id string) string {
	return scope + ":" + id
}

func (f *fakeStore) Del(_ context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, key := range keys {
		delete(f.data, key)
	}
	return nil
}

// graphqlRouter mounts handler for operation the way the api router does.
func graphqlRouter(store *fakeStore, operation string, handler http.HandlerFunc) http.Handler {
	r := chi.NewRouter()
	r.Route("/graphql", func(r chi.Router) {
		r.Use(Idempotency(store, nil))
		r.Post("/"+operation, handler)
	})
	return r
}

func post(h http.Handler, operation, key, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/graphql/"+operation, strings.NewReader(body))
	if key != "" {
		req.Header.Set(idempotencyHeader, key)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var payload struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	return payload.Error.Code
}

func TestRuleFor(t *testing.T) {
	tests := []struct {
		method, operation string
		ttl               time.Duration
		required, ok      bool
	}{
		{http.MethodPost, "sendTips", criticalIdempotencyTTL, true, true},
		{http.MethodPost, "deletePublishes", criticalIdempotencyTTL, false, true},
		{http.MethodPost, "createDraftVideo", defaultIdempotencyTTL, false, true},
		{http.MethodPost, "fetchPublishes", 0, false, false},
		{http.MethodGet, "sendTips", 0, false, false},
	}
	for _, tt := range tests {
		rule, ok := ruleFor(tt.method, tt.operation)
		require.Equal(t, tt.ok, ok, tt.operation)
		require.Equal(t, tt.ttl, rule.ttl, tt.operation)
		require.Equal(t, tt.required, rule.required, tt.operation)
	}
}

func TestIdempotencyRequiresHeaderForTips(t *testing.T) {
	called := false
	h := graphqlRouter(newFakeStore(), "sendTips", func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	rec := post(h, "sendTips", "", `{"amount":"1"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.False(t, called)
}

func TestIdempotencyReplaysStoredResponse(t *testing.T) {
	store := newFakeStore()
	calls := 0
	h := graphqlRouter(store, "sendTips", func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	first := post(h, "sendTips", "abc", `{"amount":"1"}`)
	require.Equal(t, http.StatusAccepted, first.Code)
	require.Empty(t, first.Header().Get("Idempotent-Replayed"))

	again := post(h, "sendTips", "abc", `{"amount":"1"}`)
	require.Equal(t, http.StatusAccepted, again.Code)
	require.Equal(t, "application/json", again.Header().Get("Content-Type"))
	require.Equal(t, "true", again.Header().Get("Idempotent-Replayed"))
	require.JSONEq(t, `{"ok":true}`, again.Body.String())
	require.Equal(t, 1, calls)

	require.Equal(t, criticalIdempotencyTTL, store.ttls["|sendTips:abc"])
}

func TestIdempotencyRejectsChangedBody(t *testing.T) {
	h := graphqlRouter(newFakeStore(), "sendTips", func(w http.ResponseWriter, r *http.Request) {})

	post(h, "sendTips", "xyz", `{"amount":"1"}`)
	rec := post(h, "sendTips", "xyz", `{"amount":"2"}`)
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, string(pkgerrors.CodeIdempotency), errorCode(t, rec))
}

func TestIdempotencyRejectsConcurrentDuplicate(t *testing.T) {
	store := newFakeStore()
	var h http.Handler
	var inner *httptest.ResponseRecorder
	h = graphqlRouter(store, "comment", func(w http.ResponseWriter, r *http.Request) {
		if inner == nil {
			inner = post(h, "comment", "dup", `{"content":"hi"}`)
		}
		w.WriteHeader(http.StatusOK)
	})

	rec := post(h, "comment", "dup", `{"content":"hi"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, inner)
	require.Equal(t, http.StatusConflict, inner.Code)
	require.Equal(t, string(pkgerrors.CodeIdempotency), errorCode(t, inner))
}

func TestIdempotencyOptionalKeyPassesThrough(t *testing.T) {
	store := newFakeStore()
	calls := 0
	h := graphqlRouter(store, "comment", func(w http.ResponseWriter, r *http.Request) {
		calls++
	})

	for range 2 {
		require.Equal(t, http.StatusOK, post(h, "comment", "", `{"content":"hi"}`).Code)
	}
	require.Equal(t, 2, calls)
	require.Empty(t, store.data)
}

func TestIdempotencyReleasesKeyOnServerError(t *testing.T) {
	store := newFakeStore()
	status := http.StatusServiceUnavailable
	calls := 0
	h := graphqlRouter(store, "sendTips", func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(status)
	})

	require.Equal(t, http.StatusServiceUnavailable, post(h, "sendTips", "retry-me", `{}`).Code)
	require.Empty(t, store.data)

	status = http.StatusOK
	require.Equal(t, http.StatusOK, post(h, "sendTips", "retry-me", `{}`).Code)
	require.Equal(t, 2, calls)
	require.Len(t, store.data, 1)
}

func TestIdempotencyScopesKeysByCaller(t *testing.T) {
	store := newFakeStore()
	calls := 0
	r := chi.NewRouter()
	r.Route("/graphql", func(r chi.Router) {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				next.ServeHTTP(w, req.WithContext(WithCaller(req.Context(), req.Header.Get("X-Caller"))))
			})
		})
		r.Use(Idempotency(store, nil))
		r.Post("/comment", func(w http.ResponseWriter, r *http.Request) { calls++ })
	})

	for _, caller := range []string{"alice", "bob"} {
		req := httptest.NewRequest(http.MethodPost, "/graphql/comment", strings.NewReader(`{}`))
		req.Header.Set(idempotencyHeader, "same")
		req.Header.Set("X-Caller", caller)
		r.ServeHTTP(httptest.NewRecorder(), req)
	}
	require.Equal(t, 2, calls)
}
