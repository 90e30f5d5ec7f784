package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/angelmondragon/clipstream-backend/api/responses"
	pkgerrors "github.com/angelmondragon/clipstream-backend/pkg/errors"
	"github.com/angelmondragon/clipstream-backend/pkg/logger"
	pkgredis "github.com/angelmondragon/clipstream-backend/pkg/redis"
)

const (
	idempotencyHeader = "Idempotency-Key"

	defaultIdempotencyTTL  = 24 * time.Hour
	criticalIdempotencyTTL = 7 * 24 * time.Hour
	// inFlightTTL bounds how long a crashed request keeps its key reserved.
	inFlightTTL = 30 * time.Second
)

type idempotencyRule struct {
	ttl      time.Duration
	required bool
}

// idempotencyRules lists the mutations that honor Idempotency-Key, keyed by
// operation name. Required rules reject requests without the header.
var idempotencyRules = map[string]idempotencyRule{
	"createAccount":     {ttl: defaultIdempotencyTTL},
	"createProfile":     {ttl: defaultIdempotencyTTL},
	"createDraftVideo":  {ttl: defaultIdempotencyTTL},
	"createDraftBlog":   {ttl: defaultIdempotencyTTL},
	"comment":           {ttl: defaultIdempotencyTTL},
	"addToNewPlaylist":  {ttl: defaultIdempotencyTTL},
	"reportPublish":     {ttl: defaultIdempotencyTTL},
	"requestLiveStream": {ttl: defaultIdempotencyTTL},
	"sendTips":          {ttl: criticalIdempotencyTTL, required: true},
	"deletePublishes":   {ttl: criticalIdempotencyTTL},
}

// storedResponse is what a key maps to. A record with Pending set marks a
// request that is still running.
type storedResponse struct {
	Pending     bool   `json:"pending,omitempty"`
	RequestHash string `json:"request_hash"`
	Status      int    `json:"status,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	Body        []byte `json:"body,omitempty"`
}

// Idempotency replays the first response of a keyed mutation for the rest
// of the rule's TTL. Mount it under /graphql; the operation is the last path
// segment. Responses with a 5xx status are not kept so clients can retry.
func Idempotency(store pkgredis.IdempotencyStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			operation := path.Base(r.URL.Path)
			rule, ok := ruleFor(r.Method, operation)
			if !ok || store == nil {
				next.ServeHTTP(w, r)
				return
			}
			ctx := r.Context()

			clientKey := strings.TrimSpace(r.Header.Get(idempotencyHeader))
			if clientKey == "" {
				if rule.required {
					responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeBadRequest, "Idempotency-Key header required"))
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			body, err := io.ReadAll(r.Body)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeBadRequest, err, "read request"))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			hash := requestHash(body)
			key := store.IdempotencyKey(CallerFromContext(ctx)+"|"+operation, clientKey)

			reserved, err := reserve(ctx, store, key, hash)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check idempotency"))
				return
			}
			if !reserved {
				replay(ctx, store, key, hash, w, logg)
				return
			}

			var captured bytes.Buffer
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			ww.Tee(&captured)
			next.ServeHTTP(ww, r)
			remember(ctx, store, key, rule.ttl, storedResponse{
				RequestHash: hash,
				Status:      statusOf(ww),
				ContentType: ww.Header().Get("Content-Type"),
				Body:        captured.Bytes(),
			}, logg)
		})
	}
}

func ruleFor(method, operation string) (idempotencyRule, bool) {
	if method != http.MethodPost {
		return idempotencyRule{}, false
	}
	rule, ok := idempotencyRules[operation]
	return rule, ok
}

func reserve(ctx context.Context, store pkgredis.IdempotencyStore, key, hash string) (bool, error) {
	marker, err := json.Marshal(storedResponse{Pending: true, RequestHash: hash})
	if err != nil {
		return false, err
	}
	return store.SetNX(ctx, key, string(marker), inFlightTTL)
}

func replay(ctx context.Context, store pkgredis.IdempotencyStore, key, hash string, w http.ResponseWriter, logg *logger.Logger) {
	raw, err := store.Get(ctx, key)
	if errors.Is(err, redis.Nil) || (err == nil && raw == "") {
		// Released between reserve and read; the client may retry.
		responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeIdempotency, "request with this idempotency key is being retried"))
		return
	}
	if err != nil {
		responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check idempotency"))
		return
	}
	var stored storedResponse
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode idempotency record"))
		return
	}
	switch {
	case stored.RequestHash != hash:
		responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeIdempotency, "idempotency key reused with different request body"))
	case stored.Pending:
		responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeIdempotency, "request with this idempotency key is in progress"))
	default:
		if stored.ContentType != "" {
			w.Header().Set("Content-Type", stored.ContentType)
		}
		w.Header().Set("Idempotent-Replayed", "true")
		w.WriteHeader(stored.Status)
		_, _ = w.Write(stored.Body)
	}
}

// remember swaps the in-flight marker for the final response, or drops it
// when the response should not be replayed.
func remember(ctx context.Context, store pkgredis.IdempotencyStore, key string, ttl time.Duration, resp storedResponse, logg *logger.Logger) {
	ctx = context.WithoutCancel(ctx)
	if err := store.Del(ctx, key); err != nil {
		logError(ctx, logg, "release idempotency key", err)
		return
	}
	if resp.Status >= http.StatusInternalServerError {
		return
	}
	payload, err := json.Marshal(resp)
	if err != nil {
		logError(ctx, logg, "marshal idempotency record", err)
		return
	}
	if _, err := store.SetNX(ctx, key, string(payload), ttl); err != nil {
		logError(ctx, logg, "persist idempotency record", err)
	}
}

func requestHash(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

func logError(ctx context.Context, logg *logger.Logger, msg string, err error) {
	if logg == nil || err == nil {
		return
	}
	logg.Error(ctx, msg, err)
}
