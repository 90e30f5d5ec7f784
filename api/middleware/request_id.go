package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/clipstream-backend/pkg/logger"
)

const (
	requestIDHeader    = "X-Request-Id"
	cloudTraceHeader   = "X-Cloud-Trace-Context"
	maxRequestIDLength = 128
)

// RequestID tags the request with the caller supplied id, the Cloud Run
// trace id, or a fresh uuid, in that order.
func RequestID(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := requestID(r)
			w.Header().Set(requestIDHeader, reqID)

			ctx := r.Context()
			if logg != nil {
				ctx = logg.WithRequestID(ctx, reqID)
				ctx = logg.WithTrace(ctx, traceID(r))
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func requestID(r *http.Request) string {
	if id := strings.TrimSpace(r.Header.Get(requestIDHeader)); id != "" && len(id) <= maxRequestIDLength {
		return id
	}
	if id := traceID(r); id != "" {
		return id
	}
	return uuid.NewString()
}

// traceID reads X-Cloud-Trace-Context: TRACE_ID/SPAN_ID;o=OPTIONS.
func traceID(r *http.Request) string {
	id, _, _ := strings.Cut(r.Header.Get(cloudTraceHeader), "/")
	return strings.TrimSpace(id)
}
