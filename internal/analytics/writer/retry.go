package writer

import (
	"context"
	"errors"
	"net/http"
	"time"

	cbigquery "cloud.google.com/go/bigquery"
	"github.com/cenkalti/backoff/v4"
	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// RetryPolicy bounds the exponential backoff between insert attempts.
type RetryPolicy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaximumBackoff time.Duration
}

func (p RetryPolicy) withDefaults() RetryPolicy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 3
	}
	if p.InitialBackoff <= 0 {
		p.InitialBackoff = 250 * time.Millisecond
	}
	if p.MaximumBackoff <= 0 {
		p.MaximumBackoff = 2 * time.Second
	}
	p.MaximumBackoff = max(p.MaximumBackoff, p.InitialBackoff)
	return p
}

// do retries op with exponential backoff while its errors are transient.
func (p RetryPolicy) do(ctx context.Context, op func() error) error {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = p.InitialBackoff
	exp.MaxInterval = p.MaximumBackoff
	exp.MaxElapsedTime = 0

	policy := backoff.WithContext(backoff.WithMaxRetries(exp, uint64(p.MaxAttempts-1)), ctx)
	return backoff.Retry(func() error {
		err := op()
		if err != nil && !isRetryableBigQueryError(err) {
			return backoff.Permanent(err)
		}
		return err
	}, policy)
}

var (
	retryableHTTPCodes = map[int]bool{
		http.StatusTooManyRequests:     true,
		http.StatusRequestTimeout:      true,
		http.StatusInternalServerError: true,
		http.StatusBadGateway:          true,
		http.StatusServiceUnavailable:  true,
		http.StatusGatewayTimeout:      true,
	}
	retryableGRPCCodes = map[codes.Code]bool{
		codes.Aborted:           true,
		codes.DeadlineExceeded:  true,
		codes.Internal:          true,
		codes.ResourceExhausted: true,
		codes.Unavailable:       true,
	}
)

// isRetryableBigQueryError is true only when every underlying failure is
// transient. Row errors from a partial insert are checked one by one.
func isRetryableBigQueryError(err error) bool {
	var (
		multi  cbigquery.MultiError
		rows   cbigquery.PutMultiError
		apiErr *googleapi.Error
	)
	switch {
	case err == nil:
		return false
	case errors.As(err, &multi):
		return allRetryable(multi)
	case errors.As(err, &rows):
		if len(rows) == 0 {
			return false
		}
		for _, rowErr := range rows {
			if !allRetryable(rowErr.Errors) {
				return false
			}
		}
		return true
	case errors.As(err, &apiErr):
		return retryableHTTPCodes[apiErr.Code]
	}
	if st, ok := status.FromError(err); ok && st.Code() != codes.Unknown {
		return retryableGRPCCodes[st.Code()]
	}
	return false
}

func allRetryable(errs cbigquery.MultiError) bool {
	if len(errs) == 0 {
		return false
	}
	for _, inner := range errs {
		if !isRetryableBigQueryError(inner) {
			return false
		}
	}
	return true
}
