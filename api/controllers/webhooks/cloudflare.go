package webhooks

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/angelmondragon/clipstream-backend/api/responses"
	"github.com/angelmondragon/clipstream-backend/pkg/cloudflare"
	pkgerrors "github.com/angelmondragon/clipstream-backend/pkg/errors"
	"github.com/angelmondragon/clipstream-backend/pkg/logger"
)

const (
	streamSignatureHeader  = "webhook-signature"
	alchemySignatureHeader = "x-alchemy-signature"
)

// StreamService is the Cloudflare Stream side of the webhook service.
type StreamService interface {
	TranscodeWebhook(ctx context.Context) (*cloudflare.Webhook, error)
	LiveInputVideos(ctx context.Context, liveInputID string) ([]cloudflare.Video, error)
	TranscodingFinished(ctx context.Context, body []byte, signature string) error
}

// AddressService verifies wallet address activity callbacks.
type AddressService interface {
	AddressUpdated(ctx context.Context, body []byte, signature string) error
}

// AddressUpdated handles Alchemy address activity notifications.
func AddressUpdated(svc AddressService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		body, err := io.ReadAll(r.Body)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request body"))
			return
		}
		if err := svc.AddressUpdated(ctx, body, r.Header.Get(alchemySignatureHeader)); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteStatusOK(w)
	}
}

// CloudflareWebhook returns the configured Stream webhook subscription.
func CloudflareWebhook(svc StreamService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		hook, err := svc.TranscodeWebhook(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, hook)
	}
}

// LiveInputVideos lists the recordings of the live input named by the
// liveInputId query parameter.
func LiveInputVideos(svc StreamService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		videos, err := svc.LiveInputVideos(r.Context(), strings.TrimSpace(r.URL.Query().Get("liveInputId")))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, videos)
	}
}

// TranscodingFinished handles the Stream "video ready" notification.
func TranscodingFinished(svc StreamService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		body, err := io.ReadAll(r.Body)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request body"))
			return
		}
		if err := svc.TranscodingFinished(ctx, body, r.Header.Get(streamSignatureHeader)); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteStatusOK(w)
	}
}
