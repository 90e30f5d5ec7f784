package webhooks

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/angelmondragon/clipstream-backend/api/responses"
	webhooksvc "github.com/angelmondragon/clipstream-backend/internal/webhooks"
	pkgerrors "github.com/angelmondragon/clipstream-backend/pkg/errors"
	"github.com/angelmondragon/clipstream-backend/pkg/logger"
)

// VideoDeletedService deletes the publish named by a push delivery.
type VideoDeletedService interface {
	VideoDeleted(ctx context.Context, envelope webhooksvc.PushEnvelope) error
}

type pushGuard interface {
	CheckAndMark(ctx context.Context, messageID string) (bool, error)
	Delete(ctx context.Context, messageID string) error
}

// VideoDeleted handles Pub/Sub push deliveries announcing removed media.
// Redeliveries of a handled message id are acknowledged without work.
func VideoDeleted(svc VideoDeletedService, guard pushGuard, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var envelope webhooksvc.PushEnvelope
		if err := json.NewDecoder(r.Body).Decode(&envelope); err != nil || envelope.Message == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeBadRequest, "invalid Pub/Sub message format"))
			return
		}

		messageID := envelope.Message.MessageID
		if messageID != "" && guard != nil {
			already, err := guard.CheckAndMark(ctx, messageID)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check idempotency"))
				return
			}
			if already {
				responses.WriteStatusOK(w)
				return
			}
		}

		if err := svc.VideoDeleted(ctx, envelope); err != nil {
			// Only retryable failures may run again on redelivery.
			if messageID != "" && guard != nil && pkgerrors.Retryable(err) {
				_ = guard.Delete(ctx, messageID)
			}
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if logg != nil {
			logg.Info(logg.WithField(ctx, "message_id", messageID), "video deletion processed")
		}
		responses.WriteStatusOK(w)
	}
}
