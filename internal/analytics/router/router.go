// Package router turns engagement events from the outbox into BigQuery
// rows, one projection per event type.
package router

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/angelmondragon/clipstream-backend/internal/analytics/types"
	"github.com/angelmondragon/clipstream-backend/pkg/enums"
	"github.com/angelmondragon/clipstream-backend/pkg/logger"
	"github.com/angelmondragon/clipstream-backend/pkg/outbox/payloads"
)

var (
	ErrUnsupportedEventType = errors.New("unsupported analytics event type")
	// ErrInvalidPayload marks payloads that will never decode or validate.
	ErrInvalidPayload = errors.New("invalid analytics payload")
)

// Writer delivers BigQuery rows produced by analytics handlers.
type Writer interface {
	InsertEngagement(ctx context.Context, row types.EngagementEventRow) error
}

// Handler consumes one envelope of a single event type.
type Handler interface {
	Handle(ctx context.Context, envelope types.Envelope) error
}

// Router dispatches analytics envelopes to the handler of their event type.
type Router struct {
	handlers map[enums.AnalyticsEventType]Handler
}

func NewRouter(writer Writer, logg *logger.Logger) (*Router, error) {
	if writer == nil {
		return nil, errors.New("writer is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}
	v := validator.New()
	return &Router{handlers: map[enums.AnalyticsEventType]Handler{
		enums.AnalyticsEventPublishViewed:  newEngagementHandler(writer, logg, v, publishViewed),
		enums.AnalyticsEventPublishLiked:   newEngagementHandler(writer, logg, v, publishLiked),
		enums.AnalyticsEventCommentCreated: newEngagementHandler(writer, logg, v, commentCreated),
		enums.AnalyticsEventTipSent:        newEngagementHandler(writer, logg, v, tipSent),
	}}, nil
}

// Register replaces the handler of eventType.
func (r *Router) Register(eventType enums.AnalyticsEventType, handler Handler) {
	r.handlers[eventType] = handler
}

func (r *Router) Handle(ctx context.Context, envelope types.Envelope) error {
	handler, ok := r.handlers[envelope.EventType]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnsupportedEventType, envelope.EventType)
	}
	return handler.Handle(ctx, envelope)
}

func publishViewed(e payloads.PublishViewedEvent, row *types.EngagementEventRow) {
	row.PublishID = e.PublishID.String()
	row.CreatorID = idPtr(e.CreatorID)
	row.ActorID = optionalID(e.ViewerID)
	row.Views = &e.Views
	if e.PublishType != nil {
		row.PublishType = stringPtr(string(*e.PublishType))
	}
}

func publishLiked(e payloads.PublishLikedEvent, row *types.EngagementEventRow) {
	row.PublishID = e.PublishID.String()
	row.CreatorID = idPtr(e.CreatorID)
	row.ActorID = idPtr(e.ProfileID)
}

func commentCreated(e payloads.CommentCreatedEvent, row *types.EngagementEventRow) {
	row.PublishID = e.PublishID.String()
	row.ActorID = idPtr(e.CreatorID)
	row.CommentID = idPtr(e.CommentID)
	row.ParentID = optionalID(e.ParentID)
}

func tipSent(e payloads.TipSentEvent, row *types.EngagementEventRow) {
	row.PublishID = e.PublishID.String()
	row.CreatorID = idPtr(e.ReceiverID)
	row.ActorID = idPtr(e.SenderID)
	row.TipID = idPtr(e.TipID)
	row.TipAmount = stringPtr(e.Amount.String())
	row.TipFee = stringPtr(e.Fee.String())
}
