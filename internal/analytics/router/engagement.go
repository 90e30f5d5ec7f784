package router

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/angelmondragon/clipstream-backend/internal/analytics/types"
	analyticswriter "github.com/angelmondragon/clipstream-backend/internal/analytics/writer"
	"github.com/angelmondragon/clipstream-backend/pkg/logger"
)

// engagementHandler decodes payloads of type T, validates their tags and
// lets project fill the event specific columns.
type engagementHandler[T any] struct {
	writer   Writer
	logg     *logger.Logger
	validate *validator.Validate
	project  func(T, *types.EngagementEventRow)
}

func newEngagementHandler[T any](writer Writer, logg *logger.Logger, v *validator.Validate, project func(T, *types.EngagementEventRow)) Handler {
	return &engagementHandler[T]{writer: writer, logg: logg, validate: v, project: project}
}

func (h *engagementHandler[T]) Handle(ctx context.Context, envelope types.Envelope) error {
	if len(envelope.Payload) == 0 {
		return fmt.Errorf("%w: %s payload empty", ErrInvalidPayload, envelope.EventType)
	}
	var event T
	if err := json.Unmarshal(envelope.Payload, &event); err != nil {
		return fmt.Errorf("%w: decode %s: %v", ErrInvalidPayload, envelope.EventType, err)
	}
	if err := h.validate.Struct(event); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidPayload, envelope.EventType, err)
	}
	payload, err := analyticswriter.EncodeJSON(envelope.Payload)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	row := types.EngagementEventRow{
		EventID:    envelope.EventID,
		EventType:  string(envelope.EventType),
		OccurredAt: envelope.OccurredAt.UTC(),
		Payload:    payload,
	}
	h.project(event, &row)

	logCtx := h.logg.WithField(ctx, "publish_id", row.PublishID)
	if err := h.writer.InsertEngagement(logCtx, row); err != nil {
		return fmt.Errorf("insert %s row: %w", envelope.EventType, err)
	}
	h.logg.Debug(logCtx, "engagement row buffered")
	return nil
}
