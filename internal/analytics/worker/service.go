package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"

	"github.com/angelmondragon/clipstream-backend/internal/analytics/router"
	"github.com/angelmondragon/clipstream-backend/internal/analytics/types"
	"github.com/angelmondragon/clipstream-backend/pkg/enums"
	"github.com/angelmondragon/clipstream-backend/pkg/logger"
	"github.com/angelmondragon/clipstream-backend/pkg/metrics"
	"github.com/angelmondragon/clipstream-backend/pkg/outbox"
)

const (
	consumerName = "analytics"
	flushTimeout = 10 * time.Second
)

// Handler writes one decoded engagement event.
type Handler interface {
	Handle(ctx context.Context, envelope types.Envelope) error
}

// HandlerFunc adapts functions to the Handler interface.
type HandlerFunc func(ctx context.Context, envelope types.Envelope) error

func (fn HandlerFunc) Handle(ctx context.Context, envelope types.Envelope) error {
	if fn == nil {
		return nil
	}
	return fn(ctx, envelope)
}

type idempotencyChecker interface {
	CheckAndMarkProcessed(ctx context.Context, consumer string, eventID string) (bool, error)
	Delete(ctx context.Context, consumer string, eventID string) error
}

// Flusher drains rows buffered by the writer.
type Flusher interface {
	Flush(ctx context.Context) error
}

// Service pulls engagement events off the analytics subscription. Each
// event id is handled at most once per idempotency window.
type Service struct {
	subscription *gcppubsub.Subscriber
	handler      Handler
	manager      idempotencyChecker
	flusher      Flusher
	logg         *logger.Logger
	metrics      *metrics.ConsumerMetrics
}

// NewService wires the consumer. flusher may be nil.
func NewService(subscription *gcppubsub.Subscriber, handler Handler, manager idempotencyChecker, flusher Flusher, logg *logger.Logger) (*Service, error) {
	switch {
	case subscription == nil:
		return nil, errors.New("analytics subscription is required")
	case handler == nil:
		return nil, errors.New("analytics handler is required")
	case manager == nil:
		return nil, errors.New("idempotency manager is required")
	case logg == nil:
		return nil, errors.New("logger is required")
	}
	return &Service{
		subscription: subscription,
		handler:      handler,
		manager:      manager,
		flusher:      flusher,
		logg:         logg,
	}, nil
}

// WithMetrics records per-message duration and outcome.
func (s *Service) WithMetrics(m *metrics.ConsumerMetrics) *Service {
	s.metrics = m
	return s
}

type processResult struct {
	nack bool
}

var (
	ack   = processResult{}
	retry = processResult{nack: true}
)

// Run receives until ctx is canceled, then flushes whatever the writer
// still buffers.
func (s *Service) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	err := s.subscription.Receive(ctx, func(msgCtx context.Context, msg *gcppubsub.Message) {
		started := time.Now()
		res := s.process(msgCtx, msg)
		s.metrics.ObserveDuration(consumerName, time.Since(started))
		if res.nack {
			s.metrics.IncFailure(consumerName)
			msg.Nack()
			return
		}
		s.metrics.IncSuccess(consumerName)
		msg.Ack()
	})
	s.flush()
	return err
}

func (s *Service) flush() {
	if s.flusher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()
	if err := s.flusher.Flush(ctx); err != nil {
		s.logg.Error(ctx, "flush analytics rows failed", err)
	}
}

// process decides ack or nack for one message. Events that can never be
// handled are acked so they never redeliver; dependency failures are nacked
// and release the idempotency mark so the retry is handled.
func (s *Service) process(ctx context.Context, msg *gcppubsub.Message) processResult {
	fields := map[string]any{"message_id": msg.ID}
	envelope, err := s.buildEnvelope(msg)
	if err != nil {
		fields["error"] = err.Error()
		s.logg.Warn(s.logg.WithFields(ctx, fields), "invalid analytics envelope")
		return ack
	}
	ctx = s.logg.WithFields(ctx, envelope.LogFields(fields))

	seen, err := s.manager.CheckAndMarkProcessed(ctx, consumerName, envelope.EventID)
	switch {
	case err != nil:
		s.logg.Error(ctx, "idempotency check failed", err)
		return retry
	case seen:
		s.logg.Info(ctx, "event already processed")
		return ack
	}

	err = s.handler.Handle(ctx, envelope)
	switch {
	case err == nil:
		s.logg.Info(ctx, "analytics event handled")
		return ack
	case errors.Is(err, router.ErrUnsupportedEventType):
		s.logg.Warn(ctx, "unsupported analytics event")
		return ack
	case errors.Is(err, router.ErrInvalidPayload):
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "dropping invalid analytics payload")
		return ack
	default:
		s.logg.Error(ctx, "handler error", err)
		if delErr := s.manager.Delete(ctx, consumerName, envelope.EventID); delErr != nil {
			s.logg.Error(ctx, "release idempotency mark failed", delErr)
		}
		return retry
	}
}

// buildEnvelope reads the stored outbox envelope from the message body and
// the routing keys from its attributes. The body wins for event id and
// occurrence time; the attributes fill in when the body omits them.
func (s *Service) buildEnvelope(msg *gcppubsub.Message) (types.Envelope, error) {
	var stored outbox.PayloadEnvelope
	if err := json.Unmarshal(msg.Data, &stored); err != nil {
		return types.Envelope{}, fmt.Errorf("decode payload envelope: %w", err)
	}
	attr := func(key string) string { return strings.TrimSpace(msg.Attributes[key]) }

	eventType, err := enums.ParseAnalyticsEventType(attr("event_type"))
	if err != nil {
		return types.Envelope{}, fmt.Errorf("event_type: %w", err)
	}
	aggregateType, err := enums.ParseOutboxAggregateType(attr("aggregate_type"))
	if err != nil {
		return types.Envelope{}, fmt.Errorf("aggregate_type: %w", err)
	}
	aggregateID := attr("aggregate_id")
	if aggregateID == "" {
		return types.Envelope{}, errors.New("aggregate_id missing")
	}

	eventID := strings.TrimSpace(stored.EventID)
	if eventID == "" {
		eventID = attr("event_id")
	}
	if eventID == "" {
		return types.Envelope{}, errors.New("event_id missing")
	}

	occurredAt := stored.OccurredAt
	if occurredAt.IsZero() {
		if parsed, err := time.Parse(time.RFC3339Nano, attr("created_at")); err == nil {
			occurredAt = parsed
		}
	}

	return types.Envelope{
		EventID:       eventID,
		EventType:     eventType,
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		OccurredAt:    occurredAt.UTC(),
		Payload:       stored.Data,
	}, nil
}
