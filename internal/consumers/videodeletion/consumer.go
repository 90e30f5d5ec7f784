package videodeletion

import (
	"context"
	"errors"
	"strings"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	pkgerrors "github.com/angelmondragon/clipstream-backend/pkg/errors"
	"github.com/angelmondragon/clipstream-backend/pkg/logger"
	"github.com/angelmondragon/clipstream-backend/pkg/metrics"
	"github.com/angelmondragon/clipstream-backend/pkg/security"
)

const consumerName = "video-deletion"

type deleter interface {
	DeletePublish(ctx context.Context, publishID uuid.UUID) error
}

type idempotencyChecker interface {
	CheckAndMarkProcessed(ctx context.Context, consumer string, messageID string) (bool, error)
	Delete(ctx context.Context, consumer string, messageID string) error
}

// Consumer deletes publishes whose media was removed upstream.
type Consumer struct {
	deleter      deleter
	manager      idempotencyChecker
	subscription *pubsub.Subscriber
	encryptKey   string
	logg         *logger.Logger
	metrics      *metrics.ConsumerMetrics
}

// NewConsumer constructs a consumer that watches the provided subscription.
func NewConsumer(del deleter, manager idempotencyChecker, subscription *pubsub.Subscriber, encryptKey string, logg *logger.Logger) (*Consumer, error) {
	if del == nil {
		return nil, errors.New("publish deleter is required")
	}
	if manager == nil {
		return nil, errors.New("idempotency manager is required")
	}
	if subscription == nil {
		return nil, errors.New("video deletion subscription is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}
	return &Consumer{
		deleter:      del,
		manager:      manager,
		subscription: subscription,
		encryptKey:   encryptKey,
		logg:         logg,
	}, nil
}

// WithMetrics records per-message outcomes on m.
func (c *Consumer) WithMetrics(m *metrics.ConsumerMetrics) *Consumer {
	c.metrics = m
	return c
}

// Run processes messages until the context is canceled or the subscription errors.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		start := time.Now()
		result := c.process(ctx, msg.ID, msg.Data)
		c.metrics.ObserveDuration(consumerName, time.Since(start))
		if result.nack {
			c.metrics.IncFailure(consumerName)
			msg.Nack()
			return
		}
		c.metrics.IncSuccess(consumerName)
		msg.Ack()
	})
}

type processResult struct {
	nack bool
}

func (c *Consumer) process(ctx context.Context, messageID string, data []byte) processResult {
	fields := map[string]any{"message_id": messageID}
	logCtx := c.logg.WithFields(ctx, fields)

	publishID, err := c.publishID(data)
	if err != nil {
		c.logg.Warn(logCtx, "invalid video deletion message")
		return processResult{}
	}
	fields["publish_id"] = publishID.String()
	logCtx = c.logg.WithFields(ctx, fields)

	already, err := c.manager.CheckAndMarkProcessed(logCtx, consumerName, messageID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if already {
		c.logg.Info(logCtx, "message already processed")
		return processResult{}
	}

	if err := c.deleter.DeletePublish(logCtx, publishID); err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			c.logg.Warn(logCtx, "publish already gone")
			return processResult{}
		}
		c.logg.Error(logCtx, "delete publish failed", err)
		if pkgerrors.Retryable(err) {
			_ = c.manager.Delete(logCtx, consumerName, messageID)
			return processResult{nack: true}
		}
		return processResult{}
	}

	c.logg.Info(logCtx, "publish deleted")
	return processResult{}
}

// publishID accepts a plain publish id or one encrypted with the shared
// passphrase.
func (c *Consumer) publishID(data []byte) (uuid.UUID, error) {
	raw := strings.TrimSpace(string(data))
	if raw == "" {
		return uuid.Nil, errors.New("payload empty")
	}
	if id, err := uuid.Parse(raw); err == nil {
		return id, nil
	}
	plain, err := security.DecryptPassphrase(raw, c.encryptKey)
	if err != nil {
		return uuid.Nil, err
	}
	return uuid.Parse(strings.TrimSpace(string(plain)))
}
