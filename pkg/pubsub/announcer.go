package pubsub

import (
	"context"
	"strings"

	"github.com/angelmondragon/clipstream-backend/pkg/logger"
)

// Announcer publishes bare ids to a single topic. Downstream consumers
// re-read everything else from storage.
type Announcer struct {
	publisher Publisher
	topic     string
	logg      *logger.Logger
}

// NewAnnouncer binds publisher to topic. A nil publisher or blank topic
// yields an announcer that silently drops messages.
func NewAnnouncer(publisher Publisher, topic string, logg *logger.Logger) *Announcer {
	return &Announcer{publisher: publisher, topic: strings.TrimSpace(topic), logg: logg}
}

// Topic returns the configured topic name.
func (a *Announcer) Topic() string {
	if a == nil {
		return ""
	}
	return a.topic
}

// Announce publishes id to the topic. Failures are logged and returned so
// callers can count them; callers never surface them to end users.
func (a *Announcer) Announce(ctx context.Context, id string) error {
	if a == nil || a.publisher == nil || a.topic == "" || id == "" {
		return nil
	}
	if _, err := a.publisher.Publish(ctx, a.topic, []byte(id), nil); err != nil {
		if a.logg != nil {
			logCtx := a.logg.WithFields(ctx, map[string]any{
				"topic": a.topic,
				"id":    id,
			})
			a.logg.Error(logCtx, "announce failed", err)
		}
		return err
	}
	return nil
}
