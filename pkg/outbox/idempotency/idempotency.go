// Package idempotency remembers which messages a consumer already handled.
package idempotency

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/clipstream-backend/pkg/redis"
)

// Manager marks message ids as processed with SETNX and a TTL. Markers live
// under `evt:processed:<consumer>` and hold the time they were set.
type Manager struct {
	store redis.IdempotencyStore
	ttl   time.Duration
	now   func() time.Time
}

func NewManager(store redis.IdempotencyStore, ttl time.Duration) (*Manager, error) {
	switch {
	case store == nil:
		return nil, errors.New("idempotency store is required")
	case ttl < 0:
		return nil, errors.New("ttl must be non-negative")
	}
	return &Manager{store: store, ttl: ttl, now: time.Now}, nil
}

// CheckAndMarkProcessed marks messageID for consumer and reports whether a
// marker already existed.
func (m *Manager) CheckAndMarkProcessed(ctx context.Context, consumer, messageID string) (bool, error) {
	key, err := m.processedKey(consumer, messageID)
	if err != nil {
		return false, err
	}
	stamp := m.now().UTC().Format(time.RFC3339)
	set, err := m.store.SetNX(ctx, key, stamp, m.ttl)
	if err != nil {
		return false, fmt.Errorf("mark %s processed: %w", consumer, err)
	}
	return !set, nil
}

// Delete drops the marker so a failed message is handled on redelivery.
func (m *Manager) Delete(ctx context.Context, consumer, messageID string) error {
	key, err := m.processedKey(consumer, messageID)
	if err != nil {
		return err
	}
	return m.store.Del(ctx, key)
}

// Scope binds the manager to one consumer.
func (m *Manager) Scope(consumer string) (*Guard, error) {
	if strings.TrimSpace(consumer) == "" {
		return nil, errors.New("consumer name is required")
	}
	return &Guard{manager: m, consumer: consumer}, nil
}

func (m *Manager) processedKey(consumer, messageID string) (string, error) {
	if consumer == "" {
		return "", errors.New("consumer name is required")
	}
	messageID = strings.TrimSpace(messageID)
	if messageID == "" {
		return "", errors.New("message id is required")
	}
	return m.store.IdempotencyKey("evt:processed:"+consumer, messageID), nil
}

// Guard is a Manager fixed to a single consumer, used by push endpoints
// that only see one subscription. A nil Guard never reports duplicates.
type Guard struct {
	manager  *Manager
	consumer string
}

func (g *Guard) CheckAndMark(ctx context.Context, messageID string) (bool, error) {
	if g == nil {
		return false, nil
	}
	return g.manager.CheckAndMarkProcessed(ctx, g.consumer, messageID)
}

func (g *Guard) Delete(ctx context.Context, messageID string) error {
	if g == nil {
		return nil
	}
	return g.manager.Delete(ctx, g.consumer, messageID)
}
