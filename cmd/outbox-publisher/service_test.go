package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/clipstream-backend/pkg/config"
	"github.com/angelmondragon/clipstream-backend/pkg/db/models"
	"github.com/angelmondragon/clipstream-backend/pkg/enums"
	"github.com/angelmondragon/clipstream-backend/pkg/logger"
	"github.com/angelmondragon/clipstream-backend/pkg/outbox"
	"github.com/angelmondragon/clipstream-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/clipstream-backend/pkg/outbox/registry"
)

func viewedEvent(t *testing.T, attempts int) models.OutboxEvent {
	t.Helper()
	return models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     enums.EventPublishViewed,
		AggregateType: enums.AggregatePublish,
		AggregateID:   uuid.New(),
		Payload:       mustEnvelopePayload(t, uuid.NewString()),
		AttemptCount:  attempts,
		CreatedAt:     time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func analyticsResolution() *registry.ResolvedEvent {
	return &registry.ResolvedEvent{
		Descriptor: registry.EventDescriptor{
			EventType: enums.EventPublishViewed,
			Topic:     "analytics-topic",
		},
		Envelope: outbox.PayloadEnvelope{Version: 1},
		Payload:  &payloads.PublishViewedEvent{},
	}
}

func TestProcessBatchContinuesAfterTransientFailure(t *testing.T) {
	events := []models.OutboxEvent{viewedEvent(t, 0), viewedEvent(t, 0)}
	repo := &fakeRepo{events: events}
	pub := &fakePublisher{results: []publishResult{
		fakePublishResult{err: errors.New("transient")},
		fakePublishResult{},
	}}
	dlq := &fakeDLQRepo{}
	svc := newTestService(t, repo, pub, &fakeRegistry{resolved: analyticsResolution()}, dlq, nil)

	processed, err := svc.processBatch(context.Background())
	require.NoError(t, err)
	require.True(t, processed)
	require.Equal(t, []uuid.UUID{events[0].ID}, repo.failed)
	require.Equal(t, []uuid.UUID{events[1].ID}, repo.published)
	require.Empty(t, repo.terminal)
	require.Empty(t, dlq.entries)
	require.Len(t, pub.sent, 2)
}

func TestProcessBatchEmpty(t *testing.T) {
	svc := newTestService(t, &fakeRepo{}, &fakePublisher{}, &fakeRegistry{resolved: analyticsResolution()}, &fakeDLQRepo{}, nil)

	processed, err := svc.processBatch(context.Background())
	require.NoError(t, err)
	require.False(t, processed)
}

func TestProcessBatchStopsWhenFetchFails(t *testing.T) {
	repo := &fakeRepo{fetchErr: errors.New("db down")}
	svc := newTestService(t, repo, &fakePublisher{}, &fakeRegistry{resolved: analyticsResolution()}, &fakeDLQRepo{}, nil)

	_, err := svc.processBatch(context.Background())
	require.ErrorContains(t, err, "db down")
}

func TestPublishResolvedSetsAttributes(t *testing.T) {
	event := viewedEvent(t, 0)
	pub := &fakePublisher{results: []publishResult{fakePublishResult{}}}
	svc := newTestService(t, &fakeRepo{}, pub, &fakeRegistry{}, &fakeDLQRepo{}, nil)

	resolved := analyticsResolution()
	resolved.Envelope.EventID = "evt-42"
	require.NoError(t, svc.publishResolved(context.Background(), event, resolved))

	require.Len(t, pub.sent, 1)
	msg := pub.sent[0]
	require.Equal(t, []byte(event.Payload), msg.Data)
	require.Equal(t, map[string]string{
		"event_id":       "evt-42",
		"event_type":     string(enums.EventPublishViewed),
		"aggregate_type": string(enums.AggregatePublish),
		"aggregate_id":   event.AggregateID.String(),
		"schema_version": "1",
		"created_at":     "2026-01-02T03:04:05Z",
	}, msg.Attributes)
}

func TestPublishResolvedWithoutPublisherIsTerminal(t *testing.T) {
	svc := newTestService(t, &fakeRepo{}, nil, &fakeRegistry{}, &fakeDLQRepo{}, nil)

	err := svc.publishResolved(context.Background(), viewedEvent(t, 0), analyticsResolution())
	var nonRetry registry.NonRetryableError
	require.ErrorAs(t, err, &nonRetry)
}

func TestRelayOutcomes(t *testing.T) {
	cases := []struct {
		name     string
		attempts int
		resolve  error
		publish  error
		want     relayOutcome
		reason   enums.OutboxDLQErrorReason
	}{
		{name: "published", want: relayPublished},
		{name: "transient", publish: errors.New("unavailable"), want: relayRetry},
		{name: "unresolvable", resolve: registry.NewNonRetryableError(errors.New("unsupported")), want: relayDeadLettered, reason: enums.OutboxDLQReasonNonRetryable},
		{name: "non retryable publish", publish: registry.NewNonRetryableError(errors.New("bad topic")), want: relayDeadLettered, reason: enums.OutboxDLQReasonNonRetryable},
		{name: "out of attempts", attempts: 1, publish: errors.New("timeout"), want: relayDeadLettered, reason: enums.OutboxDLQReasonMaxAttempts},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			event := viewedEvent(t, tc.attempts)
			repo := &fakeRepo{}
			dlq := &fakeDLQRepo{}
			reg := &fakeRegistry{resolved: analyticsResolution()}
			if tc.resolve != nil {
				reg = &fakeRegistry{err: tc.resolve}
			}
			pub := &fakePublisher{results: []publishResult{fakePublishResult{err: tc.publish}}}
			svc := newTestService(t, repo, pub, reg, dlq, &config.OutboxConfig{BatchSize: 1, PollIntervalMS: 10, MaxAttempts: 2})

			got, err := svc.relay(context.Background(), nil, event)
			require.NoError(t, err)
			require.Equal(t, tc.want, got)

			if tc.want != relayDeadLettered {
				require.Empty(t, dlq.entries)
				return
			}
			require.Len(t, dlq.entries, 1)
			entry := dlq.entries[0]
			require.Equal(t, event.ID, entry.EventID)
			require.Equal(t, tc.reason, entry.ErrorReason)
			require.Equal(t, tc.attempts, entry.AttemptCount)
			require.NotNil(t, entry.ErrorMessage)
			require.Equal(t, []uuid.UUID{event.ID}, repo.terminal)
			require.Empty(t, repo.published)
		})
	}
}

func TestRelayReportsDLQInsertFailure(t *testing.T) {
	repo := &fakeRepo{}
	dlq := &fakeDLQRepo{err: errors.New("constraint")}
	svc := newTestService(t, repo, &fakePublisher{}, &fakeRegistry{err: registry.NewNonRetryableError(errors.New("unknown"))}, dlq, nil)

	_, err := svc.relay(context.Background(), nil, viewedEvent(t, 0))
	require.ErrorContains(t, err, "insert dlq")
	require.Empty(t, repo.terminal)
}

func TestNewServiceValidatesParams(t *testing.T) {
	_, err := NewService(ServiceParams{})
	require.EqualError(t, err, "config is required")

	svc := newTestService(t, &fakeRepo{}, &fakePublisher{}, &fakeRegistry{}, &fakeDLQRepo{}, &config.OutboxConfig{})
	require.Equal(t, defaultBatchSize, svc.batchSize)
	require.Equal(t, defaultMaxAttempts, svc.maxAttempts)
	require.Equal(t, time.Duration(defaultPollMs)*time.Millisecond, svc.pollInterval)
}

func TestPollBackoffGrowsWithJitter(t *testing.T) {
	svc := newTestService(t, &fakeRepo{}, &fakePublisher{}, &fakeRegistry{}, &fakeDLQRepo{}, nil)
	b := svc.pollBackoff()

	first := b.NextBackOff()
	require.GreaterOrEqual(t, first, 75*time.Millisecond)
	require.LessOrEqual(t, first, 125*time.Millisecond)
	for range 30 {
		require.LessOrEqual(t, b.NextBackOff(), maxBackoff+maxBackoff/4)
	}

	b.Reset()
	require.LessOrEqual(t, b.NextBackOff(), 125*time.Millisecond)
}

func TestRunStopsOnCanceledContext(t *testing.T) {
	svc := newTestService(t, &fakeRepo{}, &fakePublisher{}, &fakeRegistry{}, &fakeDLQRepo{}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.ErrorIs(t, svc.Run(ctx), context.Canceled)
}

func newTestService(t *testing.T, repo outboxRepository, pub publisher, resolver registryResolver, dlq dlqRepository, outboxCfg *config.OutboxConfig) *Service {
	t.Helper()
	cfg := &config.Config{Outbox: config.OutboxConfig{BatchSize: 2, PollIntervalMS: 100, MaxAttempts: 5}}
	if outboxCfg != nil {
		cfg.Outbox = *outboxCfg
	}
	svc, err := NewService(ServiceParams{
		Config:     cfg,
		Logger:     logger.New(logger.Options{ServiceName: "outbox-publisher-test", Output: io.Discard}),
		DB:         &fakeDB{},
		PubSub:     &fakePubSubClient{},
		Repository: repo,
		Registry:   resolver,
		PublisherFactory: func(string) publisher {
			if pub == nil {
				return nil
			}
			return pub
		},
		DLQRepository: dlq,
	})
	require.NoError(t, err)
	return svc
}

func mustEnvelopePayload(tb testing.TB, eventID string) json.RawMessage {
	tb.Helper()
	payload, err := json.Marshal(outbox.PayloadEnvelope{
		Version:    1,
		EventID:    eventID,
		OccurredAt: time.Now().UTC(),
		Data:       json.RawMessage(`{}`),
	})
	require.NoError(tb, err)
	return payload
}

type fakeRepo struct {
	events    []models.OutboxEvent
	fetchErr  error
	published []uuid.UUID
	failed    []uuid.UUID
	terminal  []uuid.UUID
}

func (f *fakeRepo) FetchUnpublishedForPublish(*gorm.DB, int, int) ([]models.OutboxEvent, error) {
	return f.events, f.fetchErr
}

func (f *fakeRepo) MarkPublishedTx(_ *gorm.DB, id uuid.UUID) error {
	f.published = append(f.published, id)
	return nil
}

func (f *fakeRepo) MarkFailedTx(_ *gorm.DB, id uuid.UUID, _ error) error {
	f.failed = append(f.failed, id)
	return nil
}

func (f *fakeRepo) MarkTerminalTx(_ *gorm.DB, id uuid.UUID, _ error, _ int) error {
	f.terminal = append(f.terminal, id)
	return nil
}

type fakeDB struct{}

func (*fakeDB) Ping(context.Context) error { return nil }

func (*fakeDB) WithTx(_ context.Context, fn func(*gorm.DB) error) error {
	return fn(nil)
}

type fakePubSubClient struct{}

func (*fakePubSubClient) Ping(context.Context) error { return nil }

func (*fakePubSubClient) Publisher(string) *gcppubsub.Publisher { return nil }

type fakePublisher struct {
	results []publishResult
	sent    []*gcppubsub.Message
}

func (f *fakePublisher) Publish(_ context.Context, msg *gcppubsub.Message) publishResult {
	f.sent = append(f.sent, msg)
	if len(f.results) == 0 {
		return fakePublishResult{}
	}
	result := f.results[0]
	f.results = f.results[1:]
	return result
}

type fakePublishResult struct {
	err error
}

func (f fakePublishResult) Get(context.Context) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "server-id", nil
}

type fakeRegistry struct {
	resolved *registry.ResolvedEvent
	err      error
}

func (f *fakeRegistry) Resolve(event models.OutboxEvent) (*registry.ResolvedEvent, error) {
	if f.err != nil || f.resolved == nil {
		return nil, f.err
	}
	resolved := *f.resolved
	resolved.Envelope.EventID = event.ID.String()
	resolved.Envelope.OccurredAt = time.Now().UTC()
	return &resolved, nil
}

type fakeDLQRepo struct {
	entries []models.OutboxDLQ
	err     error
}

func (f *fakeDLQRepo) InsertTx(_ *gorm.DB, entry models.OutboxDLQ) error {
	if f.err != nil {
		return f.err
	}
	f.entries = append(f.entries, entry)
	return nil
}
