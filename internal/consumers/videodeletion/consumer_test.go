package videodeletion

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/clipstream-backend/pkg/errors"
	"github.com/angelmondragon/clipstream-backend/pkg/logger"
	"github.com/angelmondragon/clipstream-backend/pkg/security"
)

const key = "passphrase"

type stubDeleter struct {
	ids []uuid.UUID
	err error
}

func (s *stubDeleter) DeletePublish(_ context.Context, id uuid.UUID) error {
	s.ids = append(s.ids, id)
	return s.err
}

type stubManager struct {
	seen    map[string]bool
	err     error
	deleted []string
}

func (s *stubManager) CheckAndMarkProcessed(_ context.Context, _ string, id string) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	if s.seen == nil {
		s.seen = map[string]bool{}
	}
	already := s.seen[id]
	s.seen[id] = true
	return already, nil
}

func (s *stubManager) Delete(_ context.Context, _ string, id string) error {
	s.deleted = append(s.deleted, id)
	delete(s.seen, id)
	return nil
}

func newTestConsumer(del *stubDeleter, manager *stubManager) *Consumer {
	return &Consumer{
		deleter:    del,
		manager:    manager,
		encryptKey: key,
		logg:       logger.New(logger.Options{ServiceName: "video-deletion-test", Output: io.Discard}),
	}
}

func TestProcessDeletesOnce(t *testing.T) {
	del := &stubDeleter{}
	manager := &stubManager{}
	c := newTestConsumer(del, manager)
	id := uuid.New()

	require.False(t, c.process(context.Background(), "m-1", []byte(id.String())).nack)
	require.False(t, c.process(context.Background(), "m-1", []byte(id.String())).nack)
	require.Equal(t, []uuid.UUID{id}, del.ids)
}

func TestProcessAcceptsEncryptedID(t *testing.T) {
	del := &stubDeleter{}
	c := newTestConsumer(del, &stubManager{})
	id := uuid.New()
	encrypted, err := security.EncryptPassphrase([]byte(id.String()), key)
	require.NoError(t, err)

	require.False(t, c.process(context.Background(), "m-2", []byte(encrypted)).nack)
	require.Equal(t, []uuid.UUID{id}, del.ids)
}

func TestProcessAcksGarbage(t *testing.T) {
	del := &stubDeleter{}
	manager := &stubManager{}
	c := newTestConsumer(del, manager)

	require.False(t, c.process(context.Background(), "m-3", []byte("not an id")).nack)
	require.False(t, c.process(context.Background(), "m-4", nil).nack)
	require.Empty(t, del.ids)
	require.Empty(t, manager.seen)
}

func TestProcessRetriesTransientFailures(t *testing.T) {
	del := &stubDeleter{err: pkgerrors.Wrap(pkgerrors.CodeDependency, errors.New("db down"), "delete publish")}
	manager := &stubManager{}
	c := newTestConsumer(del, manager)

	require.True(t, c.process(context.Background(), "m-5", []byte(uuid.NewString())).nack)
	require.Equal(t, []string{"m-5"}, manager.deleted)
}

func TestProcessAcksMissingPublish(t *testing.T) {
	del := &stubDeleter{err: pkgerrors.New(pkgerrors.CodeNotFound, pkgerrors.MessageNotFound)}
	manager := &stubManager{}
	c := newTestConsumer(del, manager)

	require.False(t, c.process(context.Background(), "m-6", []byte(uuid.NewString())).nack)
	require.Empty(t, manager.deleted)
}

func TestProcessRetriesIdempotencyErrors(t *testing.T) {
	del := &stubDeleter{}
	c := newTestConsumer(del, &stubManager{err: errors.New("redis down")})

	require.True(t, c.process(context.Background(), "m-7", []byte(uuid.NewString())).nack)
	require.Empty(t, del.ids)
}
