package notifications

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/clipstream-backend/pkg/db/models"
	"github.com/angelmondragon/clipstream-backend/pkg/metrics"
)

type announcer interface {
	Announce(ctx context.Context, id string) error
}

// Emitter records notifications inside a mutation transaction and announces
// the receiver on the new-notification topic once the mutation committed.
type Emitter struct {
	repo      *Repository
	announcer announcer
	metrics   *metrics.NotificationMetrics
}

// NewEmitter wires the emitter. metrics may be nil.
func NewEmitter(repo *Repository, announcer announcer, m *metrics.NotificationMetrics) (*Emitter, error) {
	if repo == nil {
		return nil, errors.New("notifications repository required")
	}
	if announcer == nil {
		return nil, errors.New("notification announcer required")
	}
	return &Emitter{repo: repo, announcer: announcer, metrics: m}, nil
}

// Record inserts notification using tx.
func (e *Emitter) Record(ctx context.Context, tx *gorm.DB, notification models.Notification) error {
	if err := e.repo.WithTx(tx).Create(ctx, &notification); err != nil {
		return err
	}
	e.metrics.IncRecorded(string(notification.Type))
	return nil
}

// Announce publishes receiverID for live delivery. Failures are logged by the
// announcer and counted here; the stored notification is left in place.
func (e *Emitter) Announce(ctx context.Context, receiverID uuid.UUID) {
	if err := e.announcer.Announce(ctx, receiverID.String()); err != nil {
		e.metrics.IncAnnounceFailure()
	}
}
