package notifications

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/clipstream-backend/pkg/db/models"
	"github.com/angelmondragon/clipstream-backend/pkg/enums"
	"github.com/angelmondragon/clipstream-backend/pkg/pagination"
)

// Repository persists notifications.
type Repository struct {
	db *gorm.DB
}

// NewRepository returns a notifications repository bound to the provided database.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to tx.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// Create stores a notification.
func (r *Repository) Create(ctx context.Context, notification *models.Notification) error {
	return r.db.WithContext(ctx).Create(notification).Error
}

// ListForReceiver returns one page of the receiver's notifications, newest
// first, with the total count.
func (r *Repository) ListForReceiver(ctx context.Context, receiverID uuid.UUID, cursor string) (pagination.Page[models.Notification], error) {
	query := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("notifications.receiver_id = ?", receiverID)
	return pagination.Fetch(ctx, query, pagination.Spec[models.Notification]{
		Table:     "notifications",
		Order:     pagination.Order{pagination.Desc("notifications.created_at"), pagination.Desc("notifications.id")},
		Cursor:    cursor,
		Key:       func(n models.Notification) string { return n.ID.String() },
		WithCount: true,
		Preloads:  []string{"Profile"},
	})
}

// CountUnread counts the receiver's unread notifications.
func (r *Repository) CountUnread(ctx context.Context, receiverID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("receiver_id = ? AND status = ?", receiverID, enums.ReadStatusUnread).
		Count(&count).Error
	return count, err
}

// MarkRead marks the given notifications of receiverID as read. Ids that
// belong to another receiver are ignored.
func (r *Repository) MarkRead(ctx context.Context, receiverID uuid.UUID, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("receiver_id = ? AND id IN ? AND status = ?", receiverID, ids, enums.ReadStatusUnread).
		Update("status", enums.ReadStatusRead)
	return result.RowsAffected, result.Error
}
