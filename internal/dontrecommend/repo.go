package dontrecommend

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/clipstream-backend/pkg/db/models"
	"github.com/angelmondragon/clipstream-backend/pkg/pagination"
)

// Repository handles don't-recommend persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to don't-recommend operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Add hides targetID from requestorID. Adding twice is a no-op.
func (r *Repository) Add(ctx context.Context, requestorID, targetID uuid.UUID) error {
	entry := models.DontRecommend{RequestorID: requestorID, TargetID: targetID}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&entry).Error
}

// Remove shows targetID to requestorID again.
func (r *Repository) Remove(ctx context.Context, requestorID, targetID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("requestor_id = ? AND target_id = ?", requestorID, targetID).
		Delete(&models.DontRecommend{}).Error
}

// List pages requestorID's entries, newest first.
func (r *Repository) List(ctx context.Context, requestorID uuid.UUID, cursor string) (pagination.Page[models.DontRecommend], error) {
	q := r.db.WithContext(ctx).Model(&models.DontRecommend{}).Where("dont_recommends.requestor_id = ?", requestorID)
	return pagination.Fetch(ctx, q, pagination.Spec[models.DontRecommend]{
		Table:    "dont_recommends",
		Order:    pagination.Chronological("dont_recommends", false),
		Cursor:   cursor,
		Key:      func(d models.DontRecommend) string { return d.ID.String() },
		Preloads: []string{"Target"},
	})
}
