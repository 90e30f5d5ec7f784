package watchlater

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/clipstream-backend/pkg/db/models"
	"github.com/angelmondragon/clipstream-backend/pkg/pagination"
)

// Repository handles watch-later persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to watch-later operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindByID loads one saved entry.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.WatchLater, error) {
	var item models.WatchLater
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// PublishExists reports whether the publish row is present.
func (r *Repository) PublishExists(ctx context.Context, publishID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Publish{}).Where("id = ?", publishID).Count(&count).Error
	return count > 0, err
}

// Add saves publishID for profileID. Saving twice is a no-op.
func (r *Repository) Add(ctx context.Context, profileID, publishID uuid.UUID) error {
	item := models.WatchLater{ProfileID: profileID, PublishID: publishID}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&item).Error
}

// Remove deletes profileID's entry for publishID.
func (r *Repository) Remove(ctx context.Context, profileID, publishID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("profile_id = ? AND publish_id = ?", profileID, publishID).
		Delete(&models.WatchLater{}).Error
}

// RemoveByID deletes one entry.
func (r *Repository) RemoveByID(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.WatchLater{}).Error
}

// RemoveAll empties profileID's watch-later list.
func (r *Repository) RemoveAll(ctx context.Context, profileID uuid.UUID) error {
	return r.db.WithContext(ctx).Where("profile_id = ?", profileID).Delete(&models.WatchLater{}).Error
}

// List pages profileID's entries by save time.
func (r *Repository) List(ctx context.Context, profileID uuid.UUID, oldestFirst bool, cursor string, size int) (pagination.Page[models.WatchLater], error) {
	q := r.db.WithContext(ctx).Model(&models.WatchLater{}).Where("watch_laters.profile_id = ?", profileID)
	return pagination.Fetch(ctx, q, pagination.Spec[models.WatchLater]{
		Table:     "watch_laters",
		Order:     pagination.Chronological("watch_laters", oldestFirst),
		Size:      size,
		Cursor:    cursor,
		Key:       func(w models.WatchLater) string { return w.ID.String() },
		WithCount: true,
		Preloads:  []string{"Publish", "Publish.Creator", "Publish.Playback"},
	})
}
