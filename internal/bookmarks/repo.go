package bookmarks

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/clipstream-backend/pkg/db/models"
	"github.com/angelmondragon/clipstream-backend/pkg/pagination"
)

// Repository handles bookmark persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to bookmark operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// PublishExists reports whether the publish row is present.
func (r *Repository) PublishExists(ctx context.Context, publishID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Publish{}).Where("id = ?", publishID).Count(&count).Error
	return count > 0, err
}

// Toggle bookmarks publishID for profileID, or removes the bookmark when it
// already exists. It reports whether the publish ends up bookmarked.
func (r *Repository) Toggle(ctx context.Context, profileID, publishID uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.Bookmark{ProfileID: profileID, PublishID: publishID})
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected > 0 {
		return true, nil
	}
	return false, r.Remove(ctx, profileID, publishID)
}

// Remove deletes profileID's bookmark of publishID.
func (r *Repository) Remove(ctx context.Context, profileID, publishID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("profile_id = ? AND publish_id = ?", profileID, publishID).
		Delete(&models.Bookmark{}).Error
}

// RemoveAll deletes every bookmark of profileID.
func (r *Repository) RemoveAll(ctx context.Context, profileID uuid.UUID) error {
	return r.db.WithContext(ctx).Where("profile_id = ?", profileID).Delete(&models.Bookmark{}).Error
}

// List pages profileID's bookmarks by save time.
func (r *Repository) List(ctx context.Context, profileID uuid.UUID, oldestFirst bool, cursor string, size int) (pagination.Page[models.Bookmark], error) {
	q := r.db.WithContext(ctx).Model(&models.Bookmark{}).Where("bookmarks.profile_id = ?", profileID)
	return pagination.Fetch(ctx, q, pagination.Spec[models.Bookmark]{
		Table:     "bookmarks",
		Order:     pagination.Chronological("bookmarks", oldestFirst),
		Size:      size,
		Cursor:    cursor,
		Key:       func(b models.Bookmark) string { return b.ID.String() },
		WithCount: true,
		Preloads:  []string{"Publish", "Publish.Creator", "Publish.Blog"},
	})
}
