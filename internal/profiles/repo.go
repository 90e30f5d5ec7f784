package profiles

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/clipstream-backend/pkg/db/models"
	"github.com/angelmondragon/clipstream-backend/pkg/pagination"
)

// Repository handles profile and follow persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to profile operations.
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

// FindByID loads a profile by its UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	var profile models.Profile
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

// FindByName loads a profile by its lowercase name.
func (r *Repository) FindByName(ctx context.Context, name string) (*models.Profile, error) {
	var profile models.Profile
	if err := r.db.WithContext(ctx).
		Where("name = ?", strings.ToLower(strings.TrimSpace(name))).
		First(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

// NameTaken reports whether a profile already uses name, ignoring case.
func (r *Repository) NameTaken(ctx context.Context, name string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Profile{}).
		Where("name = ?", strings.ToLower(strings.TrimSpace(name))).
		Count(&count).Error
	return count > 0, err
}

// Create persists a new profile.
func (r *Repository) Create(ctx context.Context, profile *models.Profile) error {
	return r.db.WithContext(ctx).Create(profile).Error
}

// UpdateColumns applies updates to the profile row.
func (r *Repository) UpdateColumns(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Profile{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// ListByAccount returns the account's profiles, oldest first.
func (r *Repository) ListByAccount(ctx context.Context, accountID uuid.UUID) ([]models.Profile, error) {
	var profiles []models.Profile
	err := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("created_at ASC, id ASC").
		Find(&profiles).Error
	return profiles, err
}

// Stats are the derived counters of a profile.
type Stats struct {
	Followers int64
	Following int64
	Publishes int64
}

// Stats counts followers, followings and publishes of id.
func (r *Repository) Stats(ctx context.Context, id uuid.UUID) (Stats, error) {
	var stats Stats
	db := r.db.WithContext(ctx)
	if err := db.Model(&models.Follow{}).Where("following_id = ?", id).Count(&stats.Followers).Error; err != nil {
		return Stats{}, err
	}
	if err := db.Model(&models.Follow{}).Where("follower_id = ?", id).Count(&stats.Following).Error; err != nil {
		return Stats{}, err
	}
	if err := db.Model(&models.Publish{}).Where("creator_id = ?", id).Count(&stats.Publishes).Error; err != nil {
		return Stats{}, err
	}
	return stats, nil
}

// IsFollowing reports whether followerID follows followingID.
func (r *Repository) IsFollowing(ctx context.Context, followerID, followingID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Follow{}).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Count(&count).Error
	return count > 0, err
}

// ToggleFollow creates the follow edge or removes it when it already
// exists. The primary key decides which branch runs.
func (r *Repository) ToggleFollow(ctx context.Context, followerID, followingID uuid.UUID) (bool, error) {
	edge := models.Follow{FollowerID: followerID, FollowingID: followingID}
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&edge)
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected > 0 {
		return true, nil
	}
	err := r.db.WithContext(ctx).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Delete(&models.Follow{}).Error
	return false, err
}

// ListFollowing pages the profiles followerID follows, newest edge first.
func (r *Repository) ListFollowing(ctx context.Context, followerID uuid.UUID, cursor string) (pagination.Page[models.Follow], error) {
	query := r.db.WithContext(ctx).Model(&models.Follow{}).Where("follows.follower_id = ?", followerID)
	return pagination.Fetch(ctx, query, followSpec(cursor, "Following"))
}

// ListFollowers pages the profiles following followingID, newest edge first.
func (r *Repository) ListFollowers(ctx context.Context, followingID uuid.UUID, cursor string) (pagination.Page[models.Follow], error) {
	query := r.db.WithContext(ctx).Model(&models.Follow{}).Where("follows.following_id = ?", followingID)
	return pagination.Fetch(ctx, query, followSpec(cursor, "Follower"))
}

func followSpec(cursor, preload string) pagination.Spec[models.Follow] {
	return pagination.Spec[models.Follow]{
		Table:      "follows",
		KeyColumns: []string{"follower_id", "following_id"},
		Order: pagination.Order{
			pagination.Desc("follows.created_at"),
			pagination.Desc("follows.follower_id"),
			pagination.Desc("follows.following_id"),
		},
		Cursor: cursor,
		Key: func(f models.Follow) string {
			return pagination.JoinKey(f.FollowerID.String(), f.FollowingID.String())
		},
		WithCount: true,
		Preloads:  []string{preload},
	}
}
