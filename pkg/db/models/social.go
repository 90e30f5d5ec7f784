package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Follow is a directed edge between two profiles.
type Follow struct {
	FollowerID  uuid.UUID `gorm:"column:follower_id;type:uuid;primaryKey"`
	FollowingID uuid.UUID `gorm:"column:following_id;type:uuid;primaryKey"`
	Follower    *Profile  `gorm:"foreignKey:FollowerID"`
	Following   *Profile  `gorm:"foreignKey:FollowingID"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}

// Like marks a publish as liked by a profile.
type Like struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	ProfileID uuid.UUID `gorm:"column:profile_id;type:uuid;not null;uniqueIndex:likes_profile_publish_key"`
	PublishID uuid.UUID `gorm:"column:publish_id;type:uuid;not null;uniqueIndex:likes_profile_publish_key;index"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (l *Like) BeforeCreate(*gorm.DB) error {
	ensureID(&l.ID)
	return nil
}

// Dislike marks a publish as disliked by a profile.
type Dislike struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	ProfileID uuid.UUID `gorm:"column:profile_id;type:uuid;not null;uniqueIndex:dislikes_profile_publish_key"`
	PublishID uuid.UUID `gorm:"column:publish_id;type:uuid;not null;uniqueIndex:dislikes_profile_publish_key;index"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (d *Dislike) BeforeCreate(*gorm.DB) error {
	ensureID(&d.ID)
	return nil
}

// Bookmark saves a blog publish for later reading.
type Bookmark struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	ProfileID uuid.UUID `gorm:"column:profile_id;type:uuid;not null;uniqueIndex:bookmarks_profile_publish_key"`
	PublishID uuid.UUID `gorm:"column:publish_id;type:uuid;not null;uniqueIndex:bookmarks_profile_publish_key"`
	Publish   *Publish  `gorm:"foreignKey:PublishID"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (b *Bookmark) BeforeCreate(*gorm.DB) error {
	ensureID(&b.ID)
	return nil
}

// WatchLater saves a video publish for later viewing.
type WatchLater struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	ProfileID uuid.UUID `gorm:"column:profile_id;type:uuid;not null;uniqueIndex:watch_laters_profile_publish_key"`
	PublishID uuid.UUID `gorm:"column:publish_id;type:uuid;not null;uniqueIndex:watch_laters_profile_publish_key"`
	Publish   *Publish  `gorm:"foreignKey:PublishID"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (w *WatchLater) BeforeCreate(*gorm.DB) error {
	ensureID(&w.ID)
	return nil
}

// DontRecommend hides a target profile from a requestor's feeds.
type DontRecommend struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	RequestorID uuid.UUID `gorm:"column:requestor_id;type:uuid;not null;uniqueIndex:dont_recommends_requestor_target_key"`
	TargetID    uuid.UUID `gorm:"column:target_id;type:uuid;not null;uniqueIndex:dont_recommends_requestor_target_key"`
	Target      *Profile  `gorm:"foreignKey:TargetID"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (d *DontRecommend) BeforeCreate(*gorm.DB) error {
	ensureID(&d.ID)
	return nil
}
