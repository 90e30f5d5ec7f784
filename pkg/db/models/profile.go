package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Profile is a channel owned by an account. Owner mirrors the owning
// account's owner address at write time.
type Profile struct {
	ID               uuid.UUID      `gorm:"column:id;type:uuid;primaryKey"`
	Owner            string         `gorm:"column:owner;type:text;not null;index"`
	Name             string         `gorm:"column:name;type:text;not null;uniqueIndex:profiles_name_key"`
	DisplayName      string         `gorm:"column:display_name;type:text;not null"`
	AccountID        uuid.UUID      `gorm:"column:account_id;type:uuid;not null;index"`
	Image            *string        `gorm:"column:image;type:text"`
	ImageRef         *string        `gorm:"column:image_ref;type:text"`
	BannerImage      *string        `gorm:"column:banner_image;type:text"`
	BannerImageRef   *string        `gorm:"column:banner_image_ref;type:text"`
	DefaultColor     *string        `gorm:"column:default_color;type:text"`
	WatchPreferences pq.StringArray `gorm:"column:watch_preferences;type:text[]"`
	ReadPreferences  pq.StringArray `gorm:"column:read_preferences;type:text[]"`
	CreatedAt        time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Profile) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	return nil
}
