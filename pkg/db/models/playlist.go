package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Playlist is a named collection of publishes owned by a profile.
type Playlist struct {
	ID          uuid.UUID      `gorm:"column:id;type:uuid;primaryKey"`
	OwnerID     uuid.UUID      `gorm:"column:owner_id;type:uuid;not null;uniqueIndex:playlists_owner_name_key"`
	Name        string         `gorm:"column:name;type:text;not null;uniqueIndex:playlists_owner_name_key"`
	Description *string        `gorm:"column:description;type:text"`
	Items       []PlaylistItem `gorm:"foreignKey:PlaylistID"`
	CreatedAt   time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Playlist) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	return nil
}

// PlaylistItem places a publish inside a playlist.
type PlaylistItem struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	OwnerID    uuid.UUID `gorm:"column:owner_id;type:uuid;not null;index"`
	PlaylistID uuid.UUID `gorm:"column:playlist_id;type:uuid;not null;uniqueIndex:playlist_items_playlist_publish_key"`
	PublishID  uuid.UUID `gorm:"column:publish_id;type:uuid;not null;uniqueIndex:playlist_items_playlist_publish_key"`
	Publish    *Publish  `gorm:"foreignKey:PublishID"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (p *PlaylistItem) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	return nil
}
