package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/clipstream-backend/pkg/enums"
)

// Notification tells a receiver that an actor profile interacted with them.
type Notification struct {
	ID         uuid.UUID              `gorm:"column:id;type:uuid;primaryKey"`
	ProfileID  uuid.UUID              `gorm:"column:profile_id;type:uuid;not null"`
	Profile    *Profile               `gorm:"foreignKey:ProfileID"`
	ReceiverID uuid.UUID              `gorm:"column:receiver_id;type:uuid;not null;index"`
	Type       enums.NotificationType `gorm:"column:type;type:text;not null"`
	Content    string                 `gorm:"column:content;type:text;not null"`
	Status     enums.ReadStatus       `gorm:"column:status;type:text;not null;default:unread"`
	CreatedAt  time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}

func (n *Notification) BeforeCreate(*gorm.DB) error {
	ensureID(&n.ID)
	return nil
}
