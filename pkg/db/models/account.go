package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/clipstream-backend/pkg/enums"
)

// Account is the identity root bound to one wallet owner address.
type Account struct {
	ID        uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	Owner     string            `gorm:"column:owner;type:text;not null;uniqueIndex:accounts_owner_key"`
	AuthUID   *string           `gorm:"column:auth_uid;type:text;uniqueIndex:accounts_auth_uid_key"`
	Type      enums.AccountType `gorm:"column:type;type:text;not null"`
	CreatedAt time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time         `gorm:"column:updated_at;autoUpdateTime"`
	Profiles  []Profile         `gorm:"foreignKey:AccountID"`
}

func (a *Account) BeforeCreate(*gorm.DB) error {
	ensureID(&a.ID)
	return nil
}
