package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/clipstream-backend/pkg/enums"
)

// Report is an abuse report filed against a publish.
type Report struct {
	ID            uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	SubmittedByID uuid.UUID          `gorm:"column:submitted_by_id;type:uuid;not null;uniqueIndex:reports_submitter_publish_reason_key"`
	PublishID     uuid.UUID          `gorm:"column:publish_id;type:uuid;not null;uniqueIndex:reports_submitter_publish_reason_key"`
	Reason        enums.ReportReason `gorm:"column:reason;type:text;not null;uniqueIndex:reports_submitter_publish_reason_key"`
	CreatedAt     time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

func (r *Report) BeforeCreate(*gorm.DB) error {
	ensureID(&r.ID)
	return nil
}
