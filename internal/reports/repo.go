package reports

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/clipstream-backend/pkg/db/models"
)

// Repository handles report persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to report operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// PublishExists reports whether the publish row is present.
func (r *Repository) PublishExists(ctx context.Context, publishID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Publish{}).Where("id = ?", publishID).Count(&count).Error
	return count > 0, err
}

// Upsert files a report once per submitter, publish and reason.
func (r *Repository) Upsert(ctx context.Context, report *models.Report) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(report).Error
}
