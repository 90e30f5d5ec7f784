package accounts

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/clipstream-backend/pkg/db/models"
)

// Repository handles account persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to account operations.
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

// FindByID loads an account by its UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	var account models.Account
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&account).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

// FindByOwner loads an account by its owner address, ignoring case.
func (r *Repository) FindByOwner(ctx context.Context, owner string) (*models.Account, error) {
	var account models.Account
	if err := r.db.WithContext(ctx).
		Where("owner = ?", strings.ToLower(strings.TrimSpace(owner))).
		First(&account).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

// FindByAuthUID loads the account bound to an external auth uid.
func (r *Repository) FindByAuthUID(ctx context.Context, uid string) (*models.Account, error) {
	var account models.Account
	if err := r.db.WithContext(ctx).Where("auth_uid = ?", uid).First(&account).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

// ExistsByAuthUID reports whether an account is bound to uid.
func (r *Repository) ExistsByAuthUID(ctx context.Context, uid string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Account{}).Where("auth_uid = ?", uid).Count(&count).Error
	return count > 0, err
}

// CreateIfMissing inserts account unless one with the same owner exists,
// then returns the stored row.
func (r *Repository) CreateIfMissing(ctx context.Context, account models.Account) (*models.Account, error) {
	account.Owner = strings.ToLower(strings.TrimSpace(account.Owner))
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "owner"}}, DoNothing: true}).
		Create(&account).Error; err != nil {
		return nil, err
	}
	return r.FindByOwner(ctx, account.Owner)
}

// ListProfiles returns the account's profiles, oldest first.
func (r *Repository) ListProfiles(ctx context.Context, accountID uuid.UUID) ([]models.Profile, error) {
	var profiles []models.Profile
	err := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("created_at ASC, id ASC").
		Find(&profiles).Error
	return profiles, err
}
