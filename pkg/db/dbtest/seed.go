package dbtest

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/clipstream-backend/pkg/db/models"
	"github.com/angelmondragon/clipstream-backend/pkg/enums"
)

// SeedAccount inserts a TRADITIONAL account for owner.
func SeedAccount(t testing.TB, conn *gorm.DB, owner, authUID string) models.Account {
	t.Helper()
	account := models.Account{Owner: strings.ToLower(owner), Type: enums.AccountTypeTraditional}
	if authUID != "" {
		account.AuthUID = &authUID
	}
	if err := conn.Create(&account).Error; err != nil {
		t.Fatalf("seed account: %v", err)
	}
	return account
}

// SeedProfile inserts a profile named name under account.
func SeedProfile(t testing.TB, conn *gorm.DB, account models.Account, name string) models.Profile {
	t.Helper()
	profile := models.Profile{
		Owner:       account.Owner,
		Name:        strings.ToLower(name),
		DisplayName: name,
		AccountID:   account.ID,
	}
	if err := conn.Create(&profile).Error; err != nil {
		t.Fatalf("seed profile: %v", err)
	}
	return profile
}

// SeedPublish inserts a ready public publish of publishType by creator.
func SeedPublish(t testing.TB, conn *gorm.DB, creator models.Profile, publishType enums.PublishType, title string) models.Publish {
	t.Helper()
	pt := publishType
	publish := models.Publish{
		CreatorID:   creator.ID,
		Title:       &title,
		Visibility:  enums.VisibilityPublic,
		PublishType: &pt,
		StreamType:  enums.StreamTypeOnDemand,
	}
	if err := conn.Create(&publish).Error; err != nil {
		t.Fatalf("seed publish: %v", err)
	}
	return publish
}

// Profiles reads profiles straight from conn.
type Profiles struct {
	DB *gorm.DB
}

// FindByID loads a profile by id.
func (p Profiles) FindByID(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	var profile models.Profile
	if err := p.DB.WithContext(ctx).First(&profile, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}
