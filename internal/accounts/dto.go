package accounts

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/clipstream-backend/internal/profiles"
	"github.com/angelmondragon/clipstream-backend/pkg/db/models"
	"github.com/angelmondragon/clipstream-backend/pkg/enums"
)

// AccountDTO is the public shape of an account.
type AccountDTO struct {
	ID             uuid.UUID             `json:"id"`
	CreatedAt      time.Time             `json:"createdAt"`
	UpdatedAt      time.Time             `json:"updatedAt"`
	Owner          string                `json:"owner"`
	AuthUID        *string               `json:"authUid"`
	Type           enums.AccountType     `json:"type"`
	Profiles       []profiles.ProfileDTO `json:"profiles"`
	DefaultProfile *profiles.ProfileDTO  `json:"defaultProfile"`
}

// ValidateAuthResult reports the outcome of validateAuth.
type ValidateAuthResult struct {
	IsAuthenticated bool `json:"isAuthenticated"`
}

// ToDTO maps an account and its profiles. defaultProfile must be one of
// list or nil.
func ToDTO(a models.Account, list []models.Profile, defaultProfile *models.Profile) AccountDTO {
	dto := AccountDTO{
		ID:        a.ID,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
		Owner:     a.Owner,
		AuthUID:   a.AuthUID,
		Type:      a.Type,
		Profiles:  make([]profiles.ProfileDTO, 0, len(list)),
	}
	for _, p := range list {
		dto.Profiles = append(dto.Profiles, profiles.ToDTO(p))
	}
	if defaultProfile != nil {
		mapped := profiles.ToDTO(*defaultProfile)
		dto.DefaultProfile = &mapped
	}
	return dto
}
