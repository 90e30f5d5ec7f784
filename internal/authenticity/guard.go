package authenticity

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/clipstream-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/clipstream-backend/pkg/errors"
)

// Actor is the caller-asserted identity most operations carry.
type Actor struct {
	Owner     string    `json:"owner" validate:"required"`
	AccountID uuid.UUID `json:"accountId" validate:"required"`
	ProfileID uuid.UUID `json:"profileId" validate:"required"`
}

// Creator is the identity carried by operations on a creator's own
// publishes, where the acting profile is named creatorId.
type Creator struct {
	Owner     string    `json:"owner" validate:"required"`
	AccountID uuid.UUID `json:"accountId" validate:"required"`
	CreatorID uuid.UUID `json:"creatorId" validate:"required"`
}

// Actor converts c to the common actor shape.
func (c Creator) Actor() Actor {
	return Actor{Owner: c.Owner, AccountID: c.AccountID, ProfileID: c.CreatorID}
}

// ProfileReader loads a profile by id. Missing rows are reported as
// gorm.ErrRecordNotFound.
type ProfileReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Profile, error)
}

// Guard authenticates the caller and checks it owns the acting profile.
type Guard struct {
	auth     Authenticator
	profiles ProfileReader
}

// NewGuard builds a guard.
func NewGuard(auth Authenticator, profiles ProfileReader) (*Guard, error) {
	if auth == nil {
		return nil, errors.New("authenticator is required")
	}
	if profiles == nil {
		return nil, errors.New("profile reader is required")
	}
	return &Guard{auth: auth, profiles: profiles}, nil
}

// Account authenticates the caller without a profile check.
func (g *Guard) Account(ctx context.Context, accountID uuid.UUID, owner string) (*models.Account, error) {
	return g.auth.Validate(ctx, CredentialsFromContext(ctx), accountID, owner)
}

// Profile authenticates actor and returns the acting profile once its owner
// matches the authenticated account.
func (g *Guard) Profile(ctx context.Context, actor Actor) (*models.Account, *models.Profile, error) {
	if actor.ProfileID == uuid.Nil {
		return nil, nil, pkgerrors.BadInput()
	}
	account, err := g.Account(ctx, actor.AccountID, actor.Owner)
	if err != nil {
		return nil, nil, err
	}
	profile, err := g.LoadProfile(ctx, actor.ProfileID)
	if err != nil {
		return nil, nil, err
	}
	if err := RequireOwner(account, profile.Owner); err != nil {
		return nil, nil, err
	}
	return account, profile, nil
}

// LoadProfile returns the profile or NOT_FOUND.
func (g *Guard) LoadProfile(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	profile, err := g.profiles.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, pkgerrors.MessageNotFound)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load profile")
	}
	return profile, nil
}
