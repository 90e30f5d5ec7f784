// Package authtest provides a fixed Authenticator for service tests.
package authtest

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/clipstream-backend/internal/authenticity"
	"github.com/angelmondragon/clipstream-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/clipstream-backend/pkg/errors"
)

// Static authenticates any caller that claims Account's id and owner.
type Static struct {
	Account *models.Account
	Err     error
	Calls   int
}

var _ authenticity.Authenticator = (*Static)(nil)

// Validate mirrors the real validator's outcome for a known account.
func (s *Static) Validate(_ context.Context, _ authenticity.Credentials, accountID uuid.UUID, owner string) (*models.Account, error) {
	s.Calls++
	if s.Err != nil {
		return nil, s.Err
	}
	if s.Account == nil || s.Account.ID != accountID || !strings.EqualFold(s.Account.Owner, owner) {
		return nil, pkgerrors.Unauthorized()
	}
	acct := *s.Account
	return &acct, nil
}
