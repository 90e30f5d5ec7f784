package authenticity

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/clipstream-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/clipstream-backend/pkg/errors"
)

// Credentials are the caller identity proofs carried by a request.
type Credentials struct {
	IDToken         string
	WalletSignature string
}

// HasSignature reports whether a wallet signature was supplied.
func (c Credentials) HasSignature() bool {
	return strings.TrimSpace(c.WalletSignature) != ""
}

// IdentityVerifier resolves a bearer id token to its external uid.
type IdentityVerifier interface {
	VerifyUser(ctx context.Context, idToken string) (string, error)
}

// AddressResolver recovers a wallet address from a signature over the fixed message.
type AddressResolver interface {
	RecoverAddress(signature string) (string, error)
}

// AccountReader loads accounts by their identifying columns. Missing rows
// are reported as gorm.ErrRecordNotFound.
type AccountReader interface {
	FindByAuthUID(ctx context.Context, uid string) (*models.Account, error)
	FindByOwner(ctx context.Context, owner string) (*models.Account, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Account, error)
}

// Authenticator is the surface domain services depend on.
type Authenticator interface {
	Validate(ctx context.Context, creds Credentials, accountID uuid.UUID, owner string) (*models.Account, error)
}

// Validator cross-checks the caller identity against the claimed account and owner.
type Validator struct {
	verifier IdentityVerifier
	resolver AddressResolver
	accounts AccountReader
}

// NewValidator wires the validator dependencies.
func NewValidator(verifier IdentityVerifier, resolver AddressResolver, accounts AccountReader) (*Validator, error) {
	if verifier == nil {
		return nil, errors.New("identity verifier is required")
	}
	if resolver == nil {
		return nil, errors.New("address resolver is required")
	}
	if accounts == nil {
		return nil, errors.New("account reader is required")
	}
	return &Validator{verifier: verifier, resolver: resolver, accounts: accounts}, nil
}

// Validate returns the account bound to the caller identity when the id
// token (or wallet signature), accountID and owner all resolve to the same
// owner address. Errors from the wallet service are returned as is; every
// other failure is UN_AUTHORIZED with the same message.
func (v *Validator) Validate(ctx context.Context, creds Credentials, accountID uuid.UUID, owner string) (*models.Account, error) {
	uid, err := v.verifier.VerifyUser(ctx, creds.IDToken)
	if err != nil {
		return nil, err
	}

	account, err := v.identityAccount(ctx, uid, creds)
	if err != nil {
		return nil, err
	}

	claimed, err := v.accounts.FindByID(ctx, accountID)
	if err != nil {
		return nil, lookupFailed(err)
	}

	lowered := strings.ToLower(strings.TrimSpace(owner))
	if lowered == "" || strings.ToLower(account.Owner) != lowered || strings.ToLower(claimed.Owner) != lowered {
		return nil, denied(nil)
	}
	return account, nil
}

func (v *Validator) identityAccount(ctx context.Context, uid string, creds Credentials) (*models.Account, error) {
	account, err := v.accounts.FindByAuthUID(ctx, uid)
	if err == nil {
		return account, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, lookupFailed(err)
	}
	if !creds.HasSignature() {
		return nil, denied(err)
	}

	address, err := v.resolver.RecoverAddress(creds.WalletSignature)
	if err != nil {
		return nil, denied(err)
	}
	account, err = v.accounts.FindByOwner(ctx, strings.ToLower(address))
	if err != nil {
		return nil, lookupFailed(err)
	}
	return account, nil
}

// RequireOwner fails with UN_AUTHORIZED unless the profile owner matches the
// authenticated account owner.
func RequireOwner(account *models.Account, profileOwner string) error {
	if account == nil || !strings.EqualFold(account.Owner, strings.TrimSpace(profileOwner)) {
		return denied(nil)
	}
	return nil
}

// lookupFailed maps a missing account to UN_AUTHORIZED and any other
// storage failure to DEPENDENCY.
func lookupFailed(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return denied(err)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load account")
}

func denied(cause error) error {
	if cause == nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, pkgerrors.MessageUnauthorized)
	}
	return pkgerrors.Wrap(pkgerrors.CodeUnauthorized, cause, pkgerrors.MessageUnauthorized)
}
