package accounts

import (
	"context"
	"errors"
	"slices"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/clipstream-backend/internal/authenticity"
	"github.com/angelmondragon/clipstream-backend/pkg/db/models"
	"github.com/angelmondragon/clipstream-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/clipstream-backend/pkg/errors"
	"github.com/angelmondragon/clipstream-backend/pkg/logger"
	"github.com/angelmondragon/clipstream-backend/pkg/walletapi"
)

type walletService interface {
	VerifyUser(ctx context.Context, idToken string) (string, error)
	GetWalletAddress(ctx context.Context, idToken string) (walletapi.Wallet, error)
	CreateWallet(ctx context.Context, idToken string) (walletapi.Wallet, error)
	GetBalance(ctx context.Context, idToken, address string) (string, error)
}

type sessionCache interface {
	Remember(ctx context.Context, owner string, profileID uuid.UUID) error
	DefaultProfile(ctx context.Context, owner string) (uuid.UUID, bool, error)
	Forget(ctx context.Context, owner string) error
}

// AccountTypeInput selects the sign-in flavor.
type AccountTypeInput struct {
	AccountType enums.AccountType `json:"accountType" validate:"required,enum"`
}

// BalanceInput reads a wallet balance.
type BalanceInput struct {
	Address string `json:"address" validate:"required"`
}

// CacheSessionInput remembers the profile an owner works with.
type CacheSessionInput struct {
	Address   string    `json:"address" validate:"required"`
	ProfileID uuid.UUID `json:"profileId" validate:"required"`
	AccountID uuid.UUID `json:"accountId" validate:"required"`
}

// ValidateAuthInput asks whether the caller may act as ProfileID.
type ValidateAuthInput struct {
	AccountID uuid.UUID `json:"accountId"`
	Owner     string    `json:"owner"`
	ProfileID uuid.UUID `json:"profileId"`
}

// Service defines account operations.
type Service interface {
	GetMyAccount(ctx context.Context, input AccountTypeInput) (*AccountDTO, error)
	GetBalance(ctx context.Context, input BalanceInput) (string, error)
	CreateAccount(ctx context.Context, input AccountTypeInput) (*AccountDTO, error)
	CacheSession(ctx context.Context, input CacheSessionInput) error
	ValidateAuth(ctx context.Context, input ValidateAuthInput) ValidateAuthResult
}

type service struct {
	repo     *Repository
	wallet   walletService
	resolver authenticity.AddressResolver
	guard    *authenticity.Guard
	sessions sessionCache
	logg     *logger.Logger
}

// NewService wires account dependencies.
func NewService(repo *Repository, wallet walletService, resolver authenticity.AddressResolver, guard *authenticity.Guard, sessions sessionCache, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, errors.New("accounts repository required")
	}
	if wallet == nil {
		return nil, errors.New("wallet service required")
	}
	if resolver == nil {
		return nil, errors.New("address resolver required")
	}
	if guard == nil {
		return nil, errors.New("authenticity guard required")
	}
	if sessions == nil {
		return nil, errors.New("session cache required")
	}
	if logg == nil {
		return nil, errors.New("logger required")
	}
	return &service{
		repo:     repo,
		wallet:   wallet,
		resolver: resolver,
		guard:    guard,
		sessions: sessions,
		logg:     logg,
	}, nil
}

func (s *service) GetMyAccount(ctx context.Context, input AccountTypeInput) (*AccountDTO, error) {
	if !input.AccountType.IsValid() {
		return nil, pkgerrors.BadInput()
	}
	creds := authenticity.CredentialsFromContext(ctx)
	if _, err := s.wallet.VerifyUser(ctx, creds.IDToken); err != nil {
		return nil, err
	}

	var owner string
	switch input.AccountType {
	case enums.AccountTypeTraditional:
		wallet, err := s.wallet.GetWalletAddress(ctx, creds.IDToken)
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(wallet.Address) == "" {
			return nil, nil
		}
		owner = wallet.Address
	case enums.AccountTypeWallet:
		address, err := s.recover(creds)
		if err != nil {
			return nil, err
		}
		owner = address
	}

	account, err := s.repo.FindByOwner(ctx, owner)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load account")
	}
	return s.describe(ctx, *account)
}

func (s *service) GetBalance(ctx context.Context, input BalanceInput) (string, error) {
	address := strings.TrimSpace(input.Address)
	if address == "" {
		return "", pkgerrors.BadInput()
	}
	return s.wallet.GetBalance(ctx, authenticity.CredentialsFromContext(ctx).IDToken, address)
}

func (s *service) CreateAccount(ctx context.Context, input AccountTypeInput) (*AccountDTO, error) {
	if !input.AccountType.IsValid() {
		return nil, pkgerrors.BadInput()
	}
	creds := authenticity.CredentialsFromContext(ctx)
	uid, err := s.wallet.VerifyUser(ctx, creds.IDToken)
	if err != nil {
		return nil, err
	}

	candidate := models.Account{Type: input.AccountType}
	switch input.AccountType {
	case enums.AccountTypeTraditional:
		wallet, err := s.wallet.CreateWallet(ctx, creds.IDToken)
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(wallet.Address) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeDependency, "wallet service returned no address")
		}
		candidate.Owner = wallet.Address
		if walletUID := firstNonEmpty(wallet.UID, uid); walletUID != "" {
			candidate.AuthUID = &walletUID
		}
	case enums.AccountTypeWallet:
		if !creds.HasSignature() {
			return nil, pkgerrors.Unauthorized()
		}
		exists, err := s.repo.ExistsByAuthUID(ctx, uid)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check account uid")
		}
		if exists {
			return nil, pkgerrors.New(pkgerrors.CodeBadRequest, "Bad request")
		}
		address, err := s.recover(creds)
		if err != nil {
			return nil, err
		}
		candidate.Owner = address
		if uid != "" {
			candidate.AuthUID = &uid
		}
	}

	account, err := s.repo.CreateIfMissing(ctx, candidate)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create account")
	}
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"account_id":   account.ID.String(),
		"account_type": account.Type,
	})
	s.logg.Info(logCtx, "account ready")
	return s.describe(ctx, *account)
}

func (s *service) CacheSession(ctx context.Context, input CacheSessionInput) error {
	if strings.TrimSpace(input.Address) == "" || input.ProfileID == uuid.Nil || input.AccountID == uuid.Nil {
		return pkgerrors.BadInput()
	}
	_, _, err := s.guard.Profile(ctx, authenticity.Actor{
		Owner:     input.Address,
		AccountID: input.AccountID,
		ProfileID: input.ProfileID,
	})
	if err != nil {
		return err
	}
	if err := s.sessions.Remember(ctx, input.Address, input.ProfileID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cache session")
	}
	return nil
}

func (s *service) ValidateAuth(ctx context.Context, input ValidateAuthInput) ValidateAuthResult {
	if input.AccountID == uuid.Nil || strings.TrimSpace(input.Owner) == "" || input.ProfileID == uuid.Nil {
		return ValidateAuthResult{}
	}
	_, _, err := s.guard.Profile(ctx, authenticity.Actor{
		Owner:     input.Owner,
		AccountID: input.AccountID,
		ProfileID: input.ProfileID,
	})
	return ValidateAuthResult{IsAuthenticated: err == nil}
}

func (s *service) recover(creds authenticity.Credentials) (string, error) {
	if !creds.HasSignature() {
		return "", pkgerrors.Unauthorized()
	}
	address, err := s.resolver.RecoverAddress(creds.WalletSignature)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, pkgerrors.MessageUnauthorized)
	}
	return strings.ToLower(address), nil
}

// describe loads the profiles and resolves the default profile: the cached
// one when it still belongs to the account, else the oldest profile.
func (s *service) describe(ctx context.Context, account models.Account) (*AccountDTO, error) {
	list, err := s.repo.ListProfiles(ctx, account.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load account profiles")
	}
	var selected *models.Profile
	if len(list) > 0 {
		selected = &list[0]
		cached, ok, err := s.sessions.DefaultProfile(ctx, account.Owner)
		if err != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "default profile cache unavailable")
		}
		if ok {
			if i := slices.IndexFunc(list, func(p models.Profile) bool { return p.ID == cached }); i >= 0 {
				selected = &list[i]
			} else if err := s.sessions.Forget(ctx, account.Owner); err != nil {
				s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "stale default profile not cleared")
			}
		}
	}
	dto := ToDTO(account, list, selected)
	return &dto, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
