package accounts

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/clipstream-backend/internal/authenticity"
	"github.com/angelmondragon/clipstream-backend/internal/authenticity/authtest"
	"github.com/angelmondragon/clipstream-backend/pkg/db/dbtest"
	"github.com/angelmondragon/clipstream-backend/pkg/db/models"
	"github.com/angelmondragon/clipstream-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/clipstream-backend/pkg/errors"
	"github.com/angelmondragon/clipstream-backend/pkg/logger"
	"github.com/angelmondragon/clipstream-backend/pkg/walletapi"
)

type fakeWallet struct {
	uid       string
	address   string
	verifyErr error
	created   int
}

func (f *fakeWallet) VerifyUser(context.Context, string) (string, error) {
	return f.uid, f.verifyErr
}

func (f *fakeWallet) GetWalletAddress(context.Context, string) (walletapi.Wallet, error) {
	return walletapi.Wallet{Address: f.address, UID: f.uid}, nil
}

func (f *fakeWallet) CreateWallet(context.Context, string) (walletapi.Wallet, error) {
	f.created++
	return walletapi.Wallet{Address: f.address, UID: f.uid}, nil
}

func (f *fakeWallet) GetBalance(_ context.Context, _ string, address string) (string, error) {
	return "1.5:" + address, nil
}

type fakeResolver struct {
	address string
}

func (f fakeResolver) RecoverAddress(signature string) (string, error) {
	if signature == "bad" {
		return "", errors.New("malformed signature")
	}
	return f.address, nil
}

type memorySessions struct {
	entries map[string]uuid.UUID
}

func (m *memorySessions) Remember(_ context.Context, owner string, profileID uuid.UUID) error {
	m.entries[owner] = profileID
	return nil
}

func (m *memorySessions) Forget(_ context.Context, owner string) error {
	delete(m.entries, owner)
	return nil
}

func (m *memorySessions) DefaultProfile(_ context.Context, owner string) (uuid.UUID, bool, error) {
	id, ok := m.entries[owner]
	return id, ok, nil
}

type fixture struct {
	svc      Service
	repo     *Repository
	wallet   *fakeWallet
	sessions *memorySessions
	account  models.Account
	first    models.Profile
	second   models.Profile
	foreign  models.Profile
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	conn := dbtest.Open(t)
	account := dbtest.SeedAccount(t, conn, "0xAbC", "uid-1")
	first := dbtest.SeedProfile(t, conn, account, "alice")
	second := dbtest.SeedProfile(t, conn, account, "alice-music")
	other := dbtest.SeedAccount(t, conn, "0xdef", "uid-2")
	foreign := dbtest.SeedProfile(t, conn, other, "dave")

	repo := NewRepository(conn)
	guard, err := authenticity.NewGuard(&authtest.Static{Account: &account}, dbtest.Profiles{DB: conn})
	require.NoError(t, err)
	wallet := &fakeWallet{uid: "uid-1", address: "0xABC"}
	sessions := &memorySessions{entries: map[string]uuid.UUID{}}
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	svc, err := NewService(repo, wallet, fakeResolver{address: "0xFEED"}, guard, sessions, logg)
	require.NoError(t, err)
	return fixture{svc: svc, repo: repo, wallet: wallet, sessions: sessions, account: account, first: first, second: second, foreign: foreign}
}

func withSignature(sig string) context.Context {
	return authenticity.WithCredentials(context.Background(), authenticity.Credentials{IDToken: "tok", WalletSignature: sig})
}

func TestGetMyAccountTraditionalDefaultsToFirstProfile(t *testing.T) {
	f := newFixture(t)

	got, err := f.svc.GetMyAccount(withSignature(""), AccountTypeInput{AccountType: enums.AccountTypeTraditional})
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, f.account.ID, got.ID)
	require.Len(t, got.Profiles, 2)
	require.Equal(t, f.first.ID, got.DefaultProfile.ID)
}

func TestGetMyAccountMissingAddressIsNull(t *testing.T) {
	f := newFixture(t)
	f.wallet.address = ""

	got, err := f.svc.GetMyAccount(withSignature(""), AccountTypeInput{AccountType: enums.AccountTypeTraditional})
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestGetMyAccountWalletRequiresSignature(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.GetMyAccount(withSignature(""), AccountTypeInput{AccountType: enums.AccountTypeWallet})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized), "got %v", err)

	got, err := f.svc.GetMyAccount(withSignature("0xsig"), AccountTypeInput{AccountType: enums.AccountTypeWallet})
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestGetMyAccountPropagatesVerificationFailure(t *testing.T) {
	f := newFixture(t)
	f.wallet.verifyErr = pkgerrors.New(pkgerrors.CodeUnauthenticated, "Unauthenticated")

	_, err := f.svc.GetMyAccount(withSignature(""), AccountTypeInput{AccountType: enums.AccountTypeTraditional})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthenticated), "got %v", err)
}

func TestCreateAccountTraditionalIsIdempotentPerOwner(t *testing.T) {
	f := newFixture(t)
	f.wallet.address = "0xNEW"
	f.wallet.uid = "uid-new"

	created, err := f.svc.CreateAccount(withSignature(""), AccountTypeInput{AccountType: enums.AccountTypeTraditional})
	require.NoError(t, err)
	require.Equal(t, "0xnew", created.Owner)
	require.Equal(t, "uid-new", *created.AuthUID)
	require.Empty(t, created.Profiles)
	require.Nil(t, created.DefaultProfile)

	again, err := f.svc.CreateAccount(withSignature(""), AccountTypeInput{AccountType: enums.AccountTypeTraditional})
	require.NoError(t, err)
	require.Equal(t, created.ID, again.ID)
	require.Equal(t, 2, f.wallet.created)
}

func TestCreateAccountWallet(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CreateAccount(withSignature(""), AccountTypeInput{AccountType: enums.AccountTypeWallet})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized), "got %v", err)

	_, err = f.svc.CreateAccount(withSignature("0xsig"), AccountTypeInput{AccountType: enums.AccountTypeWallet})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeBadRequest), "got %v", err)

	f.wallet.uid = "uid-fresh"
	created, err := f.svc.CreateAccount(withSignature("0xsig"), AccountTypeInput{AccountType: enums.AccountTypeWallet})
	require.NoError(t, err)
	require.Equal(t, "0xfeed", created.Owner)
	require.Equal(t, enums.AccountTypeWallet, created.Type)
}

func TestCacheSessionSelectsDefaultProfile(t *testing.T) {
	f := newFixture(t)
	ctx := withSignature("")

	err := f.svc.CacheSession(ctx, CacheSessionInput{Address: f.account.Owner, ProfileID: f.foreign.ID, AccountID: f.account.ID})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized), "got %v", err)

	require.NoError(t, f.svc.CacheSession(ctx, CacheSessionInput{Address: "0xABC", ProfileID: f.second.ID, AccountID: f.account.ID}))
	require.Equal(t, f.second.ID, f.sessions.entries["0xABC"])

	f.sessions.entries[f.account.Owner] = f.second.ID
	got, err := f.svc.GetMyAccount(ctx, AccountTypeInput{AccountType: enums.AccountTypeTraditional})
	require.NoError(t, err)
	require.Equal(t, f.second.ID, got.DefaultProfile.ID)

	f.sessions.entries[f.account.Owner] = f.foreign.ID
	got, err = f.svc.GetMyAccount(ctx, AccountTypeInput{AccountType: enums.AccountTypeTraditional})
	require.NoError(t, err)
	require.Equal(t, f.first.ID, got.DefaultProfile.ID)
	require.NotContains(t, f.sessions.entries, f.account.Owner, "stale entry is forgotten")
}

func TestValidateAuthSoftFails(t *testing.T) {
	f := newFixture(t)
	ctx := withSignature("")

	require.True(t, f.svc.ValidateAuth(ctx, ValidateAuthInput{AccountID: f.account.ID, Owner: "0xabc", ProfileID: f.first.ID}).IsAuthenticated)
	require.False(t, f.svc.ValidateAuth(ctx, ValidateAuthInput{AccountID: f.account.ID, Owner: "0xabc", ProfileID: f.foreign.ID}).IsAuthenticated)
	require.False(t, f.svc.ValidateAuth(ctx, ValidateAuthInput{AccountID: f.account.ID, Owner: "0xabc", ProfileID: uuid.New()}).IsAuthenticated)
	require.False(t, f.svc.ValidateAuth(ctx, ValidateAuthInput{Owner: "0xabc", ProfileID: f.first.ID}).IsAuthenticated)
}

func TestGetBalance(t *testing.T) {
	f := newFixture(t)
	balance, err := f.svc.GetBalance(context.Background(), BalanceInput{Address: " 0xabc "})
	require.NoError(t, err)
	require.Equal(t, "1.5:0xabc", balance)

	_, err = f.svc.GetBalance(context.Background(), BalanceInput{})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeBadUserInput), "got %v", err)
}
