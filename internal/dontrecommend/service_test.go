package dontrecommend

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/clipstream-backend/internal/authenticity"
	"github.com/angelmondragon/clipstream-backend/internal/authenticity/authtest"
	"github.com/angelmondragon/clipstream-backend/pkg/db/dbtest"
	"github.com/angelmondragon/clipstream-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/clipstream-backend/pkg/errors"
)

func newService(t *testing.T) (Service, *gorm.DB, models.Account, models.Profile, models.Profile) {
	t.Helper()
	conn := dbtest.Open(t)
	account := dbtest.SeedAccount(t, conn, "0xabc", "uid-1")
	alice := dbtest.SeedProfile(t, conn, account, "alice")
	other := dbtest.SeedAccount(t, conn, "0xdef", "uid-2")
	bob := dbtest.SeedProfile(t, conn, other, "bob")
	guard, err := authenticity.NewGuard(&authtest.Static{Account: &account}, dbtest.Profiles{DB: conn})
	require.NoError(t, err)
	svc, err := NewService(NewRepository(conn), guard)
	require.NoError(t, err)
	return svc, conn, account, alice, bob
}

func TestDontRecommendIsIdempotent(t *testing.T) {
	svc, conn, account, alice, bob := newService(t)
	ctx := context.Background()
	actor := authenticity.Actor{Owner: account.Owner, AccountID: account.ID, ProfileID: alice.ID}

	require.NoError(t, svc.DontRecommend(ctx, TargetInput{Actor: actor, TargetID: bob.ID}))
	require.NoError(t, svc.DontRecommend(ctx, TargetInput{Actor: actor, TargetID: bob.ID}))

	var n int64
	require.NoError(t, conn.Model(&models.DontRecommend{}).Count(&n).Error)
	require.EqualValues(t, 1, n)

	page, err := svc.FetchDontRecommends(ctx, FetchInput{Owner: account.Owner, AccountID: account.ID, RequestorID: alice.ID})
	require.NoError(t, err)
	require.Len(t, page.Edges, 1)
	require.Equal(t, bob.ID, page.Edges[0].Node.TargetID)
	require.Equal(t, "bob", page.Edges[0].Node.Target.Name)

	require.NoError(t, svc.RemoveDontRecommend(ctx, TargetInput{Actor: actor, TargetID: bob.ID}))
	page, err = svc.FetchDontRecommends(ctx, FetchInput{Owner: account.Owner, AccountID: account.ID, RequestorID: alice.ID})
	require.NoError(t, err)
	require.Empty(t, page.Edges)
}

func TestDontRecommendRejectsSelfAndUnknownTargets(t *testing.T) {
	svc, _, account, alice, _ := newService(t)
	ctx := context.Background()
	actor := authenticity.Actor{Owner: account.Owner, AccountID: account.ID, ProfileID: alice.ID}

	err := svc.DontRecommend(ctx, TargetInput{Actor: actor, TargetID: alice.ID})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeBadRequest))

	err = svc.DontRecommend(ctx, TargetInput{Actor: actor, TargetID: uuid.New()})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestFetchDontRecommendsRequiresOwnProfile(t *testing.T) {
	svc, _, account, _, bob := newService(t)
	_, err := svc.FetchDontRecommends(context.Background(), FetchInput{Owner: account.Owner, AccountID: account.ID, RequestorID: bob.ID})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
}
