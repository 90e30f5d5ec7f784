package watchlater

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/clipstream-backend/internal/authenticity"
	"github.com/angelmondragon/clipstream-backend/internal/authenticity/authtest"
	"github.com/angelmondragon/clipstream-backend/internal/publishes"
	"github.com/angelmondragon/clipstream-backend/pkg/db/dbtest"
	"github.com/angelmondragon/clipstream-backend/pkg/db/models"
	"github.com/angelmondragon/clipstream-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/clipstream-backend/pkg/errors"
)

type fixture struct {
	conn    *gorm.DB
	svc     Service
	account models.Account
	alice   models.Profile
	bob     models.Profile
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	conn := dbtest.Open(t)
	account := dbtest.SeedAccount(t, conn, "0xabc", "uid-1")
	alice := dbtest.SeedProfile(t, conn, account, "alice")
	other := dbtest.SeedAccount(t, conn, "0xdef", "uid-2")
	bob := dbtest.SeedProfile(t, conn, other, "bob")

	guard, err := authenticity.NewGuard(&authtest.Static{Account: &account}, dbtest.Profiles{DB: conn})
	require.NoError(t, err)
	svc, err := NewService(NewRepository(conn), guard, publishes.NewEnricher(publishes.NewRepository(conn)))
	require.NoError(t, err)
	return fixture{conn: conn, svc: svc, account: account, alice: alice, bob: bob}
}

func (f fixture) actor() authenticity.Actor {
	return authenticity.Actor{Owner: f.account.Owner, AccountID: f.account.ID, ProfileID: f.alice.ID}
}

// save stores n entries for alice, the i-th saved i minutes after base.
func (f fixture) save(t *testing.T, n int) []models.WatchLater {
	t.Helper()
	base := time.Now().UTC().Add(-time.Hour)
	out := make([]models.WatchLater, 0, n)
	for i := 0; i < n; i++ {
		publish := dbtest.SeedPublish(t, f.conn, f.bob, enums.PublishTypeVideo, "clip")
		item := models.WatchLater{ProfileID: f.alice.ID, PublishID: publish.ID}
		require.NoError(t, f.conn.Create(&item).Error)
		at := base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, f.conn.Model(&models.WatchLater{}).Where("id = ?", item.ID).UpdateColumn("created_at", at).Error)
		out = append(out, item)
	}
	return out
}

func TestFetchPreviewWatchLaterReturnsTwoWithCount(t *testing.T) {
	f := newFixture(t)
	saved := f.save(t, 3)

	page, err := f.svc.FetchPreviewWatchLater(context.Background(), FetchInput{Actor: f.actor()})
	require.NoError(t, err)
	require.Len(t, page.Edges, 2)
	require.Equal(t, saved[2].ID, page.Edges[0].Node.ID)
	require.EqualValues(t, 3, *page.PageInfo.Count)
	require.Nil(t, page.PageInfo.EndCursor)
	require.True(t, page.PageInfo.HasNextPage)
	require.NotNil(t, page.Edges[0].Node.Publish)
	require.False(t, *page.Edges[0].Node.Publish.Liked)
}

func TestFetchWatchLaterPagesBothDirections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	saved := f.save(t, 11)

	first, err := f.svc.FetchWatchLater(ctx, FetchInput{Actor: f.actor()})
	require.NoError(t, err)
	require.Len(t, first.Edges, 10)
	require.True(t, first.PageInfo.HasNextPage)
	require.Equal(t, saved[1].ID.String(), *first.PageInfo.EndCursor)

	rest, err := f.svc.FetchWatchLater(ctx, FetchInput{Actor: f.actor(), Cursor: *first.PageInfo.EndCursor})
	require.NoError(t, err)
	require.Len(t, rest.Edges, 1)
	require.Equal(t, saved[0].ID, rest.Edges[0].Node.ID)
	require.False(t, rest.PageInfo.HasNextPage)

	oldest, err := f.svc.FetchWatchLater(ctx, FetchInput{Actor: f.actor(), OrderBy: enums.PlaylistOrderByOldest})
	require.NoError(t, err)
	require.Equal(t, saved[0].ID, oldest.Edges[0].Node.ID)
}

func TestAddToWatchLaterIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	publish := dbtest.SeedPublish(t, f.conn, f.bob, enums.PublishTypeShort, "short")

	require.NoError(t, f.svc.AddToWatchLater(ctx, AddInput{Actor: f.actor(), PublishID: publish.ID}))
	require.NoError(t, f.svc.AddToWatchLater(ctx, AddInput{Actor: f.actor(), PublishID: publish.ID}))

	var n int64
	require.NoError(t, f.conn.Model(&models.WatchLater{}).Where("profile_id = ?", f.alice.ID).Count(&n).Error)
	require.EqualValues(t, 1, n)

	err := f.svc.AddToWatchLater(ctx, AddInput{Actor: f.actor(), PublishID: uuid.New()})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestRemoveFromWatchLater(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	saved := f.save(t, 3)

	require.NoError(t, f.svc.RemoveFromWatchLater(ctx, RemoveInput{Actor: f.actor(), PublishID: saved[0].PublishID}))
	require.NoError(t, f.svc.RemoveFromWatchLater(ctx, RemoveInput{Actor: f.actor(), PublishID: saved[1].PublishID, ID: &saved[1].ID}))

	theirs := models.WatchLater{ProfileID: f.bob.ID, PublishID: saved[2].PublishID}
	require.NoError(t, f.conn.Create(&theirs).Error)
	err := f.svc.RemoveFromWatchLater(ctx, RemoveInput{Actor: f.actor(), PublishID: theirs.PublishID, ID: &theirs.ID})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))

	page, err := f.svc.FetchWatchLater(ctx, FetchInput{Actor: f.actor()})
	require.NoError(t, err)
	require.Len(t, page.Edges, 1)
	require.Equal(t, saved[2].ID, page.Edges[0].Node.ID)

	require.NoError(t, f.svc.RemoveAllWatchLater(ctx, RemoveAllInput{Actor: f.actor()}))
	page, err = f.svc.FetchWatchLater(ctx, FetchInput{Actor: f.actor()})
	require.NoError(t, err)
	require.Empty(t, page.Edges)
	require.EqualValues(t, 0, *page.PageInfo.Count)
}
