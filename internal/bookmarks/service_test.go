package bookmarks

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

func (f fixture) bookmark(t *testing.T, title string, at time.Time) models.Bookmark {
	t.Helper()
	publish := dbtest.SeedPublish(t, f.conn, f.bob, enums.PublishTypeBlog, title)
	b := models.Bookmark{ProfileID: f.alice.ID, PublishID: publish.ID}
	require.NoError(t, f.conn.Create(&b).Error)
	require.NoError(t, f.conn.Model(&models.Bookmark{}).Where("id = ?", b.ID).UpdateColumn("created_at", at).Error)
	return b
}

func TestFetchBookmarksNewestFirst(t *testing.T) {
	f := newFixture(t)
	now := time.Now().UTC()
	older := f.bookmark(t, "first", now.Add(-time.Minute))
	newer := f.bookmark(t, "second", now)

	page, err := f.svc.FetchBookmarks(context.Background(), FetchInput{Actor: f.actor()})
	require.NoError(t, err)
	require.Len(t, page.Edges, 2)
	require.Equal(t, newer.ID, page.Edges[0].Node.ID)
	require.Equal(t, older.ID, page.Edges[1].Node.ID)
	require.False(t, page.PageInfo.HasNextPage)
	require.Nil(t, page.PageInfo.EndCursor)
	require.True(t, *page.Edges[0].Node.Publish.Bookmarked)
	require.Equal(t, "second", *page.Edges[0].Node.Publish.Title)
}

func TestFetchPreviewBookmarks(t *testing.T) {
	f := newFixture(t)
	now := time.Now().UTC()
	for i := 0; i < 4; i++ {
		f.bookmark(t, "post", now.Add(time.Duration(i)*time.Minute))
	}

	page, err := f.svc.FetchPreviewBookmarks(context.Background(), FetchInput{Actor: f.actor()})
	require.NoError(t, err)
	require.Len(t, page.Edges, 2)
	require.EqualValues(t, 4, *page.PageInfo.Count)
	require.True(t, page.PageInfo.HasNextPage)
	require.Nil(t, page.PageInfo.EndCursor)
}

func TestBookmarkPostToggles(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	publish := dbtest.SeedPublish(t, f.conn, f.bob, enums.PublishTypeBlog, "post")
	input := BookmarkInput{Actor: f.actor(), PublishID: publish.ID}
	count := func() int64 {
		var n int64
		require.NoError(t, f.conn.Model(&models.Bookmark{}).Where("profile_id = ?", f.alice.ID).Count(&n).Error)
		return n
	}

	require.NoError(t, f.svc.BookmarkPost(ctx, input))
	require.EqualValues(t, 1, count())
	require.NoError(t, f.svc.BookmarkPost(ctx, input))
	require.EqualValues(t, 0, count())

	err := f.svc.BookmarkPost(ctx, BookmarkInput{Actor: f.actor(), PublishID: uuid.New()})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestRemoveBookmarks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	now := time.Now().UTC()
	first := f.bookmark(t, "one", now)
	f.bookmark(t, "two", now)
	f.bookmark(t, "three", now)

	require.NoError(t, f.svc.RemoveBookmark(ctx, BookmarkInput{Actor: f.actor(), PublishID: first.PublishID}))
	page, err := f.svc.FetchBookmarks(ctx, FetchInput{Actor: f.actor()})
	require.NoError(t, err)
	require.Len(t, page.Edges, 2)

	require.NoError(t, f.svc.RemoveAllBookmarks(ctx, RemoveAllInput{Actor: f.actor()}))
	page, err = f.svc.FetchBookmarks(ctx, FetchInput{Actor: f.actor()})
	require.NoError(t, err)
	require.Empty(t, page.Edges)
}

func TestBookmarksRequireOwnProfile(t *testing.T) {
	f := newFixture(t)
	actor := f.actor()
	actor.ProfileID = f.bob.ID
	_, err := f.svc.FetchBookmarks(context.Background(), FetchInput{Actor: actor})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
}
