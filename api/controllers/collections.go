package controllers

import (
	"github.com/angelmondragon/clipstream-backend/internal/bookmarks"
	"github.com/angelmondragon/clipstream-backend/internal/watchlater"
	"github.com/angelmondragon/clipstream-backend/pkg/logger"
)

// WatchLaterOperations exposes the watch-later list of a profile.
func WatchLaterOperations(svc watchlater.Service, logg *logger.Logger) []Operation {
	return []Operation{
		{Name: "fetchPreviewWatchLater", Handler: Query(logg, svc.FetchPreviewWatchLater)},
		{Name: "fetchWatchLater", Handler: Query(logg, svc.FetchWatchLater)},
		{Name: "addToWatchLater", Handler: Mutation(logg, svc.AddToWatchLater)},
		{Name: "removeFromWatchLater", Handler: Mutation(logg, svc.RemoveFromWatchLater)},
		{Name: "removeAllWatchLater", Handler: Mutation(logg, svc.RemoveAllWatchLater)},
	}
}

// BookmarkOperations exposes the bookmarked blogs of a profile.
func BookmarkOperations(svc bookmarks.Service, logg *logger.Logger) []Operation {
	return []Operation{
		{Name: "fetchPreviewBookmarks", Handler: Query(logg, svc.FetchPreviewBookmarks)},
		{Name: "fetchBookmarks", Handler: Query(logg, svc.FetchBookmarks)},
		{Name: "bookmarkPost", Handler: Mutation(logg, svc.BookmarkPost)},
		{Name: "removeBookmark", Handler: Mutation(logg, svc.RemoveBookmark)},
		{Name: "removeAllBookmarks", Handler: Mutation(logg, svc.RemoveAllBookmarks)},
	}
}
