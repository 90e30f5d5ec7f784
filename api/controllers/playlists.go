package controllers

import (
	"github.com/angelmondragon/clipstream-backend/internal/playlists"
	"github.com/angelmondragon/clipstream-backend/pkg/logger"
)

func PlaylistOperations(svc playlists.Service, logg *logger.Logger) []Operation {
	return []Operation{
		{Name: "fetchMyPlaylists", Handler: Query(logg, svc.FetchMyPlaylists)},
		{Name: "checkPublishPlaylists", Handler: Query(logg, svc.CheckPublishPlaylists)},
		{Name: "fetchPreviewPlaylists", Handler: Query(logg, svc.FetchPreviewPlaylists)},
		{Name: "fetchPlaylistItems", Handler: Query(logg, svc.FetchPlaylistItems)},
		{Name: "addToNewPlaylist", Handler: Mutation(logg, svc.AddToNewPlaylist)},
		{Name: "addToPlaylist", Handler: Mutation(logg, svc.AddToPlaylist)},
		{Name: "updatePlaylists", Handler: Mutation(logg, svc.UpdatePlaylists)},
		{Name: "deletePlaylist", Handler: Mutation(logg, svc.DeletePlaylist)},
		{Name: "updatePlaylistName", Handler: Mutation(logg, svc.UpdatePlaylistName)},
		{Name: "updatePlaylistDescription", Handler: Mutation(logg, svc.UpdatePlaylistDescription)},
		{Name: "removeFromPlaylist", Handler: Mutation(logg, svc.RemoveFromPlaylist)},
		{Name: "deleteAllPlaylistItems", Handler: Mutation(logg, svc.DeleteAllPlaylistItems)},
	}
}
