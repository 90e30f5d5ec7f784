package playlists

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/clipstream-backend/internal/publishes"
	"github.com/angelmondragon/clipstream-backend/pkg/db/models"
	"github.com/angelmondragon/clipstream-backend/pkg/pagination"
)

// PlaylistDTO is the public shape of a playlist.
type PlaylistDTO struct {
	ID          uuid.UUID `json:"id"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	OwnerID     uuid.UUID `json:"ownerId"`
}

// PlaylistItemDTO is one publish placed in a playlist.
type PlaylistItemDTO struct {
	ID         uuid.UUID             `json:"id"`
	CreatedAt  time.Time             `json:"createdAt"`
	PlaylistID uuid.UUID             `json:"playlistId"`
	PublishID  uuid.UUID             `json:"publishId"`
	Publish    *publishes.PublishDTO `json:"publish,omitempty"`
}

// PreviewPlaylistDTO summarizes a playlist by its size and newest publish.
type PreviewPlaylistDTO struct {
	ID       uuid.UUID             `json:"id"`
	Name     string                `json:"name"`
	Count    int64                 `json:"count"`
	LastItem *publishes.PublishDTO `json:"lastItem"`
}

type (
	PlaylistsPage        = pagination.Page[PlaylistDTO]
	PreviewPlaylistsPage = pagination.Page[PreviewPlaylistDTO]
)

// PlaylistItemsPage is a page of items plus the playlist's own fields.
type PlaylistItemsPage struct {
	PlaylistName        string                             `json:"playlistName"`
	PlaylistDescription *string                            `json:"playlistDescription"`
	PageInfo            pagination.PageInfo                `json:"pageInfo"`
	Edges               []pagination.Edge[PlaylistItemDTO] `json:"edges"`
}

// CheckPublishPlaylistsResult tells where the caller saved a publish.
type CheckPublishPlaylistsResult struct {
	Items          []PlaylistItemDTO `json:"items"`
	IsInWatchLater bool              `json:"isInWatchLater"`
	PublishID      uuid.UUID         `json:"publishId"`
}

// ToDTO maps a playlist row.
func ToDTO(p models.Playlist) PlaylistDTO {
	return PlaylistDTO{
		ID:          p.ID,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
		Name:        p.Name,
		Description: p.Description,
		OwnerID:     p.OwnerID,
	}
}

// ItemToDTO maps a playlist item without its publish.
func ItemToDTO(i models.PlaylistItem) PlaylistItemDTO {
	return PlaylistItemDTO{
		ID:         i.ID,
		CreatedAt:  i.CreatedAt,
		PlaylistID: i.PlaylistID,
		PublishID:  i.PublishID,
	}
}
