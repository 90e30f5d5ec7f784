package playlists

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/clipstream-backend/pkg/db"
	"github.com/angelmondragon/clipstream-backend/pkg/db/models"
	"github.com/angelmondragon/clipstream-backend/pkg/enums"
	"github.com/angelmondragon/clipstream-backend/pkg/pagination"
)

// ListQty is the page size of the full playlist listing.
const ListQty = 100

// lastItemCond keeps the newest item of each playlist.
const lastItemCond = `playlist_items.id = (
	SELECT latest.id FROM playlist_items AS latest
	WHERE latest.playlist_id = playlist_items.playlist_id
	ORDER BY latest.created_at DESC, latest.id DESC
	LIMIT 1)`

var itemPreloads = []string{"Publish", "Publish.Creator", "Publish.Playback", "Publish.Blog"}

// Repository handles playlist persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to playlist operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to tx.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// FindByID loads a playlist.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Playlist, error) {
	var playlist models.Playlist
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&playlist).Error; err != nil {
		return nil, err
	}
	return &playlist, nil
}

// FindByIDs loads the playlists among ids.
func (r *Repository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Playlist, error) {
	var out []models.Playlist
	if len(ids) == 0 {
		return out, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&out).Error
	return out, err
}

// PublishExists reports whether the publish row is present.
func (r *Repository) PublishExists(ctx context.Context, publishID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Publish{}).Where("id = ?", publishID).Count(&count).Error
	return count > 0, err
}

// ListByOwner pages the playlists of owner, most recently updated first.
func (r *Repository) ListByOwner(ctx context.Context, ownerID uuid.UUID, cursor string, size int) (pagination.Page[models.Playlist], error) {
	q := r.db.WithContext(ctx).Model(&models.Playlist{}).Where("playlists.owner_id = ?", ownerID)
	return pagination.Fetch(ctx, q, pagination.Spec[models.Playlist]{
		Table: "playlists",
		Order: pagination.Order{
			pagination.Desc("playlists.updated_at"),
			pagination.Desc("playlists.created_at"),
			pagination.Desc("playlists.id"),
		},
		Size:      size,
		Cursor:    cursor,
		Key:       func(p models.Playlist) string { return p.ID.String() },
		WithCount: true,
	})
}

// ItemCounts counts the items of each playlist in ids.
func (r *Repository) ItemCounts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]int64, error) {
	out := make(map[uuid.UUID]int64, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []struct {
		PlaylistID uuid.UUID
		Total      int64
	}
	if err := r.db.WithContext(ctx).Model(&models.PlaylistItem{}).
		Select("playlist_id, COUNT(*) AS total").
		Where("playlist_id IN ?", ids).
		Group("playlist_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.PlaylistID] = row.Total
	}
	return out, nil
}

// LastItems returns the newest item of each playlist in ids with its publish.
func (r *Repository) LastItems(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.PlaylistItem, error) {
	out := make(map[uuid.UUID]models.PlaylistItem, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	q := r.db.WithContext(ctx).Where("playlist_items.playlist_id IN ?", ids).Where(lastItemCond)
	for _, preload := range itemPreloads {
		q = q.Preload(preload)
	}
	var items []models.PlaylistItem
	if err := q.Find(&items).Error; err != nil {
		return nil, err
	}
	for _, item := range items {
		out[item.PlaylistID] = item
	}
	return out, nil
}

// ListItems pages the items of a playlist by insertion time.
func (r *Repository) ListItems(ctx context.Context, playlistID uuid.UUID, orderBy enums.PlaylistOrderBy, cursor string) (pagination.Page[models.PlaylistItem], error) {
	q := r.db.WithContext(ctx).Model(&models.PlaylistItem{}).Where("playlist_items.playlist_id = ?", playlistID)
	return pagination.Fetch(ctx, q, pagination.Spec[models.PlaylistItem]{
		Table:     "playlist_items",
		Order:     pagination.Chronological("playlist_items", orderBy == enums.PlaylistOrderByOldest),
		Cursor:    cursor,
		Key:       func(i models.PlaylistItem) string { return i.ID.String() },
		WithCount: true,
		Preloads:  itemPreloads,
	})
}

// ItemsForPublish lists owner's playlist items holding publishID.
func (r *Repository) ItemsForPublish(ctx context.Context, ownerID, publishID uuid.UUID) ([]models.PlaylistItem, error) {
	var items []models.PlaylistItem
	err := r.db.WithContext(ctx).
		Where("owner_id = ? AND publish_id = ?", ownerID, publishID).
		Order("created_at DESC").
		Find(&items).Error
	return items, err
}

// InWatchLater reports whether profileID saved publishID to watch later.
func (r *Repository) InWatchLater(ctx context.Context, profileID, publishID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.WatchLater{}).
		Where("profile_id = ? AND publish_id = ?", profileID, publishID).
		Count(&count).Error
	return count > 0, err
}

// UpsertByName returns owner's playlist called name, creating it when absent.
func (r *Repository) UpsertByName(ctx context.Context, ownerID uuid.UUID, name string) (*models.Playlist, error) {
	candidate := models.Playlist{OwnerID: ownerID, Name: name}
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&candidate).Error; err != nil {
		return nil, err
	}
	var playlist models.Playlist
	if err := r.db.WithContext(ctx).Where("owner_id = ? AND name = ?", ownerID, name).First(&playlist).Error; err != nil {
		return nil, err
	}
	return &playlist, nil
}

// AddItem puts publishID in the playlist. Adding it twice is a no-op.
func (r *Repository) AddItem(ctx context.Context, ownerID, playlistID, publishID uuid.UUID) error {
	item := models.PlaylistItem{OwnerID: ownerID, PlaylistID: playlistID, PublishID: publishID}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&item).Error
}

// Touch bumps the playlist's updated_at.
func (r *Repository) Touch(ctx context.Context, playlistID uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&models.Playlist{}).
		Where("id = ?", playlistID).
		UpdateColumn("updated_at", db.NowUTC()).Error
}

// UpdateColumns applies updates to a playlist.
func (r *Repository) UpdateColumns(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).Model(&models.Playlist{}).Where("id = ?", id).Updates(updates).Error
}

// RemoveItem takes publishID out of the playlist.
func (r *Repository) RemoveItem(ctx context.Context, playlistID, publishID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("playlist_id = ? AND publish_id = ?", playlistID, publishID).
		Delete(&models.PlaylistItem{}).Error
}

// RemoveAllItems empties the playlist.
func (r *Repository) RemoveAllItems(ctx context.Context, playlistID uuid.UUID) error {
	return r.db.WithContext(ctx).Where("playlist_id = ?", playlistID).Delete(&models.PlaylistItem{}).Error
}

// Delete removes the playlist and its items.
func (r *Repository) Delete(ctx context.Context, playlistID uuid.UUID) error {
	if err := r.RemoveAllItems(ctx, playlistID); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Where("id = ?", playlistID).Delete(&models.Playlist{}).Error
}
