package playlists

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/clipstream-backend/internal/authenticity"
	"github.com/angelmondragon/clipstream-backend/internal/publishes"
	"github.com/angelmondragon/clipstream-backend/pkg/db"
	"github.com/angelmondragon/clipstream-backend/pkg/db/models"
	"github.com/angelmondragon/clipstream-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/clipstream-backend/pkg/errors"
	"github.com/angelmondragon/clipstream-backend/pkg/pagination"
)

// MessageNameExists is returned when the owner already has a playlist with
// the requested name.
const MessageNameExists = "A playlist with this name already exists."

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// FetchInput pages the acting profile's playlists.
type FetchInput struct {
	authenticity.Actor
	Cursor string `json:"cursor"`
}

// CheckPublishInput asks where the acting profile saved a publish.
type CheckPublishInput struct {
	authenticity.Actor
	PublishID uuid.UUID `json:"publishId" validate:"required"`
}

// FetchItemsInput pages the items of one playlist.
type FetchItemsInput struct {
	authenticity.Actor
	PlaylistID uuid.UUID             `json:"playlistId" validate:"required"`
	Cursor     string                `json:"cursor"`
	OrderBy    enums.PlaylistOrderBy `json:"orderBy"`
}

// AddToNewPlaylistInput saves a publish to the playlist called Name,
// creating the playlist when needed.
type AddToNewPlaylistInput struct {
	authenticity.Actor
	Name      string    `json:"name" validate:"required"`
	PublishID uuid.UUID `json:"publishId" validate:"required"`
}

// ItemInput addresses one publish inside one playlist.
type ItemInput struct {
	authenticity.Actor
	PlaylistID uuid.UUID `json:"playlistId" validate:"required"`
	PublishID  uuid.UUID `json:"publishId" validate:"required"`
}

// PlaylistStatus is the desired membership of a publish in one playlist.
type PlaylistStatus struct {
	IsInPlaylist bool      `json:"isInPlaylist"`
	PlaylistID   uuid.UUID `json:"playlistId" validate:"required"`
}

// UpdatePlaylistsInput adds or removes a publish across several playlists.
type UpdatePlaylistsInput struct {
	authenticity.Actor
	PublishID uuid.UUID        `json:"publishId" validate:"required"`
	Playlists []PlaylistStatus `json:"playlists" validate:"required,min=1,dive"`
}

// PlaylistInput addresses one playlist.
type PlaylistInput struct {
	authenticity.Actor
	PlaylistID uuid.UUID `json:"playlistId" validate:"required"`
}

// UpdateNameInput renames a playlist.
type UpdateNameInput struct {
	authenticity.Actor
	PlaylistID uuid.UUID `json:"playlistId" validate:"required"`
	Name       string    `json:"name" validate:"required"`
}

// UpdateDescriptionInput replaces a playlist description.
type UpdateDescriptionInput struct {
	authenticity.Actor
	PlaylistID  uuid.UUID `json:"playlistId" validate:"required"`
	Description string    `json:"description" validate:"required"`
}

// Service defines playlist operations.
type Service interface {
	FetchMyPlaylists(ctx context.Context, input FetchInput) (PlaylistsPage, error)
	CheckPublishPlaylists(ctx context.Context, input CheckPublishInput) (CheckPublishPlaylistsResult, error)
	FetchPreviewPlaylists(ctx context.Context, input FetchInput) (PreviewPlaylistsPage, error)
	FetchPlaylistItems(ctx context.Context, input FetchItemsInput) (PlaylistItemsPage, error)
	AddToNewPlaylist(ctx context.Context, input AddToNewPlaylistInput) error
	AddToPlaylist(ctx context.Context, input ItemInput) error
	UpdatePlaylists(ctx context.Context, input UpdatePlaylistsInput) error
	DeletePlaylist(ctx context.Context, input PlaylistInput) error
	UpdatePlaylistName(ctx context.Context, input UpdateNameInput) error
	UpdatePlaylistDescription(ctx context.Context, input UpdateDescriptionInput) error
	RemoveFromPlaylist(ctx context.Context, input ItemInput) error
	DeleteAllPlaylistItems(ctx context.Context, input PlaylistInput) error
}

type service struct {
	repo   *Repository
	tx     txRunner
	guard  *authenticity.Guard
	enrich *publishes.Enricher
}

// NewService wires playlist dependencies.
func NewService(repo *Repository, tx txRunner, guard *authenticity.Guard, enrich *publishes.Enricher) (Service, error) {
	switch {
	case repo == nil:
		return nil, errors.New("playlists repository required")
	case tx == nil:
		return nil, errors.New("transaction runner required")
	case guard == nil:
		return nil, errors.New("authenticity guard required")
	case enrich == nil:
		return nil, errors.New("publish enricher required")
	}
	return &service{repo: repo, tx: tx, guard: guard, enrich: enrich}, nil
}

func (s *service) FetchMyPlaylists(ctx context.Context, input FetchInput) (PlaylistsPage, error) {
	_, profile, err := s.guard.Profile(ctx, input.Actor)
	if err != nil {
		return PlaylistsPage{}, err
	}
	page, err := s.repo.ListByOwner(ctx, profile.ID, input.Cursor, ListQty)
	if err != nil {
		return PlaylistsPage{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list playlists")
	}
	return pagination.Map(page, ToDTO), nil
}

func (s *service) CheckPublishPlaylists(ctx context.Context, input CheckPublishInput) (CheckPublishPlaylistsResult, error) {
	if input.PublishID == uuid.Nil {
		return CheckPublishPlaylistsResult{}, pkgerrors.BadInput()
	}
	_, profile, err := s.guard.Profile(ctx, input.Actor)
	if err != nil {
		return CheckPublishPlaylistsResult{}, err
	}
	items, err := s.repo.ItemsForPublish(ctx, profile.ID, input.PublishID)
	if err != nil {
		return CheckPublishPlaylistsResult{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list playlist items")
	}
	saved, err := s.repo.InWatchLater(ctx, profile.ID, input.PublishID)
	if err != nil {
		return CheckPublishPlaylistsResult{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check watch later")
	}
	out := CheckPublishPlaylistsResult{
		Items:          make([]PlaylistItemDTO, 0, len(items)),
		IsInWatchLater: saved,
		PublishID:      input.PublishID,
	}
	for _, item := range items {
		out.Items = append(out.Items, ItemToDTO(item))
	}
	return out, nil
}

func (s *service) FetchPreviewPlaylists(ctx context.Context, input FetchInput) (PreviewPlaylistsPage, error) {
	_, profile, err := s.guard.Profile(ctx, input.Actor)
	if err != nil {
		return PreviewPlaylistsPage{}, err
	}
	page, err := s.repo.ListByOwner(ctx, profile.ID, input.Cursor, pagination.FetchQty)
	if err != nil {
		return PreviewPlaylistsPage{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list playlists")
	}
	ids := make([]uuid.UUID, 0, len(page.Edges))
	for _, edge := range page.Edges {
		ids = append(ids, edge.Node.ID)
	}
	counts, err := s.repo.ItemCounts(ctx, ids)
	if err != nil {
		return PreviewPlaylistsPage{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count playlist items")
	}
	last, err := s.repo.LastItems(ctx, ids)
	if err != nil {
		return PreviewPlaylistsPage{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load last playlist items")
	}

	var lastPublishes []models.Publish
	for _, id := range ids {
		if item, ok := last[id]; ok && item.Publish != nil {
			lastPublishes = append(lastPublishes, *item.Publish)
		}
	}
	described, err := s.enrich.Describe(ctx, lastPublishes, &profile.ID)
	if err != nil {
		return PreviewPlaylistsPage{}, err
	}
	byID := make(map[uuid.UUID]publishes.PublishDTO, len(described))
	for _, dto := range described {
		byID[dto.ID] = dto
	}

	return pagination.Map(page, func(p models.Playlist) PreviewPlaylistDTO {
		preview := PreviewPlaylistDTO{ID: p.ID, Name: p.Name, Count: counts[p.ID]}
		if item, ok := last[p.ID]; ok {
			if dto, ok := byID[item.PublishID]; ok {
				preview.LastItem = &dto
			}
		}
		return preview
	}), nil
}

func (s *service) FetchPlaylistItems(ctx context.Context, input FetchItemsInput) (PlaylistItemsPage, error) {
	if input.OrderBy != "" && !input.OrderBy.IsValid() {
		return PlaylistItemsPage{}, pkgerrors.BadInput()
	}
	profile, playlist, err := s.owned(ctx, input.Actor, input.PlaylistID)
	if err != nil {
		return PlaylistItemsPage{}, err
	}
	page, err := s.repo.ListItems(ctx, playlist.ID, input.OrderBy, input.Cursor)
	if err != nil {
		return PlaylistItemsPage{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list playlist items")
	}
	items, err := s.describeItems(ctx, page, profile.ID)
	if err != nil {
		return PlaylistItemsPage{}, err
	}
	return PlaylistItemsPage{
		PlaylistName:        playlist.Name,
		PlaylistDescription: playlist.Description,
		PageInfo:            items.PageInfo,
		Edges:               items.Edges,
	}, nil
}

func (s *service) describeItems(ctx context.Context, page pagination.Page[models.PlaylistItem], requestorID uuid.UUID) (pagination.Page[PlaylistItemDTO], error) {
	var list []models.Publish
	for _, item := range page.Nodes() {
		if item.Publish != nil {
			list = append(list, *item.Publish)
		}
	}
	described, err := s.enrich.Describe(ctx, list, &requestorID)
	if err != nil {
		return pagination.Page[PlaylistItemDTO]{}, err
	}
	byID := make(map[uuid.UUID]publishes.PublishDTO, len(described))
	for _, dto := range described {
		byID[dto.ID] = dto
	}
	return pagination.Map(page, func(item models.PlaylistItem) PlaylistItemDTO {
		out := ItemToDTO(item)
		if dto, ok := byID[item.PublishID]; ok {
			out.Publish = &dto
		}
		return out
	}), nil
}

func (s *service) AddToNewPlaylist(ctx context.Context, input AddToNewPlaylistInput) error {
	name := strings.TrimSpace(input.Name)
	if name == "" || input.PublishID == uuid.Nil {
		return pkgerrors.BadInput()
	}
	_, profile, err := s.guard.Profile(ctx, input.Actor)
	if err != nil {
		return err
	}
	if err := s.requirePublish(ctx, input.PublishID); err != nil {
		return err
	}
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		playlist, err := repo.UpsertByName(ctx, profile.ID, name)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upsert playlist")
		}
		if err := repo.AddItem(ctx, profile.ID, playlist.ID, input.PublishID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add playlist item")
		}
		if err := repo.Touch(ctx, playlist.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "touch playlist")
		}
		return nil
	})
}

func (s *service) AddToPlaylist(ctx context.Context, input ItemInput) error {
	if input.PublishID == uuid.Nil {
		return pkgerrors.BadInput()
	}
	profile, playlist, err := s.owned(ctx, input.Actor, input.PlaylistID)
	if err != nil {
		return err
	}
	if err := s.requirePublish(ctx, input.PublishID); err != nil {
		return err
	}
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.AddItem(ctx, profile.ID, playlist.ID, input.PublishID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add playlist item")
		}
		if err := repo.Touch(ctx, playlist.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "touch playlist")
		}
		return nil
	})
}

func (s *service) UpdatePlaylists(ctx context.Context, input UpdatePlaylistsInput) error {
	if input.PublishID == uuid.Nil || len(input.Playlists) == 0 {
		return pkgerrors.BadInput()
	}
	_, profile, err := s.guard.Profile(ctx, input.Actor)
	if err != nil {
		return err
	}

	ids := make([]uuid.UUID, 0, len(input.Playlists))
	for _, status := range input.Playlists {
		ids = append(ids, status.PlaylistID)
	}
	found, err := s.repo.FindByIDs(ctx, ids)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load playlists")
	}
	owners := make(map[uuid.UUID]uuid.UUID, len(found))
	for _, p := range found {
		owners[p.ID] = p.OwnerID
	}
	for _, id := range ids {
		owner, ok := owners[id]
		if !ok {
			return pkgerrors.New(pkgerrors.CodeNotFound, pkgerrors.MessageNotFound)
		}
		if owner != profile.ID {
			return pkgerrors.Unauthorized()
		}
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		for _, status := range input.Playlists {
			if !status.IsInPlaylist {
				if err := repo.RemoveItem(ctx, status.PlaylistID, input.PublishID); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove playlist item")
				}
				continue
			}
			if err := repo.AddItem(ctx, profile.ID, status.PlaylistID, input.PublishID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add playlist item")
			}
			if err := repo.Touch(ctx, status.PlaylistID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "touch playlist")
			}
		}
		return nil
	})
}

func (s *service) DeletePlaylist(ctx context.Context, input PlaylistInput) error {
	_, playlist, err := s.owned(ctx, input.Actor, input.PlaylistID)
	if err != nil {
		return err
	}
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Delete(ctx, playlist.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete playlist")
		}
		return nil
	})
}

func (s *service) UpdatePlaylistName(ctx context.Context, input UpdateNameInput) error {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return pkgerrors.BadInput()
	}
	_, playlist, err := s.owned(ctx, input.Actor, input.PlaylistID)
	if err != nil {
		return err
	}
	if err := s.repo.UpdateColumns(ctx, playlist.ID, map[string]any{"name": name}); err != nil {
		if db.IsUniqueViolation(err, "") {
			return pkgerrors.New(pkgerrors.CodeBadRequest, MessageNameExists)
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rename playlist")
	}
	return nil
}

func (s *service) UpdatePlaylistDescription(ctx context.Context, input UpdateDescriptionInput) error {
	if strings.TrimSpace(input.Description) == "" {
		return pkgerrors.BadInput()
	}
	_, playlist, err := s.owned(ctx, input.Actor, input.PlaylistID)
	if err != nil {
		return err
	}
	if err := s.repo.UpdateColumns(ctx, playlist.ID, map[string]any{"description": input.Description}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update playlist description")
	}
	return nil
}

func (s *service) RemoveFromPlaylist(ctx context.Context, input ItemInput) error {
	if input.PublishID == uuid.Nil {
		return pkgerrors.BadInput()
	}
	_, playlist, err := s.owned(ctx, input.Actor, input.PlaylistID)
	if err != nil {
		return err
	}
	if err := s.repo.RemoveItem(ctx, playlist.ID, input.PublishID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove playlist item")
	}
	return nil
}

func (s *service) DeleteAllPlaylistItems(ctx context.Context, input PlaylistInput) error {
	_, playlist, err := s.owned(ctx, input.Actor, input.PlaylistID)
	if err != nil {
		return err
	}
	if err := s.repo.RemoveAllItems(ctx, playlist.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "empty playlist")
	}
	return nil
}

// owned authenticates actor and loads a playlist the acting profile owns.
func (s *service) owned(ctx context.Context, actor authenticity.Actor, playlistID uuid.UUID) (*models.Profile, *models.Playlist, error) {
	if playlistID == uuid.Nil {
		return nil, nil, pkgerrors.BadInput()
	}
	_, profile, err := s.guard.Profile(ctx, actor)
	if err != nil {
		return nil, nil, err
	}
	playlist, err := s.repo.FindByID(ctx, playlistID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, pkgerrors.MessageNotFound)
		}
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load playlist")
	}
	if playlist.OwnerID != profile.ID {
		return nil, nil, pkgerrors.Unauthorized()
	}
	return profile, playlist, nil
}

func (s *service) requirePublish(ctx context.Context, publishID uuid.UUID) error {
	ok, err := s.repo.PublishExists(ctx, publishID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load publish")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, pkgerrors.MessageNotFound)
	}
	return nil
}
