package bookmarks

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/clipstream-backend/internal/authenticity"
	"github.com/angelmondragon/clipstream-backend/internal/publishes"
	"github.com/angelmondragon/clipstream-backend/pkg/db/models"
	"github.com/angelmondragon/clipstream-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/clipstream-backend/pkg/errors"
	"github.com/angelmondragon/clipstream-backend/pkg/pagination"
)

// BookmarkDTO is one bookmarked publish.
type BookmarkDTO struct {
	ID        uuid.UUID             `json:"id"`
	CreatedAt time.Time             `json:"createdAt"`
	ProfileID uuid.UUID             `json:"profileId"`
	PublishID uuid.UUID             `json:"publishId"`
	Publish   *publishes.PublishDTO `json:"publish"`
}

// BookmarksPage is a page of bookmarks.
type BookmarksPage = pagination.Page[BookmarkDTO]

// FetchInput pages the acting profile's bookmarks.
type FetchInput struct {
	authenticity.Actor
	Cursor  string                `json:"cursor"`
	OrderBy enums.PlaylistOrderBy `json:"orderBy"`
}

// BookmarkInput addresses one publish.
type BookmarkInput struct {
	authenticity.Actor
	PublishID uuid.UUID `json:"publishId" validate:"required"`
}

// RemoveAllInput clears the acting profile's bookmarks.
type RemoveAllInput struct {
	authenticity.Actor
}

// Service defines bookmark operations.
type Service interface {
	FetchPreviewBookmarks(ctx context.Context, input FetchInput) (BookmarksPage, error)
	FetchBookmarks(ctx context.Context, input FetchInput) (BookmarksPage, error)
	BookmarkPost(ctx context.Context, input BookmarkInput) error
	RemoveBookmark(ctx context.Context, input BookmarkInput) error
	RemoveAllBookmarks(ctx context.Context, input RemoveAllInput) error
}

type service struct {
	repo   *Repository
	guard  *authenticity.Guard
	enrich *publishes.Enricher
}

// NewService wires bookmark dependencies.
func NewService(repo *Repository, guard *authenticity.Guard, enrich *publishes.Enricher) (Service, error) {
	switch {
	case repo == nil:
		return nil, errors.New("bookmarks repository required")
	case guard == nil:
		return nil, errors.New("authenticity guard required")
	case enrich == nil:
		return nil, errors.New("publish enricher required")
	}
	return &service{repo: repo, guard: guard, enrich: enrich}, nil
}

func (s *service) FetchPreviewBookmarks(ctx context.Context, input FetchInput) (BookmarksPage, error) {
	page, err := s.list(ctx, input.Actor, false, "", pagination.PreviewQty)
	if err != nil {
		return BookmarksPage{}, err
	}
	return pagination.AsPreview(page), nil
}

func (s *service) FetchBookmarks(ctx context.Context, input FetchInput) (BookmarksPage, error) {
	if input.OrderBy != "" && !input.OrderBy.IsValid() {
		return BookmarksPage{}, pkgerrors.BadInput()
	}
	return s.list(ctx, input.Actor, input.OrderBy == enums.PlaylistOrderByOldest, input.Cursor, pagination.FetchQty)
}

func (s *service) list(ctx context.Context, actor authenticity.Actor, oldestFirst bool, cursor string, size int) (BookmarksPage, error) {
	_, profile, err := s.guard.Profile(ctx, actor)
	if err != nil {
		return BookmarksPage{}, err
	}
	page, err := s.repo.List(ctx, profile.ID, oldestFirst, cursor, size)
	if err != nil {
		return BookmarksPage{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list bookmarks")
	}
	var list []models.Publish
	for _, b := range page.Nodes() {
		if b.Publish != nil {
			list = append(list, *b.Publish)
		}
	}
	described, err := s.enrich.Describe(ctx, list, &profile.ID)
	if err != nil {
		return BookmarksPage{}, err
	}
	byID := make(map[uuid.UUID]publishes.PublishDTO, len(described))
	for _, dto := range described {
		byID[dto.ID] = dto
	}
	return pagination.Map(page, func(b models.Bookmark) BookmarkDTO {
		out := BookmarkDTO{ID: b.ID, CreatedAt: b.CreatedAt, ProfileID: b.ProfileID, PublishID: b.PublishID}
		if dto, ok := byID[b.PublishID]; ok {
			out.Publish = &dto
		}
		return out
	}), nil
}

func (s *service) BookmarkPost(ctx context.Context, input BookmarkInput) error {
	if input.PublishID == uuid.Nil {
		return pkgerrors.BadInput()
	}
	_, profile, err := s.guard.Profile(ctx, input.Actor)
	if err != nil {
		return err
	}
	ok, err := s.repo.PublishExists(ctx, input.PublishID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load publish")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, pkgerrors.MessageNotFound)
	}
	if _, err := s.repo.Toggle(ctx, profile.ID, input.PublishID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "toggle bookmark")
	}
	return nil
}

func (s *service) RemoveBookmark(ctx context.Context, input BookmarkInput) error {
	if input.PublishID == uuid.Nil {
		return pkgerrors.BadInput()
	}
	_, profile, err := s.guard.Profile(ctx, input.Actor)
	if err != nil {
		return err
	}
	if err := s.repo.Remove(ctx, profile.ID, input.PublishID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove bookmark")
	}
	return nil
}

func (s *service) RemoveAllBookmarks(ctx context.Context, input RemoveAllInput) error {
	_, profile, err := s.guard.Profile(ctx, input.Actor)
	if err != nil {
		return err
	}
	if err := s.repo.RemoveAll(ctx, profile.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove all bookmarks")
	}
	return nil
}
