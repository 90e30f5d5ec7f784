package watchlater

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/clipstream-backend/internal/authenticity"
	"github.com/angelmondragon/clipstream-backend/internal/publishes"
	"github.com/angelmondragon/clipstream-backend/pkg/db/models"
	"github.com/angelmondragon/clipstream-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/clipstream-backend/pkg/errors"
	"github.com/angelmondragon/clipstream-backend/pkg/pagination"
)

// WatchLaterDTO is one saved publish.
type WatchLaterDTO struct {
	ID        uuid.UUID             `json:"id"`
	CreatedAt time.Time             `json:"createdAt"`
	ProfileID uuid.UUID             `json:"profileId"`
	PublishID uuid.UUID             `json:"publishId"`
	Publish   *publishes.PublishDTO `json:"publish"`
}

// WatchLaterPage is a page of saved publishes.
type WatchLaterPage = pagination.Page[WatchLaterDTO]

// FetchInput pages the acting profile's watch-later list.
type FetchInput struct {
	authenticity.Actor
	Cursor  string                `json:"cursor"`
	OrderBy enums.PlaylistOrderBy `json:"orderBy"`
}

// AddInput saves a publish.
type AddInput struct {
	authenticity.Actor
	PublishID uuid.UUID `json:"publishId" validate:"required"`
}

// RemoveInput drops a publish, or the entry ID when set.
type RemoveInput struct {
	authenticity.Actor
	PublishID uuid.UUID  `json:"publishId" validate:"required"`
	ID        *uuid.UUID `json:"id"`
}

// RemoveAllInput empties the list.
type RemoveAllInput struct {
	authenticity.Actor
}

// Service defines watch-later operations.
type Service interface {
	FetchPreviewWatchLater(ctx context.Context, input FetchInput) (WatchLaterPage, error)
	FetchWatchLater(ctx context.Context, input FetchInput) (WatchLaterPage, error)
	AddToWatchLater(ctx context.Context, input AddInput) error
	RemoveFromWatchLater(ctx context.Context, input RemoveInput) error
	RemoveAllWatchLater(ctx context.Context, input RemoveAllInput) error
}

type service struct {
	repo   *Repository
	guard  *authenticity.Guard
	enrich *publishes.Enricher
}

// NewService wires watch-later dependencies.
func NewService(repo *Repository, guard *authenticity.Guard, enrich *publishes.Enricher) (Service, error) {
	switch {
	case repo == nil:
		return nil, errors.New("watch later repository required")
	case guard == nil:
		return nil, errors.New("authenticity guard required")
	case enrich == nil:
		return nil, errors.New("publish enricher required")
	}
	return &service{repo: repo, guard: guard, enrich: enrich}, nil
}

func (s *service) FetchPreviewWatchLater(ctx context.Context, input FetchInput) (WatchLaterPage, error) {
	page, err := s.list(ctx, input.Actor, false, "", pagination.PreviewQty)
	if err != nil {
		return WatchLaterPage{}, err
	}
	return pagination.AsPreview(page), nil
}

func (s *service) FetchWatchLater(ctx context.Context, input FetchInput) (WatchLaterPage, error) {
	if input.OrderBy != "" && !input.OrderBy.IsValid() {
		return WatchLaterPage{}, pkgerrors.BadInput()
	}
	return s.list(ctx, input.Actor, input.OrderBy == enums.PlaylistOrderByOldest, input.Cursor, pagination.FetchQty)
}

func (s *service) list(ctx context.Context, actor authenticity.Actor, oldestFirst bool, cursor string, size int) (WatchLaterPage, error) {
	_, profile, err := s.guard.Profile(ctx, actor)
	if err != nil {
		return WatchLaterPage{}, err
	}
	page, err := s.repo.List(ctx, profile.ID, oldestFirst, cursor, size)
	if err != nil {
		return WatchLaterPage{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list watch later")
	}
	var list []models.Publish
	for _, item := range page.Nodes() {
		if item.Publish != nil {
			list = append(list, *item.Publish)
		}
	}
	described, err := s.enrich.Describe(ctx, list, &profile.ID)
	if err != nil {
		return WatchLaterPage{}, err
	}
	byID := make(map[uuid.UUID]publishes.PublishDTO, len(described))
	for _, dto := range described {
		byID[dto.ID] = dto
	}
	return pagination.Map(page, func(w models.WatchLater) WatchLaterDTO {
		out := WatchLaterDTO{ID: w.ID, CreatedAt: w.CreatedAt, ProfileID: w.ProfileID, PublishID: w.PublishID}
		if dto, ok := byID[w.PublishID]; ok {
			out.Publish = &dto
		}
		return out
	}), nil
}

func (s *service) AddToWatchLater(ctx context.Context, input AddInput) error {
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
	if err := s.repo.Add(ctx, profile.ID, input.PublishID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add watch later")
	}
	return nil
}

func (s *service) RemoveFromWatchLater(ctx context.Context, input RemoveInput) error {
	if input.PublishID == uuid.Nil {
		return pkgerrors.BadInput()
	}
	_, profile, err := s.guard.Profile(ctx, input.Actor)
	if err != nil {
		return err
	}
	if input.ID == nil {
		if err := s.repo.Remove(ctx, profile.ID, input.PublishID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove watch later")
		}
		return nil
	}
	item, err := s.repo.FindByID(ctx, *input.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, pkgerrors.MessageNotFound)
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load watch later")
	}
	if item.ProfileID != profile.ID {
		return pkgerrors.Unauthorized()
	}
	if err := s.repo.RemoveByID(ctx, item.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove watch later")
	}
	return nil
}

func (s *service) RemoveAllWatchLater(ctx context.Context, input RemoveAllInput) error {
	_, profile, err := s.guard.Profile(ctx, input.Actor)
	if err != nil {
		return err
	}
	if err := s.repo.RemoveAll(ctx, profile.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove all watch later")
	}
	return nil
}
