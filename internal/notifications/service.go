package notifications

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/angelmondragon/clipstream-backend/internal/authenticity"
	pkgerrors "github.com/angelmondragon/clipstream-backend/pkg/errors"
	"github.com/angelmondragon/clipstream-backend/pkg/pagination"
)

// FetchInput selects a page of the acting profile's notifications.
type FetchInput struct {
	authenticity.Actor
	Cursor string `json:"cursor"`
}

// UpdateStatusInput marks notifications of the acting profile as read.
type UpdateStatusInput struct {
	authenticity.Actor
	IDs []uuid.UUID `json:"ids" validate:"required,min=1"`
}

// Service defines notification list/read operations.
type Service interface {
	FetchMyNotifications(ctx context.Context, input FetchInput) (NotificationsPageDTO, error)
	UpdateNotificationsStatus(ctx context.Context, input UpdateStatusInput) error
}

type service struct {
	repo  *Repository
	guard *authenticity.Guard
}

// NewService wires notifications dependencies.
func NewService(repo *Repository, guard *authenticity.Guard) (Service, error) {
	if repo == nil {
		return nil, errors.New("notifications repository required")
	}
	if guard == nil {
		return nil, errors.New("authenticity guard required")
	}
	return &service{repo: repo, guard: guard}, nil
}

func (s *service) FetchMyNotifications(ctx context.Context, input FetchInput) (NotificationsPageDTO, error) {
	_, profile, err := s.guard.Profile(ctx, input.Actor)
	if err != nil {
		return NotificationsPageDTO{}, err
	}

	page, err := s.repo.ListForReceiver(ctx, profile.ID, input.Cursor)
	if err != nil {
		return NotificationsPageDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list notifications")
	}
	unread, err := s.repo.CountUnread(ctx, profile.ID)
	if err != nil {
		return NotificationsPageDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count unread notifications")
	}

	mapped := pagination.Map(page, ToDTO)
	return NotificationsPageDTO{
		PageInfo: mapped.PageInfo,
		Unread:   unread,
		Edges:    mapped.Edges,
	}, nil
}

func (s *service) UpdateNotificationsStatus(ctx context.Context, input UpdateStatusInput) error {
	if len(input.IDs) == 0 {
		return pkgerrors.BadInput()
	}
	_, profile, err := s.guard.Profile(ctx, input.Actor)
	if err != nil {
		return err
	}
	if _, err := s.repo.MarkRead(ctx, profile.ID, input.IDs); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notifications read")
	}
	return nil
}
