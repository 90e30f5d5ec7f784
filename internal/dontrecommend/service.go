package dontrecommend

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/clipstream-backend/internal/authenticity"
	"github.com/angelmondragon/clipstream-backend/internal/profiles"
	"github.com/angelmondragon/clipstream-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/clipstream-backend/pkg/errors"
	"github.com/angelmondragon/clipstream-backend/pkg/pagination"
)

// DontRecommendDTO is one hidden profile.
type DontRecommendDTO struct {
	ID          uuid.UUID            `json:"id"`
	CreatedAt   time.Time            `json:"createdAt"`
	RequestorID uuid.UUID            `json:"requestorId"`
	TargetID    uuid.UUID            `json:"targetId"`
	Target      *profiles.ProfileDTO `json:"target"`
}

// DontRecommendsPage is a page of hidden profiles.
type DontRecommendsPage = pagination.Page[DontRecommendDTO]

// FetchInput pages the requestor's hidden profiles.
type FetchInput struct {
	Owner       string    `json:"owner" validate:"required"`
	AccountID   uuid.UUID `json:"accountId" validate:"required"`
	RequestorID uuid.UUID `json:"requestorId" validate:"required"`
	Cursor      string    `json:"cursor"`
}

// Actor converts the input to the common actor shape.
func (in FetchInput) Actor() authenticity.Actor {
	return authenticity.Actor{Owner: in.Owner, AccountID: in.AccountID, ProfileID: in.RequestorID}
}

// TargetInput addresses one target profile.
type TargetInput struct {
	authenticity.Actor
	TargetID uuid.UUID `json:"targetId" validate:"required"`
}

// Service defines don't-recommend operations.
type Service interface {
	FetchDontRecommends(ctx context.Context, input FetchInput) (DontRecommendsPage, error)
	DontRecommend(ctx context.Context, input TargetInput) error
	RemoveDontRecommend(ctx context.Context, input TargetInput) error
}

type service struct {
	repo  *Repository
	guard *authenticity.Guard
}

// NewService wires don't-recommend dependencies.
func NewService(repo *Repository, guard *authenticity.Guard) (Service, error) {
	if repo == nil {
		return nil, errors.New("dont recommend repository required")
	}
	if guard == nil {
		return nil, errors.New("authenticity guard required")
	}
	return &service{repo: repo, guard: guard}, nil
}

func (s *service) FetchDontRecommends(ctx context.Context, input FetchInput) (DontRecommendsPage, error) {
	_, profile, err := s.guard.Profile(ctx, input.Actor())
	if err != nil {
		return DontRecommendsPage{}, err
	}
	page, err := s.repo.List(ctx, profile.ID, input.Cursor)
	if err != nil {
		return DontRecommendsPage{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list dont recommends")
	}
	return pagination.Map(page, func(d models.DontRecommend) DontRecommendDTO {
		out := DontRecommendDTO{ID: d.ID, CreatedAt: d.CreatedAt, RequestorID: d.RequestorID, TargetID: d.TargetID}
		if d.Target != nil {
			target := profiles.ToDTO(*d.Target)
			out.Target = &target
		}
		return out
	}), nil
}

func (s *service) DontRecommend(ctx context.Context, input TargetInput) error {
	if input.TargetID == uuid.Nil {
		return pkgerrors.BadInput()
	}
	_, profile, err := s.guard.Profile(ctx, input.Actor)
	if err != nil {
		return err
	}
	if profile.ID == input.TargetID {
		return pkgerrors.New(pkgerrors.CodeBadRequest, "Bad request")
	}
	if _, err := s.guard.LoadProfile(ctx, input.TargetID); err != nil {
		return err
	}
	if err := s.repo.Add(ctx, profile.ID, input.TargetID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add dont recommend")
	}
	return nil
}

func (s *service) RemoveDontRecommend(ctx context.Context, input TargetInput) error {
	if input.TargetID == uuid.Nil {
		return pkgerrors.BadInput()
	}
	_, profile, err := s.guard.Profile(ctx, input.Actor)
	if err != nil {
		return err
	}
	if err := s.repo.Remove(ctx, profile.ID, input.TargetID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove dont recommend")
	}
	return nil
}
