package reports

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/angelmondragon/clipstream-backend/internal/authenticity"
	"github.com/angelmondragon/clipstream-backend/pkg/db/models"
	"github.com/angelmondragon/clipstream-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/clipstream-backend/pkg/errors"
)

// ReportInput files a report against a publish.
type ReportInput struct {
	authenticity.Actor
	PublishID uuid.UUID          `json:"publishId" validate:"required"`
	Reason    enums.ReportReason `json:"reason" validate:"required"`
}

// Service defines report operations.
type Service interface {
	ReportPublish(ctx context.Context, input ReportInput) error
}

type service struct {
	repo  *Repository
	guard *authenticity.Guard
}

// NewService wires report dependencies.
func NewService(repo *Repository, guard *authenticity.Guard) (Service, error) {
	if repo == nil {
		return nil, errors.New("reports repository required")
	}
	if guard == nil {
		return nil, errors.New("authenticity guard required")
	}
	return &service{repo: repo, guard: guard}, nil
}

func (s *service) ReportPublish(ctx context.Context, input ReportInput) error {
	if input.PublishID == uuid.Nil || !input.Reason.IsValid() {
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
	report := models.Report{SubmittedByID: profile.ID, PublishID: input.PublishID, Reason: input.Reason}
	if err := s.repo.Upsert(ctx, &report); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "file report")
	}
	return nil
}
