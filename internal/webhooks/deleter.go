package webhooks

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/clipstream-backend/internal/publishes"
	pkgerrors "github.com/angelmondragon/clipstream-backend/pkg/errors"
)

type announcer interface {
	Announce(ctx context.Context, id string) error
}

// Deleter hard-deletes a publish once its media is gone and tells the
// deletion topic about it.
type Deleter struct {
	repo     *publishes.Repository
	deletion announcer
}

func NewDeleter(repo *publishes.Repository, deletion announcer) (*Deleter, error) {
	if repo == nil {
		return nil, errors.New("publishes repository required")
	}
	if deletion == nil {
		return nil, errors.New("deletion announcer required")
	}
	return &Deleter{repo: repo, deletion: deletion}, nil
}

// DeletePublish removes the publish and its dependent rows.
func (d *Deleter) DeletePublish(ctx context.Context, publishID uuid.UUID) error {
	if publishID == uuid.Nil {
		return pkgerrors.BadInput()
	}
	if _, err := d.repo.FindByID(ctx, publishID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, pkgerrors.MessageNotFound)
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load publish")
	}
	if err := d.repo.Delete(ctx, publishID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete publish")
	}
	_ = d.deletion.Announce(ctx, publishID.String())
	return nil
}
