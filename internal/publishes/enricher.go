package publishes

import (
	"context"

	"github.com/google/uuid"

	"github.com/angelmondragon/clipstream-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/clipstream-backend/pkg/errors"
	"github.com/angelmondragon/clipstream-backend/pkg/pagination"
)

// Enricher fills the derived fields of publishes listed anywhere in the API.
type Enricher struct {
	repo *Repository
}

// NewEnricher binds an enricher to repo.
func NewEnricher(repo *Repository) *Enricher {
	return &Enricher{repo: repo}
}

// Describe maps publishes to DTOs with their counters and, when requestorID
// is set, the requestor's flags. Without a requestor the flags stay nil.
func (e *Enricher) Describe(ctx context.Context, list []models.Publish, requestorID *uuid.UUID) ([]PublishDTO, error) {
	out := make([]PublishDTO, 0, len(list))
	if len(list) == 0 {
		return out, nil
	}
	ids := make([]uuid.UUID, 0, len(list))
	for _, p := range list {
		ids = append(ids, p.ID)
	}
	counts, err := e.repo.Counts(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count publish relations")
	}
	var flags map[uuid.UUID]Flags
	withFlags := requestorID != nil && *requestorID != uuid.Nil
	if withFlags {
		if flags, err = e.repo.Flags(ctx, *requestorID, ids); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load publish flags")
		}
	}
	for _, p := range list {
		dto := ToDTO(p)
		c := counts[p.ID]
		dto.LikesCount = c.Likes
		dto.DisLikesCount = c.Dislikes
		dto.CommentsCount = c.Comments
		dto.TipsCount = c.Tips
		if withFlags {
			f := flags[p.ID]
			dto.Liked = &f.Liked
			dto.DisLiked = &f.Disliked
			dto.Bookmarked = &f.Bookmarked
		}
		out = append(out, dto)
	}
	return out, nil
}

// One describes a single publish.
func (e *Enricher) One(ctx context.Context, publish models.Publish, requestorID *uuid.UUID) (PublishDTO, error) {
	list, err := e.Describe(ctx, []models.Publish{publish}, requestorID)
	if err != nil {
		return PublishDTO{}, err
	}
	return list[0], nil
}

// Page describes every node of page, keeping cursors and page info.
func (e *Enricher) Page(ctx context.Context, page pagination.Page[models.Publish], requestorID *uuid.UUID) (PublishesPage, error) {
	dtos, err := e.Describe(ctx, page.Nodes(), requestorID)
	if err != nil {
		return PublishesPage{}, err
	}
	out := PublishesPage{PageInfo: page.PageInfo, Edges: make([]pagination.Edge[PublishDTO], 0, len(dtos))}
	for i, dto := range dtos {
		out.Edges = append(out.Edges, pagination.Edge[PublishDTO]{Cursor: page.Edges[i].Cursor, Node: dto})
	}
	return out, nil
}
