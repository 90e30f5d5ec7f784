package comments

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/clipstream-backend/pkg/db/models"
	"github.com/angelmondragon/clipstream-backend/pkg/enums"
	"github.com/angelmondragon/clipstream-backend/pkg/pagination"
)

// repliesCountExpr orders by the number of direct replies of the row.
const repliesCountExpr = "(SELECT COUNT(*) FROM comments AS replies WHERE replies.comment_id = comments.id)"

// Repository handles comment persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to comment operations.
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

// FindByID loads a comment.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Comment, error) {
	var comment models.Comment
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&comment).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

// FindPublish loads the publish a comment targets.
func (r *Repository) FindPublish(ctx context.Context, id uuid.UUID) (*models.Publish, error) {
	var publish models.Publish
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&publish).Error; err != nil {
		return nil, err
	}
	return &publish, nil
}

// Create persists a comment.
func (r *Repository) Create(ctx context.Context, comment *models.Comment) error {
	return r.db.WithContext(ctx).Create(comment).Error
}

// Delete removes a comment. Replies and reactions cascade.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Comment{}).Error
}

// ToggleLike likes the comment or removes an existing like. A new like
// removes the profile's dislike.
func (r *Repository) ToggleLike(ctx context.Context, profileID, commentID uuid.UUID) (bool, error) {
	return r.toggle(ctx, &models.CommentLike{ProfileID: profileID, CommentID: commentID}, &models.CommentLike{}, &models.CommentDislike{}, profileID, commentID)
}

// ToggleDislike dislikes the comment or removes an existing dislike. A new
// dislike removes the profile's like.
func (r *Repository) ToggleDislike(ctx context.Context, profileID, commentID uuid.UUID) (bool, error) {
	return r.toggle(ctx, &models.CommentDislike{ProfileID: profileID, CommentID: commentID}, &models.CommentDislike{}, &models.CommentLike{}, profileID, commentID)
}

func (r *Repository) toggle(ctx context.Context, edge, same, opposite any, profileID, commentID uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(edge)
	if result.Error != nil {
		return false, result.Error
	}
	where := r.db.WithContext(ctx).Where("profile_id = ? AND comment_id = ?", profileID, commentID)
	if result.RowsAffected == 0 {
		return false, where.Delete(same).Error
	}
	return true, where.Delete(opposite).Error
}

// ListByPublish pages the top-level comments of a publish.
func (r *Repository) ListByPublish(ctx context.Context, publishID uuid.UUID, orderBy enums.CommentsOrderBy, cursor string) (pagination.Page[models.Comment], error) {
	q := r.db.WithContext(ctx).Model(&models.Comment{}).
		Where("comments.publish_id = ? AND comments.comment_type = ?", publishID, enums.CommentTypePublish)
	return r.page(ctx, q, ordering(orderBy), cursor)
}

// ListReplies pages the direct replies of a comment, newest first.
func (r *Repository) ListReplies(ctx context.Context, commentID uuid.UUID, cursor string) (pagination.Page[models.Comment], error) {
	q := r.db.WithContext(ctx).Model(&models.Comment{}).
		Where("comments.comment_id = ? AND comments.comment_type = ?", commentID, enums.CommentTypeComment)
	return r.page(ctx, q, ordering(enums.CommentsOrderByNewest), cursor)
}

func (r *Repository) page(ctx context.Context, q *gorm.DB, order pagination.Order, cursor string) (pagination.Page[models.Comment], error) {
	return pagination.Fetch(ctx, q, pagination.Spec[models.Comment]{
		Table:     "comments",
		Order:     order,
		Cursor:    cursor,
		Key:       func(c models.Comment) string { return c.ID.String() },
		WithCount: true,
		Preloads:  []string{"Creator"},
	})
}

// ordering ranks by reply count unless newest is requested.
func ordering(orderBy enums.CommentsOrderBy) pagination.Order {
	if orderBy == enums.CommentsOrderByNewest {
		return pagination.Order{
			pagination.Desc("comments.created_at"),
			pagination.Desc("comments.id"),
		}
	}
	return pagination.Order{
		pagination.Desc(repliesCountExpr),
		pagination.Desc("comments.created_at"),
		pagination.Desc("comments.id"),
	}
}

// Counts are the derived counters of one comment.
type Counts struct {
	Likes    int64
	Dislikes int64
	Replies  int64
}

// Counts loads the counters of ids in three grouped queries.
func (r *Repository) Counts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]Counts, error) {
	out := make(map[uuid.UUID]Counts, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	type row struct {
		CommentID uuid.UUID
		Total     int64
	}
	load := func(model any, set func(*Counts, int64)) error {
		var rows []row
		if err := r.db.WithContext(ctx).Model(model).
			Select("comment_id, COUNT(*) AS total").
			Where("comment_id IN ?", ids).
			Group("comment_id").
			Scan(&rows).Error; err != nil {
			return err
		}
		for _, rw := range rows {
			c := out[rw.CommentID]
			set(&c, rw.Total)
			out[rw.CommentID] = c
		}
		return nil
	}
	if err := load(&models.CommentLike{}, func(c *Counts, n int64) { c.Likes = n }); err != nil {
		return nil, err
	}
	if err := load(&models.CommentDislike{}, func(c *Counts, n int64) { c.Dislikes = n }); err != nil {
		return nil, err
	}
	if err := load(&models.Comment{}, func(c *Counts, n int64) { c.Replies = n }); err != nil {
		return nil, err
	}
	return out, nil
}

// Flags are the requestor's reactions to one comment.
type Flags struct {
	Liked    bool
	Disliked bool
}

// Flags loads the requestor's likes and dislikes among ids.
func (r *Repository) Flags(ctx context.Context, requestorID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]Flags, error) {
	out := make(map[uuid.UUID]Flags, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var liked, disliked []uuid.UUID
	if err := r.db.WithContext(ctx).Model(&models.CommentLike{}).
		Where("profile_id = ? AND comment_id IN ?", requestorID, ids).
		Pluck("comment_id", &liked).Error; err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Model(&models.CommentDislike{}).
		Where("profile_id = ? AND comment_id IN ?", requestorID, ids).
		Pluck("comment_id", &disliked).Error; err != nil {
		return nil, err
	}
	for _, id := range liked {
		f := out[id]
		f.Liked = true
		out[id] = f
	}
	for _, id := range disliked {
		f := out[id]
		f.Disliked = true
		out[id] = f
	}
	return out, nil
}
