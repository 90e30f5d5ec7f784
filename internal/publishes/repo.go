package publishes

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/clipstream-backend/pkg/db/models"
	"github.com/angelmondragon/clipstream-backend/pkg/enums"
	"github.com/angelmondragon/clipstream-backend/pkg/pagination"
)

// likesCountExpr orders by the number of likes of the row.
const likesCountExpr = "(SELECT COUNT(*) FROM likes WHERE likes.publish_id = publishes.id)"

// Repository handles publish persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to publish operations.
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

// Query starts a filtered listing on the publishes table.
func (r *Repository) Query(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Publish{})
}

// FindByID loads a publish with its creator, playback and blog.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Publish, error) {
	var publish models.Publish
	if err := r.db.WithContext(ctx).
		Preload("Creator").
		Preload("Playback").
		Preload("Blog").
		Where("id = ?", id).
		First(&publish).Error; err != nil {
		return nil, err
	}
	return &publish, nil
}

// Create persists a new publish.
func (r *Repository) Create(ctx context.Context, publish *models.Publish) error {
	return r.db.WithContext(ctx).Create(publish).Error
}

// UpdateColumns applies updates to the publish row.
func (r *Repository) UpdateColumns(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).Model(&models.Publish{}).Where("id = ?", id).Updates(updates).Error
}

// Delete removes the publish. Dependent rows cascade.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Publish{}).Error
}

// IncrementViews adds one view and returns the new total.
func (r *Repository) IncrementViews(ctx context.Context, id uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Publish{}).
		Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + 1"))
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected == 0 {
		return 0, gorm.ErrRecordNotFound
	}
	var views int64
	err := r.db.WithContext(ctx).Model(&models.Publish{}).Where("id = ?", id).Pluck("views", &views).Error
	return views, err
}

// ToggleLike likes the publish or removes an existing like. A new like
// removes the profile's dislike.
func (r *Repository) ToggleLike(ctx context.Context, profileID, publishID uuid.UUID) (bool, error) {
	return toggle(ctx, r.db, &models.Like{ProfileID: profileID, PublishID: publishID}, &models.Like{}, &models.Dislike{}, profileID, publishID)
}

// ToggleDislike dislikes the publish or removes an existing dislike. A new
// dislike removes the profile's like.
func (r *Repository) ToggleDislike(ctx context.Context, profileID, publishID uuid.UUID) (bool, error) {
	return toggle(ctx, r.db, &models.Dislike{ProfileID: profileID, PublishID: publishID}, &models.Dislike{}, &models.Like{}, profileID, publishID)
}

// toggle inserts edge unless the (profile, publish) pair exists, in which
// case the existing row of the same model is deleted. The unique key
// decides the branch. same and opposite are empty models.
func toggle(ctx context.Context, db *gorm.DB, edge, same, opposite any, profileID, publishID uuid.UUID) (bool, error) {
	result := db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(edge)
	if result.Error != nil {
		return false, result.Error
	}
	where := db.WithContext(ctx).Where("profile_id = ? AND publish_id = ?", profileID, publishID)
	if result.RowsAffected == 0 {
		return false, where.Delete(same).Error
	}
	return true, where.Delete(opposite).Error
}

// FindBlog loads the blog body of a publish.
func (r *Repository) FindBlog(ctx context.Context, publishID uuid.UUID) (*models.Blog, error) {
	var blog models.Blog
	if err := r.db.WithContext(ctx).Where("publish_id = ?", publishID).First(&blog).Error; err != nil {
		return nil, err
	}
	return &blog, nil
}

// CreateBlog persists a blog body.
func (r *Repository) CreateBlog(ctx context.Context, blog *models.Blog) error {
	return r.db.WithContext(ctx).Create(blog).Error
}

// UpdateBlog applies updates to the blog body of a publish.
func (r *Repository) UpdateBlog(ctx context.Context, publishID uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).Model(&models.Blog{}).Where("publish_id = ?", publishID).Updates(updates).Error
}

// CreateTip records a settled tip.
func (r *Repository) CreateTip(ctx context.Context, tip *models.Tip) error {
	return r.db.WithContext(ctx).Create(tip).Error
}

// FindProfile loads a profile by id.
func (r *Repository) FindProfile(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	var profile models.Profile
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

// Page fetches one page of query ordered by orderBy.
func (r *Repository) Page(ctx context.Context, query *gorm.DB, orderBy enums.PublishOrderBy, cursor string) (pagination.Page[models.Publish], error) {
	return pagination.Fetch(ctx, query, pagination.Spec[models.Publish]{
		Table:    "publishes",
		Order:    Ordering(orderBy),
		Cursor:   cursor,
		Key:      func(p models.Publish) string { return p.ID.String() },
		Preloads: []string{"Creator", "Playback", "Blog"},
	})
}

// Ordering returns the listing order for orderBy. Popular ranks by views,
// then likes, then recency.
func Ordering(orderBy enums.PublishOrderBy) pagination.Order {
	if orderBy == enums.PublishOrderByPopular {
		return pagination.Order{
			pagination.Desc("publishes.views"),
			pagination.Desc(likesCountExpr),
			pagination.Desc("publishes.created_at"),
			pagination.Desc("publishes.id"),
		}
	}
	return pagination.Order{
		pagination.Desc("publishes.created_at"),
		pagination.Desc("publishes.id"),
	}
}

// Counts are the derived counters of one publish.
type Counts struct {
	Likes    int64
	Dislikes int64
	Comments int64
	Tips     int64
}

// Counts loads the derived counters of ids in four grouped queries.
func (r *Repository) Counts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]Counts, error) {
	out := make(map[uuid.UUID]Counts, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	type row struct {
		PublishID uuid.UUID
		Total     int64
	}
	load := func(model any, scope func(*gorm.DB) *gorm.DB, set func(*Counts, int64)) error {
		var rows []row
		q := r.db.WithContext(ctx).Model(model).
			Select("publish_id, COUNT(*) AS total").
			Where("publish_id IN ?", ids)
		if scope != nil {
			q = scope(q)
		}
		if err := q.Group("publish_id").Scan(&rows).Error; err != nil {
			return err
		}
		for _, rw := range rows {
			c := out[rw.PublishID]
			set(&c, rw.Total)
			out[rw.PublishID] = c
		}
		return nil
	}
	if err := load(&models.Like{}, nil, func(c *Counts, n int64) { c.Likes = n }); err != nil {
		return nil, err
	}
	if err := load(&models.Dislike{}, nil, func(c *Counts, n int64) { c.Dislikes = n }); err != nil {
		return nil, err
	}
	topLevel := func(q *gorm.DB) *gorm.DB { return q.Where("comment_type = ?", enums.CommentTypePublish) }
	if err := load(&models.Comment{}, topLevel, func(c *Counts, n int64) { c.Comments = n }); err != nil {
		return nil, err
	}
	if err := load(&models.Tip{}, nil, func(c *Counts, n int64) { c.Tips = n }); err != nil {
		return nil, err
	}
	return out, nil
}

// Flags are the requestor's relations to one publish.
type Flags struct {
	Liked      bool
	Disliked   bool
	Bookmarked bool
}

// Flags loads the requestor's likes, dislikes and bookmarks among ids.
func (r *Repository) Flags(ctx context.Context, requestorID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]Flags, error) {
	out := make(map[uuid.UUID]Flags, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	load := func(model any, set func(*Flags)) error {
		var hits []uuid.UUID
		if err := r.db.WithContext(ctx).Model(model).
			Where("profile_id = ? AND publish_id IN ?", requestorID, ids).
			Pluck("publish_id", &hits).Error; err != nil {
			return err
		}
		for _, id := range hits {
			f := out[id]
			set(&f)
			out[id] = f
		}
		return nil
	}
	if err := load(&models.Like{}, func(f *Flags) { f.Liked = true }); err != nil {
		return nil, err
	}
	if err := load(&models.Dislike{}, func(f *Flags) { f.Disliked = true }); err != nil {
		return nil, err
	}
	if err := load(&models.Bookmark{}, func(f *Flags) { f.Bookmarked = true }); err != nil {
		return nil, err
	}
	return out, nil
}
