package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/clipstream-backend/pkg/enums"
)

// Comment is a node in the comment tree of a publish. Replies point at their
// parent through CommentID.
type Comment struct {
	ID              uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	CreatorID       uuid.UUID         `gorm:"column:creator_id;type:uuid;not null;index"`
	Creator         *Profile          `gorm:"foreignKey:CreatorID"`
	PublishID       uuid.UUID         `gorm:"column:publish_id;type:uuid;not null;index"`
	CommentID       *uuid.UUID        `gorm:"column:comment_id;type:uuid;index"`
	CommentType     enums.CommentType `gorm:"column:comment_type;type:text;not null"`
	Content         *string           `gorm:"column:content;type:text"`
	ContentBlog     json.RawMessage   `gorm:"column:content_blog;type:jsonb"`
	HTMLContentBlog *string           `gorm:"column:html_content_blog;type:text"`
	CreatedAt       time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *Comment) BeforeCreate(*gorm.DB) error {
	ensureID(&c.ID)
	return nil
}

// CommentLike marks a comment as liked by a profile.
type CommentLike struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	ProfileID uuid.UUID `gorm:"column:profile_id;type:uuid;not null;uniqueIndex:comment_likes_profile_comment_key"`
	CommentID uuid.UUID `gorm:"column:comment_id;type:uuid;not null;uniqueIndex:comment_likes_profile_comment_key;index"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (c *CommentLike) BeforeCreate(*gorm.DB) error {
	ensureID(&c.ID)
	return nil
}

// CommentDislike marks a comment as disliked by a profile.
type CommentDislike struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	ProfileID uuid.UUID `gorm:"column:profile_id;type:uuid;not null;uniqueIndex:comment_dislikes_profile_comment_key"`
	CommentID uuid.UUID `gorm:"column:comment_id;type:uuid;not null;uniqueIndex:comment_dislikes_profile_comment_key;index"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (c *CommentDislike) BeforeCreate(*gorm.DB) error {
	ensureID(&c.ID)
	return nil
}
