package comments

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/clipstream-backend/internal/profiles"
	"github.com/angelmondragon/clipstream-backend/pkg/db/models"
	"github.com/angelmondragon/clipstream-backend/pkg/enums"
	"github.com/angelmondragon/clipstream-backend/pkg/pagination"
)

// CommentDTO is the public shape of a comment.
type CommentDTO struct {
	ID              uuid.UUID            `json:"id"`
	CreatedAt       time.Time            `json:"createdAt"`
	UpdatedAt       time.Time            `json:"updatedAt"`
	CreatorID       uuid.UUID            `json:"creatorId"`
	Creator         *profiles.ProfileDTO `json:"creator"`
	PublishID       uuid.UUID            `json:"publishId"`
	CommentID       *uuid.UUID           `json:"commentId"`
	CommentType     enums.CommentType    `json:"commentType"`
	Content         *string              `json:"content"`
	ContentBlog     json.RawMessage      `json:"contentBlog"`
	HTMLContentBlog *string              `json:"htmlContentBlog"`
	LikesCount      int64                `json:"likesCount"`
	DisLikesCount   int64                `json:"disLikesCount"`
	CommentsCount   int64                `json:"commentsCount"`
	Liked           *bool                `json:"liked"`
	DisLiked        *bool                `json:"disLiked"`
}

// CommentsPage is a page of comments.
type CommentsPage = pagination.Page[CommentDTO]

// ToDTO maps a comment without derived fields.
func ToDTO(c models.Comment) CommentDTO {
	dto := CommentDTO{
		ID:              c.ID,
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
		CreatorID:       c.CreatorID,
		PublishID:       c.PublishID,
		CommentID:       c.CommentID,
		CommentType:     c.CommentType,
		Content:         c.Content,
		ContentBlog:     c.ContentBlog,
		HTMLContentBlog: c.HTMLContentBlog,
	}
	if c.Creator != nil {
		creator := profiles.ToDTO(*c.Creator)
		dto.Creator = &creator
	}
	return dto
}
