package publishes

import (
	"encoding/json"

	"github.com/google/uuid"

	"github.com/angelmondragon/clipstream-backend/internal/authenticity"
	"github.com/angelmondragon/clipstream-backend/pkg/enums"
)

// QueryByIDInput reads one publish.
type QueryByIDInput struct {
	TargetID    uuid.UUID  `json:"targetId" validate:"required"`
	RequestorID *uuid.UUID `json:"requestorId"`
}

// FetchMyPublishesInput lists every publish of the acting creator,
// including drafts and private ones.
type FetchMyPublishesInput struct {
	authenticity.Creator
	Cursor      string            `json:"cursor"`
	PublishType enums.PublishKind `json:"publishType"`
}

// FetchPublishesInput lists public publishes.
type FetchPublishesInput struct {
	RequestorID *uuid.UUID           `json:"requestorId"`
	Cursor      string               `json:"cursor"`
	OrderBy     enums.PublishOrderBy `json:"orderBy" validate:"omitempty,enum"`
	PublishType enums.PublishKind    `json:"publishType"`
}

// FetchByCategoryInput lists public videos in a category.
type FetchByCategoryInput struct {
	RequestorID *uuid.UUID     `json:"requestorId"`
	Category    enums.Category `json:"category" validate:"required,enum"`
	Cursor      string         `json:"cursor"`
}

// FetchSuggestedInput lists publishes related to PublishID.
type FetchSuggestedInput struct {
	RequestorID *uuid.UUID `json:"requestorId"`
	PublishID   uuid.UUID  `json:"publishId" validate:"required"`
	Cursor      string     `json:"cursor"`
}

// FetchProfilePublishesInput lists the public publishes of one creator.
type FetchProfilePublishesInput struct {
	CreatorID   uuid.UUID            `json:"creatorId" validate:"required"`
	RequestorID *uuid.UUID           `json:"requestorId"`
	Cursor      string               `json:"cursor"`
	PublishType enums.PublishKind    `json:"publishType"`
	OrderBy     enums.PublishOrderBy `json:"orderBy" validate:"omitempty,enum"`
}

// FetchByTagInput searches public publishes by tag.
type FetchByTagInput struct {
	RequestorID *uuid.UUID        `json:"requestorId"`
	Cursor      string            `json:"cursor"`
	Tag         string            `json:"tag" validate:"required"`
	PublishType enums.PublishKind `json:"publishType"`
}

// FetchByQueryInput searches public publishes by free text.
type FetchByQueryInput struct {
	RequestorID *uuid.UUID        `json:"requestorId"`
	Cursor      string            `json:"cursor"`
	Query       string            `json:"query" validate:"required"`
	PublishType enums.PublishKind `json:"publishType"`
}

// CreateDraftVideoInput starts a video upload.
type CreateDraftVideoInput struct {
	authenticity.Creator
	Filename string `json:"filename" validate:"required"`
}

// CreateDraftBlogInput starts a blog.
type CreateDraftBlogInput struct {
	authenticity.Creator
}

// UpdateVideoInput edits a video. Nil fields are left unchanged.
type UpdateVideoInput struct {
	authenticity.Creator
	PublishID         uuid.UUID            `json:"publishId" validate:"required"`
	ContentURI        *string              `json:"contentURI"`
	ContentRef        *string              `json:"contentRef"`
	Thumbnail         *string              `json:"thumbnail"`
	ThumbnailRef      *string              `json:"thumbnailRef"`
	ThumbnailType     enums.ThumbnailType  `json:"thumbnailType" validate:"required,enum"`
	Title             *string              `json:"title"`
	Description       *string              `json:"description"`
	PrimaryCategory   *enums.Category      `json:"primaryCategory"`
	SecondaryCategory *enums.Category      `json:"secondaryCategory"`
	Tags              *string              `json:"tags"`
	Visibility        *enums.Visibility    `json:"visibility"`
	BroadcastType     *enums.BroadcastType `json:"broadcastType"`
}

// UpdateBlogInput edits a blog and its body. Nil fields are left unchanged.
type UpdateBlogInput struct {
	authenticity.Creator
	PublishID         uuid.UUID         `json:"publishId" validate:"required"`
	Title             *string           `json:"title"`
	ImageURL          *string           `json:"imageUrl"`
	ImageRef          *string           `json:"imageRef"`
	Filename          *string           `json:"filename"`
	PrimaryCategory   *enums.Category   `json:"primaryCategory"`
	SecondaryCategory *enums.Category   `json:"secondaryCategory"`
	Tags              *string           `json:"tags"`
	Content           json.RawMessage   `json:"content"`
	HTMLContent       *string           `json:"htmlContent"`
	Preview           *string           `json:"preview"`
	Visibility        *enums.Visibility `json:"visibility"`
}

// ReactInput likes or dislikes a publish as the acting profile.
type ReactInput struct {
	authenticity.Actor
	PublishID uuid.UUID `json:"publishId" validate:"required"`
}

// CountViewsInput records one view. ViewerID is optional.
type CountViewsInput struct {
	PublishID uuid.UUID  `json:"publishId" validate:"required"`
	ViewerID  *uuid.UUID `json:"viewerId"`
}

// DeletePublishInput deletes one publish of the acting creator.
type DeletePublishInput struct {
	authenticity.Creator
	PublishID uuid.UUID `json:"publishId" validate:"required"`
}

// DeletePublishesInput deletes several publishes of the acting creator.
type DeletePublishesInput struct {
	authenticity.Creator
	PublishIDs []uuid.UUID `json:"publishIds" validate:"required,min=1"`
}

// CalculateTipsInput converts a USD amount to tokens.
type CalculateTipsInput struct {
	Qty int `json:"qty" validate:"required,gt=0"`
}

// SendTipsInput transfers Qty USD worth of tokens to ReceiverID.
type SendTipsInput struct {
	authenticity.Actor
	PublishID  uuid.UUID `json:"publishId" validate:"required"`
	ReceiverID uuid.UUID `json:"receiverId" validate:"required"`
	Qty        int       `json:"qty" validate:"required,gt=0"`
}
