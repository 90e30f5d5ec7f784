package payloads

import (
	"github.com/angelmondragon/clipstream-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PublishViewedEvent is emitted each time a publish view is counted.
type PublishViewedEvent struct {
	PublishID   uuid.UUID          `json:"publish_id" validate:"required"`
	CreatorID   uuid.UUID          `json:"creator_id"`
	ViewerID    *uuid.UUID         `json:"viewer_id,omitempty"`
	PublishType *enums.PublishType `json:"publish_type,omitempty"`
	Views       int64              `json:"views"`
}

// PublishLikedEvent is emitted when a profile likes a publish.
type PublishLikedEvent struct {
	PublishID uuid.UUID `json:"publish_id" validate:"required"`
	CreatorID uuid.UUID `json:"creator_id"`
	ProfileID uuid.UUID `json:"profile_id" validate:"required"`
}

// CommentCreatedEvent is emitted for every new comment or reply.
type CommentCreatedEvent struct {
	CommentID   uuid.UUID         `json:"comment_id" validate:"required"`
	PublishID   uuid.UUID         `json:"publish_id" validate:"required"`
	CreatorID   uuid.UUID         `json:"creator_id"`
	ParentID    *uuid.UUID        `json:"parent_id,omitempty"`
	CommentType enums.CommentType `json:"comment_type"`
}

// TipSentEvent is emitted once a tip transfer settles.
type TipSentEvent struct {
	TipID      uuid.UUID       `json:"tip_id" validate:"required"`
	PublishID  uuid.UUID       `json:"publish_id" validate:"required"`
	SenderID   uuid.UUID       `json:"sender_id"`
	ReceiverID uuid.UUID       `json:"receiver_id"`
	Amount     decimal.Decimal `json:"amount"`
	Fee        decimal.Decimal `json:"fee"`
}
