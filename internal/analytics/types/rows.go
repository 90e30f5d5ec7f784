package types

import (
	"time"

	cbigquery "cloud.google.com/go/bigquery"
)

// EngagementEventRow mirrors the engagement_events BigQuery schema. ActorID
// is the viewer, liker, commenter or tip sender.
type EngagementEventRow struct {
	EventID     string             `bigquery:"event_id"`
	EventType   string             `bigquery:"event_type"`
	OccurredAt  time.Time          `bigquery:"occurred_at"`
	PublishID   string             `bigquery:"publish_id"`
	CreatorID   *string            `bigquery:"creator_id"`
	ActorID     *string            `bigquery:"actor_id"`
	PublishType *string            `bigquery:"publish_type"`
	CommentID   *string            `bigquery:"comment_id"`
	ParentID    *string            `bigquery:"parent_id"`
	TipID       *string            `bigquery:"tip_id"`
	TipAmount   *string            `bigquery:"tip_amount"`
	TipFee      *string            `bigquery:"tip_fee"`
	Views       *int64             `bigquery:"views"`
	Payload     cbigquery.NullJSON `bigquery:"payload"`
}
