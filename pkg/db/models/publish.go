package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/clipstream-backend/pkg/enums"
)

// Publish is a content item: video, short, blog, ad or live stream.
type Publish struct {
	ID                uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	CreatorID         uuid.UUID            `gorm:"column:creator_id;type:uuid;not null;index"`
	Creator           *Profile             `gorm:"foreignKey:CreatorID"`
	Title             *string              `gorm:"column:title;type:text"`
	Description       *string              `gorm:"column:description;type:text"`
	Filename          *string              `gorm:"column:filename;type:text"`
	Thumbnail         *string              `gorm:"column:thumbnail;type:text"`
	ThumbnailRef      *string              `gorm:"column:thumbnail_ref;type:text"`
	ThumbnailType     enums.ThumbnailType  `gorm:"column:thumbnail_type;type:text;not null;default:default"`
	PrimaryCategory   *enums.Category      `gorm:"column:primary_category;type:text"`
	SecondaryCategory *enums.Category      `gorm:"column:secondary_category;type:text"`
	Tags              *string              `gorm:"column:tags;type:text"`
	Views             int64                `gorm:"column:views;not null;default:0"`
	Visibility        enums.Visibility     `gorm:"column:visibility;type:text;not null;default:private"`
	PublishType       *enums.PublishType   `gorm:"column:publish_type;type:text"`
	StreamType        enums.StreamType     `gorm:"column:stream_type;type:text;not null;default:onDemand"`
	BroadcastType     *enums.BroadcastType `gorm:"column:broadcast_type;type:text"`
	Uploading         bool                 `gorm:"column:uploading;not null;default:false"`
	UploadError       bool                 `gorm:"column:upload_error;not null;default:false"`
	TranscodeError    bool                 `gorm:"column:transcode_error;not null;default:false"`
	Deleting          bool                 `gorm:"column:deleting;not null;default:false"`
	ContentURI        *string              `gorm:"column:content_uri;type:text"`
	ContentRef        *string              `gorm:"column:content_ref;type:text"`
	LiveInputUID      *string              `gorm:"column:live_input_uid;type:text"`
	Playback          *Playback            `gorm:"foreignKey:PublishID"`
	Blog              *Blog                `gorm:"foreignKey:PublishID"`
	CreatedAt         time.Time            `gorm:"column:created_at;autoCreateTime;index"`
	UpdatedAt         time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Publish) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	return nil
}

// Playback holds the transcoding outputs of a video publish.
type Playback struct {
	ID         uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	PublishID  uuid.UUID         `gorm:"column:publish_id;type:uuid;not null;uniqueIndex:playbacks_publish_id_key"`
	VideoID    string            `gorm:"column:video_id;type:text;not null"`
	Thumbnail  string            `gorm:"column:thumbnail;type:text;not null"`
	Preview    string            `gorm:"column:preview;type:text;not null"`
	Duration   float64           `gorm:"column:duration;not null;default:0"`
	HLS        string            `gorm:"column:hls;type:text;not null"`
	Dash       string            `gorm:"column:dash;type:text;not null"`
	LiveStatus *enums.LiveStatus `gorm:"column:live_status;type:text"`
	CreatedAt  time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Playback) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	return nil
}

// Blog stores the body of a blog publish.
type Blog struct {
	PublishID   uuid.UUID       `gorm:"column:publish_id;type:uuid;primaryKey"`
	Content     json.RawMessage `gorm:"column:content;type:jsonb"`
	HTMLContent *string         `gorm:"column:html_content;type:text"`
	ReadingTime *string         `gorm:"column:reading_time;type:text"`
	Excerpt     *string         `gorm:"column:excerpt;type:text"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// Tip records a settled transfer from one profile to a publish creator.
type Tip struct {
	ID         uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	SenderID   uuid.UUID       `gorm:"column:sender_id;type:uuid;not null;index"`
	From       string          `gorm:"column:from_address;type:text;not null"`
	PublishID  uuid.UUID       `gorm:"column:publish_id;type:uuid;not null;index"`
	ReceiverID uuid.UUID       `gorm:"column:receiver_id;type:uuid;not null;index"`
	To         string          `gorm:"column:to_address;type:text;not null"`
	Amount     decimal.Decimal `gorm:"column:amount;type:numeric;not null"`
	Fee        decimal.Decimal `gorm:"column:fee;type:numeric;not null"`
	CreatedAt  time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (t *Tip) BeforeCreate(*gorm.DB) error {
	ensureID(&t.ID)
	return nil
}
