package publishes

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/clipstream-backend/internal/profiles"
	"github.com/angelmondragon/clipstream-backend/pkg/db/models"
	"github.com/angelmondragon/clipstream-backend/pkg/enums"
	"github.com/angelmondragon/clipstream-backend/pkg/pagination"
)

// PlaybackDTO is the public shape of a playback.
type PlaybackDTO struct {
	ID         uuid.UUID         `json:"id"`
	CreatedAt  time.Time         `json:"createdAt"`
	UpdatedAt  time.Time         `json:"updatedAt"`
	PublishID  uuid.UUID         `json:"publishId"`
	VideoID    string            `json:"videoId"`
	Thumbnail  string            `json:"thumbnail"`
	Preview    string            `json:"preview"`
	Duration   float64           `json:"duration"`
	HLS        string            `json:"hls"`
	Dash       string            `json:"dash"`
	LiveStatus *enums.LiveStatus `json:"liveStatus"`
}

// BlogDTO is the public shape of a blog body.
type BlogDTO struct {
	PublishID   uuid.UUID       `json:"publishId"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
	Content     json.RawMessage `json:"content"`
	HTMLContent *string         `json:"htmlContent"`
	ReadingTime *string         `json:"readingTime"`
	Excerpt     *string         `json:"excerpt"`
}

// PublishDTO is the public shape of a publish plus its derived fields.
type PublishDTO struct {
	ID                uuid.UUID            `json:"id"`
	CreatedAt         time.Time            `json:"createdAt"`
	UpdatedAt         time.Time            `json:"updatedAt"`
	CreatorID         uuid.UUID            `json:"creatorId"`
	Creator           *profiles.ProfileDTO `json:"creator"`
	ContentURI        *string              `json:"contentURI"`
	ContentRef        *string              `json:"contentRef"`
	Filename          *string              `json:"filename"`
	Thumbnail         *string              `json:"thumbnail"`
	ThumbnailRef      *string              `json:"thumbnailRef"`
	ThumbnailType     enums.ThumbnailType  `json:"thumbnailType"`
	Title             *string              `json:"title"`
	Description       *string              `json:"description"`
	Views             int64                `json:"views"`
	PrimaryCategory   *enums.Category      `json:"primaryCategory"`
	SecondaryCategory *enums.Category      `json:"secondaryCategory"`
	PublishType       *enums.PublishType   `json:"publishType"`
	Visibility        enums.Visibility     `json:"visibility"`
	Tags              *string              `json:"tags"`
	UploadError       bool                 `json:"uploadError"`
	TranscodeError    bool                 `json:"transcodeError"`
	Uploading         bool                 `json:"uploading"`
	Deleting          bool                 `json:"deleting"`
	StreamType        enums.StreamType     `json:"streamType"`
	BroadcastType     *enums.BroadcastType `json:"broadcastType"`
	LiveInputUID      *string              `json:"liveInputUID"`
	Playback          *PlaybackDTO         `json:"playback"`
	Blog              *BlogDTO             `json:"blog"`
	LikesCount        int64                `json:"likesCount"`
	DisLikesCount     int64                `json:"disLikesCount"`
	CommentsCount     int64                `json:"commentsCount"`
	TipsCount         int64                `json:"tipsCount"`
	Liked             *bool                `json:"liked"`
	DisLiked          *bool                `json:"disLiked"`
	Bookmarked        *bool                `json:"bookmarked"`
}

// PublishesPage is a page of publishes.
type PublishesPage = pagination.Page[PublishDTO]

// DraftVideoResult identifies a freshly created video draft.
type DraftVideoResult struct {
	ID       uuid.UUID `json:"id"`
	Filename string    `json:"filename"`
}

// DraftBlogResult identifies a freshly created blog draft.
type DraftBlogResult struct {
	ID uuid.UUID `json:"id"`
}

// CalculateTipsResult is the token amount for a tip in USD.
type CalculateTipsResult struct {
	Tips string `json:"tips"`
}

// SendTipsResult is the settled transfer.
type SendTipsResult struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount string `json:"amount"`
	Fee    string `json:"fee"`
}

// ToDTO maps a publish without derived fields.
func ToDTO(p models.Publish) PublishDTO {
	dto := PublishDTO{
		ID:                p.ID,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
		CreatorID:         p.CreatorID,
		ContentURI:        p.ContentURI,
		ContentRef:        p.ContentRef,
		Filename:          p.Filename,
		Thumbnail:         p.Thumbnail,
		ThumbnailRef:      p.ThumbnailRef,
		ThumbnailType:     p.ThumbnailType,
		Title:             p.Title,
		Description:       p.Description,
		Views:             p.Views,
		PrimaryCategory:   p.PrimaryCategory,
		SecondaryCategory: p.SecondaryCategory,
		PublishType:       p.PublishType,
		Visibility:        p.Visibility,
		Tags:              p.Tags,
		UploadError:       p.UploadError,
		TranscodeError:    p.TranscodeError,
		Uploading:         p.Uploading,
		Deleting:          p.Deleting,
		StreamType:        p.StreamType,
		BroadcastType:     p.BroadcastType,
		LiveInputUID:      p.LiveInputUID,
	}
	if p.Creator != nil {
		creator := profiles.ToDTO(*p.Creator)
		dto.Creator = &creator
	}
	if p.Playback != nil {
		playback := PlaybackToDTO(*p.Playback)
		dto.Playback = &playback
	}
	if p.Blog != nil {
		dto.Blog = &BlogDTO{
			PublishID:   p.Blog.PublishID,
			CreatedAt:   p.Blog.CreatedAt,
			UpdatedAt:   p.Blog.UpdatedAt,
			Content:     p.Blog.Content,
			HTMLContent: p.Blog.HTMLContent,
			ReadingTime: p.Blog.ReadingTime,
			Excerpt:     p.Blog.Excerpt,
		}
	}
	return dto
}

// PlaybackToDTO maps a playback.
func PlaybackToDTO(p models.Playback) PlaybackDTO {
	return PlaybackDTO{
		ID:         p.ID,
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
		PublishID:  p.PublishID,
		VideoID:    p.VideoID,
		Thumbnail:  p.Thumbnail,
		Preview:    p.Preview,
		Duration:   p.Duration,
		HLS:        p.HLS,
		Dash:       p.Dash,
		LiveStatus: p.LiveStatus,
	}
}
