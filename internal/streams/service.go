package streams

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/clipstream-backend/internal/authenticity"
	"github.com/angelmondragon/clipstream-backend/internal/publishes"
	"github.com/angelmondragon/clipstream-backend/pkg/cloudflare"
	"github.com/angelmondragon/clipstream-backend/pkg/db/models"
	"github.com/angelmondragon/clipstream-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/clipstream-backend/pkg/errors"
	"github.com/angelmondragon/clipstream-backend/pkg/logger"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type liveInputs interface {
	CreateLiveInput(ctx context.Context, publishID string) (*cloudflare.LiveInput, error)
	GetLiveInput(ctx context.Context, uid string) (*cloudflare.LiveInput, error)
}

type announcer interface {
	Announce(ctx context.Context, id string) error
}

// FetchInput pages the acting creator's live streams.
type FetchInput struct {
	authenticity.Creator
	Cursor string `json:"cursor"`
}

// GetInput loads one live stream of the acting profile.
type GetInput struct {
	authenticity.Actor
	PublishID uuid.UUID `json:"publishId" validate:"required"`
}

// RequestInput starts a new live stream.
type RequestInput struct {
	authenticity.Creator
	Title             string              `json:"title" validate:"required"`
	Description       *string             `json:"description"`
	Thumbnail         *string             `json:"thumbnail"`
	ThumbnailRef      *string             `json:"thumbnailRef"`
	PrimaryCategory   enums.Category      `json:"primaryCategory" validate:"required"`
	SecondaryCategory *enums.Category     `json:"secondaryCategory"`
	Tags              *string             `json:"tags"`
	Visibility        enums.Visibility    `json:"visibility" validate:"required"`
	BroadcastType     enums.BroadcastType `json:"broadcastType" validate:"required"`
}

// LiveStreamResult is a live publish with its ingest endpoints.
type LiveStreamResult struct {
	Publish   publishes.PublishDTO  `json:"publish"`
	LiveInput *cloudflare.LiveInput `json:"liveInput"`
}

// RequestResult identifies the created live publish.
type RequestResult struct {
	ID uuid.UUID `json:"id"`
}

// Service defines live stream operations.
type Service interface {
	FetchMyLiveStream(ctx context.Context, input FetchInput) (publishes.PublishesPage, error)
	GetLiveStreamPublish(ctx context.Context, input GetInput) (*LiveStreamResult, error)
	RequestLiveStream(ctx context.Context, input RequestInput) (RequestResult, error)
}

// ServiceParams bundles the dependencies of the stream service.
type ServiceParams struct {
	Repo             *publishes.Repository
	Tx               txRunner
	Guard            *authenticity.Guard
	Cloudflare       liveInputs
	Processing       announcer
	Logger           *logger.Logger
	PlaybackBaseURL  string
	DefaultThumbnail string
}

type service struct {
	repo       *publishes.Repository
	enrich     *publishes.Enricher
	tx         txRunner
	guard      *authenticity.Guard
	cloudflare liveInputs
	processing announcer
	logg       *logger.Logger
	baseURL    string
	thumbnail  string
}

// NewService wires stream dependencies.
func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.Repo == nil:
		return nil, errors.New("publishes repository required")
	case params.Tx == nil:
		return nil, errors.New("transaction runner required")
	case params.Guard == nil:
		return nil, errors.New("authenticity guard required")
	case params.Cloudflare == nil:
		return nil, errors.New("cloudflare client required")
	case params.Processing == nil:
		return nil, errors.New("processing announcer required")
	case params.Logger == nil:
		return nil, errors.New("logger required")
	case strings.TrimSpace(params.PlaybackBaseURL) == "":
		return nil, errors.New("live playback url required")
	}
	return &service{
		repo:       params.Repo,
		enrich:     publishes.NewEnricher(params.Repo),
		tx:         params.Tx,
		guard:      params.Guard,
		cloudflare: params.Cloudflare,
		processing: params.Processing,
		logg:       params.Logger,
		baseURL:    strings.TrimRight(strings.TrimSpace(params.PlaybackBaseURL), "/"),
		thumbnail:  params.DefaultThumbnail,
	}, nil
}

func (s *service) FetchMyLiveStream(ctx context.Context, input FetchInput) (publishes.PublishesPage, error) {
	_, creator, err := s.guard.Profile(ctx, input.Actor())
	if err != nil {
		return publishes.PublishesPage{}, err
	}
	q := s.repo.Query(ctx).
		Where("publishes.creator_id = ?", creator.ID).
		Where("publishes.publish_type = ?", enums.PublishTypeVideo).
		Where("publishes.stream_type = ?", enums.StreamTypeLive)
	page, err := s.repo.Page(ctx, q, enums.PublishOrderByLatest, input.Cursor)
	if err != nil {
		return publishes.PublishesPage{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list live streams")
	}
	return s.enrich.Page(ctx, page, &creator.ID)
}

// GetLiveStreamPublish returns nil instead of an error when anything fails.
func (s *service) GetLiveStreamPublish(ctx context.Context, input GetInput) (*LiveStreamResult, error) {
	result, err := s.liveStream(ctx, input)
	if err != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{"publishId": input.PublishID.String()})
		s.logg.Warn(logCtx, "live stream lookup failed: "+err.Error())
		return nil, nil
	}
	return result, nil
}

func (s *service) liveStream(ctx context.Context, input GetInput) (*LiveStreamResult, error) {
	if input.PublishID == uuid.Nil {
		return nil, pkgerrors.BadInput()
	}
	_, profile, err := s.guard.Profile(ctx, input.Actor)
	if err != nil {
		return nil, err
	}
	publish, err := s.repo.FindByID(ctx, input.PublishID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, pkgerrors.MessageNotFound)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load publish")
	}
	if publish.CreatorID != profile.ID {
		return nil, pkgerrors.Unauthorized()
	}
	if publish.LiveInputUID == nil || *publish.LiveInputUID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeBadRequest, "Bad request")
	}
	live, err := s.cloudflare.GetLiveInput(ctx, *publish.LiveInputUID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "get live input")
	}
	dto, err := s.enrich.One(ctx, *publish, &profile.ID)
	if err != nil {
		return nil, err
	}
	return &LiveStreamResult{Publish: dto, LiveInput: live}, nil
}

func (s *service) RequestLiveStream(ctx context.Context, input RequestInput) (RequestResult, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" || !input.PrimaryCategory.IsValid() || !input.Visibility.IsValid() || !input.BroadcastType.IsValid() {
		return RequestResult{}, pkgerrors.BadInput()
	}
	if input.SecondaryCategory != nil && !input.SecondaryCategory.IsValid() {
		return RequestResult{}, pkgerrors.BadInput()
	}
	_, creator, err := s.guard.Profile(ctx, input.Actor())
	if err != nil {
		return RequestResult{}, err
	}

	thumbnail := s.thumbnail
	if input.Thumbnail != nil && strings.TrimSpace(*input.Thumbnail) != "" {
		thumbnail = strings.TrimSpace(*input.Thumbnail)
	}
	primary := input.PrimaryCategory
	broadcast := input.BroadcastType
	video := enums.PublishTypeVideo
	publish := models.Publish{
		CreatorID:         creator.ID,
		Title:             &title,
		Description:       input.Description,
		Thumbnail:         &thumbnail,
		ThumbnailRef:      input.ThumbnailRef,
		ThumbnailType:     enums.ThumbnailTypeCustom,
		PrimaryCategory:   &primary,
		SecondaryCategory: input.SecondaryCategory,
		Tags:              input.Tags,
		Visibility:        input.Visibility,
		PublishType:       &video,
		StreamType:        enums.StreamTypeLive,
		BroadcastType:     &broadcast,
	}
	if err := s.repo.Create(ctx, &publish); err != nil {
		return RequestResult{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create live publish")
	}

	live, err := s.cloudflare.CreateLiveInput(ctx, publish.ID.String())
	if err != nil || live == nil || live.UID == "" {
		if delErr := s.repo.Delete(ctx, publish.ID); delErr != nil {
			s.logg.Error(ctx, "discard live publish", delErr)
		}
		if err == nil {
			err = errors.New("live input without uid")
		}
		return RequestResult{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create live input")
	}

	status := enums.LiveStatusInProgress
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.UpdateColumns(ctx, publish.ID, map[string]any{"live_input_uid": live.UID}); err != nil {
			return err
		}
		return tx.WithContext(ctx).Create(&models.Playback{
			PublishID:  publish.ID,
			Thumbnail:  thumbnail,
			HLS:        fmt.Sprintf("%s/%s/video.m3u8", s.baseURL, live.UID),
			Dash:       fmt.Sprintf("%s/%s/video.mpd", s.baseURL, live.UID),
			LiveStatus: &status,
		}).Error
	})
	if err != nil {
		return RequestResult{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store live playback")
	}
	_ = s.processing.Announce(ctx, publish.ID.String())
	return RequestResult{ID: publish.ID}, nil
}
