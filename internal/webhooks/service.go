package webhooks

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/clipstream-backend/internal/publishes"
	"github.com/angelmondragon/clipstream-backend/pkg/cloudflare"
	"github.com/angelmondragon/clipstream-backend/pkg/db/models"
	"github.com/angelmondragon/clipstream-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/clipstream-backend/pkg/errors"
	"github.com/angelmondragon/clipstream-backend/pkg/logger"
	"github.com/angelmondragon/clipstream-backend/pkg/security"
)

// shortMaxSeconds is the longest on-demand video still classified as a Short.
const shortMaxSeconds = 60

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type streamAccount interface {
	GetWebhook(ctx context.Context) (*cloudflare.Webhook, error)
	ListLiveInputVideos(ctx context.Context, uid string) ([]cloudflare.Video, error)
}

// TranscodeEvent is the Stream notification sent when a video finished
// processing.
type TranscodeEvent struct {
	UID           string  `json:"uid"`
	ReadyToStream bool    `json:"readyToStream"`
	Thumbnail     string  `json:"thumbnail"`
	Preview       string  `json:"preview"`
	Duration      float64 `json:"duration"`
	Playback      struct {
		HLS  string `json:"hls"`
		Dash string `json:"dash"`
	} `json:"playback"`
	Meta struct {
		Name       string  `json:"name"`
		ContentURI *string `json:"contentURI"`
		ContentRef *string `json:"contentRef"`
	} `json:"meta"`
}

// PublishID is the first word of the video name.
func (e TranscodeEvent) PublishID() (uuid.UUID, error) {
	fields := strings.Fields(e.Meta.Name)
	if len(fields) == 0 {
		return uuid.Nil, errors.New("video name missing")
	}
	return uuid.Parse(fields[0])
}

// PushMessage is the message inside a Pub/Sub push delivery.
type PushMessage struct {
	Data       string            `json:"data"`
	MessageID  string            `json:"messageId"`
	Attributes map[string]string `json:"attributes"`
}

// PushEnvelope is a Pub/Sub push delivery.
type PushEnvelope struct {
	Message      *PushMessage `json:"message"`
	Subscription string       `json:"subscription"`
}

// ServiceParams bundles the dependencies of the webhook service.
type ServiceParams struct {
	Repo              *publishes.Repository
	Tx                txRunner
	Cloudflare        streamAccount
	Processing        announcer
	Deleter           *Deleter
	Logger            *logger.Logger
	AlchemySigningKey string
	StreamSigningKey  string
	EncryptKey        string
	MaxSignatureAge   time.Duration
}

// Service handles inbound provider callbacks.
type Service struct {
	repo       *publishes.Repository
	tx         txRunner
	cloudflare streamAccount
	processing announcer
	deleter    *Deleter
	logg       *logger.Logger
	alchemyKey string
	streamKey  string
	encryptKey string
	maxAge     time.Duration
	now        func() time.Time
}

func NewService(params ServiceParams) (*Service, error) {
	switch {
	case params.Repo == nil:
		return nil, errors.New("publishes repository required")
	case params.Tx == nil:
		return nil, errors.New("transaction runner required")
	case params.Cloudflare == nil:
		return nil, errors.New("cloudflare client required")
	case params.Processing == nil:
		return nil, errors.New("processing announcer required")
	case params.Deleter == nil:
		return nil, errors.New("publish deleter required")
	case params.Logger == nil:
		return nil, errors.New("logger required")
	}
	return &Service{
		repo:       params.Repo,
		tx:         params.Tx,
		cloudflare: params.Cloudflare,
		processing: params.Processing,
		deleter:    params.Deleter,
		logg:       params.Logger,
		alchemyKey: params.AlchemySigningKey,
		streamKey:  params.StreamSigningKey,
		encryptKey: params.EncryptKey,
		maxAge:     params.MaxSignatureAge,
		now:        time.Now,
	}, nil
}

// AddressUpdated verifies an address activity notification.
func (s *Service) AddressUpdated(ctx context.Context, body []byte, signature string) error {
	if len(body) == 0 || strings.TrimSpace(signature) == "" {
		return pkgerrors.New(pkgerrors.CodeBadRequest, "Invalid request")
	}
	if err := security.VerifyBodySignature(s.alchemyKey, body, signature); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, pkgerrors.MessageUnauthorized)
	}
	s.logg.Info(ctx, "address activity received")
	return nil
}

// TranscodeWebhook returns the Stream webhook subscription.
func (s *Service) TranscodeWebhook(ctx context.Context) (*cloudflare.Webhook, error) {
	return s.cloudflare.GetWebhook(ctx)
}

// LiveInputVideos lists the recordings of a live input.
func (s *Service) LiveInputVideos(ctx context.Context, liveInputID string) ([]cloudflare.Video, error) {
	if strings.TrimSpace(liveInputID) == "" {
		return nil, pkgerrors.BadInput()
	}
	return s.cloudflare.ListLiveInputVideos(ctx, liveInputID)
}

// TranscodingFinished stores the playback of a processed video. When
// storing fails the publish is flagged with a transcode error. The
// processing topic is told in both cases.
func (s *Service) TranscodingFinished(ctx context.Context, body []byte, signature string) error {
	if err := security.VerifyTimedSignature(s.streamKey, body, signature, s.maxAge, s.now()); err != nil {
		if errors.Is(err, security.ErrSignatureExpired) {
			return pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "Signature expired")
		}
		return pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, pkgerrors.MessageUnauthorized)
	}
	var event TranscodeEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeBadUserInput, err, pkgerrors.MessageBadInput)
	}
	if !event.ReadyToStream {
		return nil
	}
	publishID, err := event.PublishID()
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeBadUserInput, err, pkgerrors.MessageBadInput)
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{"publishId": publishID.String(), "videoId": event.UID})
	if err := s.storePlayback(ctx, publishID, event); err != nil {
		s.logg.Error(logCtx, "store playback failed", err)
		if markErr := s.repo.UpdateColumns(ctx, publishID, map[string]any{
			"transcode_error": true,
			"uploading":       false,
		}); markErr != nil {
			s.logg.Error(logCtx, "flag transcode error failed", markErr)
		}
		_ = s.processing.Announce(ctx, publishID.String())
		return err
	}
	s.logg.Info(logCtx, "playback stored")
	_ = s.processing.Announce(ctx, publishID.String())
	return nil
}

func (s *Service) storePlayback(ctx context.Context, publishID uuid.UUID, event TranscodeEvent) error {
	publish, err := s.repo.FindByID(ctx, publishID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, pkgerrors.MessageNotFound)
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load publish")
	}
	live := publish.StreamType == enums.StreamTypeLive

	var liveStatus *enums.LiveStatus
	if live {
		ready := enums.LiveStatusReady
		liveStatus = &ready
	}
	playback := models.Playback{
		PublishID:  publishID,
		VideoID:    event.UID,
		Thumbnail:  event.Thumbnail,
		Preview:    event.Preview,
		Duration:   event.Duration,
		HLS:        event.Playback.HLS,
		Dash:       event.Playback.Dash,
		LiveStatus: liveStatus,
	}

	kind := enums.PublishTypeVideo
	if !live && event.Duration <= shortMaxSeconds {
		kind = enums.PublishTypeShort
	}
	thumbnailType := publish.ThumbnailType
	if thumbnailType == "" {
		thumbnailType = enums.ThumbnailTypeGenerated
	}
	updates := map[string]any{
		"upload_error":    false,
		"uploading":       false,
		"transcode_error": false,
		"thumbnail_type":  thumbnailType,
		"content_uri":     event.Meta.ContentURI,
		"content_ref":     event.Meta.ContentRef,
		"publish_type":    kind,
		"stream_type":     enums.StreamTypeOnDemand,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := tx.WithContext(ctx).Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "publish_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"video_id", "thumbnail", "preview", "duration", "hls", "dash", "live_status", "updated_at",
			}),
		}).Create(&playback).Error; err != nil {
			return err
		}
		return s.repo.WithTx(tx).UpdateColumns(ctx, publishID, updates)
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store playback")
	}
	return nil
}

// VideoDeleted handles a push delivery announcing that the media of a
// publish is gone. The message data is an encrypted publish id.
func (s *Service) VideoDeleted(ctx context.Context, envelope PushEnvelope) error {
	if envelope.Message == nil {
		return pkgerrors.New(pkgerrors.CodeBadRequest, "invalid Pub/Sub message format")
	}
	raw, err := base64.StdEncoding.DecodeString(envelope.Message.Data)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeBadRequest, err, "No data found")
	}
	data := strings.TrimSpace(string(raw))
	if data == "" {
		return pkgerrors.New(pkgerrors.CodeBadRequest, "No data found")
	}
	publishID, err := s.DecryptPublishID(data)
	if err != nil {
		return err
	}
	return s.deleter.DeletePublish(ctx, publishID)
}

// DecryptPublishID opens a passphrase encrypted publish id.
func (s *Service) DecryptPublishID(data string) (uuid.UUID, error) {
	plain, err := security.DecryptPassphrase(data, s.encryptKey)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeBadRequest, err, "Invalid data")
	}
	id, err := uuid.Parse(strings.TrimSpace(string(plain)))
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeBadRequest, err, "Invalid data")
	}
	return id, nil
}
