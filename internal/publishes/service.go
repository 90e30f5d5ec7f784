package publishes

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/clipstream-backend/internal/authenticity"
	"github.com/angelmondragon/clipstream-backend/pkg/db/models"
	"github.com/angelmondragon/clipstream-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/clipstream-backend/pkg/errors"
	"github.com/angelmondragon/clipstream-backend/pkg/logger"
	"github.com/angelmondragon/clipstream-backend/pkg/outbox"
	"github.com/angelmondragon/clipstream-backend/pkg/pagination"
	"github.com/angelmondragon/clipstream-backend/pkg/walletapi"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type notifier interface {
	Record(ctx context.Context, tx *gorm.DB, notification models.Notification) error
	Announce(ctx context.Context, receiverID uuid.UUID)
}

type announcer interface {
	Announce(ctx context.Context, id string) error
}

type mediaCleaner interface {
	DeleteImage(ctx context.Context, ref *string)
	DeleteVideo(ctx context.Context, ref, publishID, videoID string)
	DeleteStreamVideo(ctx context.Context, videoID string)
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type tipsWallet interface {
	CalculateTips(ctx context.Context, idToken string, qty int) (string, error)
	SendTips(ctx context.Context, idToken, to string, qty int) (walletapi.TipResult, error)
}

// Service defines publish operations.
type Service interface {
	GetPublishByID(ctx context.Context, input QueryByIDInput) (*PublishDTO, error)
	GetShort(ctx context.Context, input QueryByIDInput) (*PublishDTO, error)
	FetchMyPublishes(ctx context.Context, input FetchMyPublishesInput) (PublishesPage, error)
	FetchPublishes(ctx context.Context, input FetchPublishesInput) (PublishesPage, error)
	FetchVideosByCategory(ctx context.Context, input FetchByCategoryInput) (PublishesPage, error)
	FetchSuggestedVideos(ctx context.Context, input FetchSuggestedInput) (PublishesPage, error)
	FetchSuggestedBlogs(ctx context.Context, input FetchSuggestedInput) (PublishesPage, error)
	FetchProfilePublishes(ctx context.Context, input FetchProfilePublishesInput) (PublishesPage, error)
	FetchPublishesByTag(ctx context.Context, input FetchByTagInput) (PublishesPage, error)
	FetchPublishesByQueryString(ctx context.Context, input FetchByQueryInput) (PublishesPage, error)

	CreateDraftVideo(ctx context.Context, input CreateDraftVideoInput) (DraftVideoResult, error)
	CreateDraftBlog(ctx context.Context, input CreateDraftBlogInput) (DraftBlogResult, error)
	UpdateVideo(ctx context.Context, input UpdateVideoInput) (PublishDTO, error)
	UpdateBlog(ctx context.Context, input UpdateBlogInput) error
	LikePublish(ctx context.Context, input ReactInput) error
	DisLikePublish(ctx context.Context, input ReactInput) error
	CountViews(ctx context.Context, input CountViewsInput) error
	DeletePublish(ctx context.Context, input DeletePublishInput) error
	DeletePublishes(ctx context.Context, input DeletePublishesInput) error
	CalculateTips(ctx context.Context, input CalculateTipsInput) (CalculateTipsResult, error)
	SendTips(ctx context.Context, input SendTipsInput) (SendTipsResult, error)
}

// ServiceParams bundles the dependencies of the publish service.
type ServiceParams struct {
	Repo       *Repository
	Tx         txRunner
	Guard      *authenticity.Guard
	Notifier   notifier
	Processing announcer
	Media      mediaCleaner
	Events     eventEmitter
	Wallet     tipsWallet
	Logger     *logger.Logger
}

type service struct {
	repo       *Repository
	enrich     *Enricher
	tx         txRunner
	guard      *authenticity.Guard
	notifier   notifier
	processing announcer
	media      mediaCleaner
	events     eventEmitter
	wallet     tipsWallet
	logg       *logger.Logger
}

// NewService wires publish dependencies.
func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.Repo == nil:
		return nil, errors.New("publishes repository required")
	case params.Tx == nil:
		return nil, errors.New("transaction runner required")
	case params.Guard == nil:
		return nil, errors.New("authenticity guard required")
	case params.Notifier == nil:
		return nil, errors.New("notifier required")
	case params.Processing == nil:
		return nil, errors.New("processing announcer required")
	case params.Media == nil:
		return nil, errors.New("media cleaner required")
	case params.Events == nil:
		return nil, errors.New("event emitter required")
	case params.Wallet == nil:
		return nil, errors.New("wallet client required")
	case params.Logger == nil:
		return nil, errors.New("logger required")
	}
	return &service{
		repo:       params.Repo,
		enrich:     NewEnricher(params.Repo),
		tx:         params.Tx,
		guard:      params.Guard,
		notifier:   params.Notifier,
		processing: params.Processing,
		media:      params.Media,
		events:     params.Events,
		wallet:     params.Wallet,
		logg:       params.Logger,
	}, nil
}

func (s *service) GetPublishByID(ctx context.Context, input QueryByIDInput) (*PublishDTO, error) {
	if input.TargetID == uuid.Nil {
		return nil, pkgerrors.BadInput()
	}
	publish, err := s.repo.FindByID(ctx, input.TargetID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load publish")
	}
	dto, err := s.enrich.One(ctx, *publish, input.RequestorID)
	if err != nil {
		return nil, err
	}
	return &dto, nil
}

func (s *service) GetShort(ctx context.Context, input QueryByIDInput) (*PublishDTO, error) {
	return s.GetPublishByID(ctx, input)
}

func (s *service) FetchMyPublishes(ctx context.Context, input FetchMyPublishesInput) (PublishesPage, error) {
	_, creator, err := s.guard.Profile(ctx, input.Actor())
	if err != nil {
		return PublishesPage{}, err
	}
	q := CreatorKind(s.repo.Query(ctx).Where("publishes.creator_id = ?", creator.ID), input.PublishType)
	return s.page(ctx, q, enums.PublishOrderByLatest, input.Cursor, &creator.ID)
}

func (s *service) FetchPublishes(ctx context.Context, input FetchPublishesInput) (PublishesPage, error) {
	q := PublicKind(Public(s.repo.Query(ctx), input.RequestorID), input.PublishType)
	return s.page(ctx, q, input.OrderBy, input.Cursor, input.RequestorID)
}

func (s *service) FetchVideosByCategory(ctx context.Context, input FetchByCategoryInput) (PublishesPage, error) {
	if !input.Category.IsValid() {
		return PublishesPage{}, pkgerrors.BadInput()
	}
	q := Public(s.repo.Query(ctx), input.RequestorID).
		Where("publishes.publish_type = ?", enums.PublishTypeVideo).
		Where("(publishes.primary_category = ? OR publishes.secondary_category = ?)", input.Category, input.Category)
	return s.page(ctx, q, enums.PublishOrderByLatest, input.Cursor, input.RequestorID)
}

func (s *service) FetchSuggestedVideos(ctx context.Context, input FetchSuggestedInput) (PublishesPage, error) {
	return s.suggested(ctx, input, enums.PublishTypeVideo, func(p *models.Profile) []string { return p.WatchPreferences })
}

func (s *service) FetchSuggestedBlogs(ctx context.Context, input FetchSuggestedInput) (PublishesPage, error) {
	return s.suggested(ctx, input, enums.PublishTypeBlog, func(p *models.Profile) []string { return p.ReadPreferences })
}

// suggested lists public publishes of publishType related to the source
// publish: sharing any tag when it has tags, otherwise matching the
// requestor's preferred categories.
func (s *service) suggested(ctx context.Context, input FetchSuggestedInput, publishType enums.PublishType, prefs func(*models.Profile) []string) (PublishesPage, error) {
	if input.PublishID == uuid.Nil {
		return PublishesPage{}, pkgerrors.BadInput()
	}
	source, err := s.repo.FindByID(ctx, input.PublishID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pagination.Empty[PublishDTO](), nil
		}
		return PublishesPage{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load publish")
	}

	q := Public(s.repo.Query(ctx), input.RequestorID).
		Where("publishes.publish_type = ? AND publishes.id <> ?", publishType, source.ID)
	if tags := SplitTags(source.Tags); len(tags) > 0 {
		q = MatchAny(q, tags, "publishes.tags")
	} else if input.RequestorID != nil && *input.RequestorID != uuid.Nil {
		requestor, err := s.repo.FindProfile(ctx, *input.RequestorID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return PublishesPage{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load requestor")
		}
		if requestor != nil {
			if categories := prefs(requestor); len(categories) > 0 {
				q = q.Where("(publishes.primary_category IN ? OR publishes.secondary_category IN ?)", categories, categories)
			}
		}
	}
	return s.page(ctx, q, enums.PublishOrderByLatest, input.Cursor, input.RequestorID)
}

// FetchProfilePublishes lists a creator's public page. Kinds follow the
// broadcast type as on the creator's own listing, and the requestor's
// don't-recommend list does not apply.
func (s *service) FetchProfilePublishes(ctx context.Context, input FetchProfilePublishesInput) (PublishesPage, error) {
	if input.CreatorID == uuid.Nil {
		return PublishesPage{}, pkgerrors.BadInput()
	}
	q := CreatorKind(Listed(s.repo.Query(ctx)).Where("publishes.creator_id = ?", input.CreatorID), input.PublishType)
	return s.page(ctx, q, input.OrderBy, input.Cursor, input.RequestorID)
}

func (s *service) FetchPublishesByTag(ctx context.Context, input FetchByTagInput) (PublishesPage, error) {
	terms := Terms(input.Tag)
	if len(terms) == 0 {
		return PublishesPage{}, pkgerrors.BadInput()
	}
	q := SearchKind(Public(s.repo.Query(ctx), input.RequestorID), input.PublishType)
	q = MatchAll(q, terms, "publishes.tags")
	return s.page(ctx, q, enums.PublishOrderByLatest, input.Cursor, input.RequestorID)
}

func (s *service) FetchPublishesByQueryString(ctx context.Context, input FetchByQueryInput) (PublishesPage, error) {
	terms := Terms(input.Query)
	if len(terms) == 0 {
		return PublishesPage{}, pkgerrors.BadInput()
	}
	q := SearchKind(Public(s.repo.Query(ctx), input.RequestorID), input.PublishType)
	q = MatchAll(q, terms, "publishes.tags", "publishes.title", "publishes.description")
	return s.page(ctx, q, enums.PublishOrderByLatest, input.Cursor, input.RequestorID)
}

func (s *service) page(ctx context.Context, q *gorm.DB, orderBy enums.PublishOrderBy, cursor string, requestorID *uuid.UUID) (PublishesPage, error) {
	page, err := s.repo.Page(ctx, q, orderBy, cursor)
	if err != nil {
		return PublishesPage{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list publishes")
	}
	return s.enrich.Page(ctx, page, requestorID)
}

// ownPublish loads publishID and checks it belongs to creator.
func (s *service) ownPublish(ctx context.Context, creator *models.Profile, publishID uuid.UUID) (*models.Publish, error) {
	if publishID == uuid.Nil {
		return nil, pkgerrors.BadInput()
	}
	publish, err := s.repo.FindByID(ctx, publishID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, pkgerrors.MessageNotFound)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load publish")
	}
	if publish.CreatorID != creator.ID {
		return nil, pkgerrors.Unauthorized()
	}
	return publish, nil
}

// announce publishes id to the processing topic. Failures are logged by the
// announcer and never reach the caller.
func (s *service) announce(ctx context.Context, id uuid.UUID) {
	_ = s.processing.Announce(ctx, id.String())
}

func trimmed(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	if t == "" {
		return nil
	}
	return &t
}
