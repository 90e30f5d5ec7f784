package comments

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/clipstream-backend/internal/authenticity"
	"github.com/angelmondragon/clipstream-backend/internal/notifications"
	"github.com/angelmondragon/clipstream-backend/internal/publishes"
	"github.com/angelmondragon/clipstream-backend/pkg/db/models"
	"github.com/angelmondragon/clipstream-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/clipstream-backend/pkg/errors"
	"github.com/angelmondragon/clipstream-backend/pkg/logger"
	"github.com/angelmondragon/clipstream-backend/pkg/outbox"
	"github.com/angelmondragon/clipstream-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/clipstream-backend/pkg/pagination"
)

// MaxBlogCommentWords caps the length of a blog comment.
const MaxBlogCommentWords = 5000

// MessageTooLong is returned for blog comments over MaxBlogCommentWords.
const MessageTooLong = "Comment is too long."

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

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// FetchByPublishInput pages the top-level comments of a publish.
type FetchByPublishInput struct {
	RequestorID *uuid.UUID            `json:"requestorId"`
	PublishID   uuid.UUID             `json:"publishId" validate:"required"`
	Cursor      string                `json:"cursor"`
	OrderBy     enums.CommentsOrderBy `json:"orderBy"`
}

// FetchRepliesInput pages the replies of a comment.
type FetchRepliesInput struct {
	RequestorID *uuid.UUID `json:"requestorId"`
	CommentID   uuid.UUID  `json:"commentId" validate:"required"`
	Cursor      string     `json:"cursor"`
}

// CommentInput comments on a publish or replies to one of its comments.
type CommentInput struct {
	authenticity.Actor
	PublishID       uuid.UUID         `json:"publishId" validate:"required"`
	CommentType     enums.CommentType `json:"commentType" validate:"required"`
	CommentID       *uuid.UUID        `json:"commentId"`
	Content         *string           `json:"content"`
	ContentBlog     json.RawMessage   `json:"contentBlog"`
	HTMLContentBlog *string           `json:"htmlContentBlog"`
}

// ReactInput likes or dislikes a comment.
type ReactInput struct {
	authenticity.Actor
	PublishID uuid.UUID `json:"publishId"`
	CommentID uuid.UUID `json:"commentId" validate:"required"`
}

// DeleteInput deletes a comment of the acting profile.
type DeleteInput struct {
	authenticity.Actor
	CommentID uuid.UUID `json:"commentId" validate:"required"`
}

// Service defines comment operations.
type Service interface {
	FetchCommentsByPublishID(ctx context.Context, input FetchByPublishInput) (CommentsPage, error)
	FetchSubComments(ctx context.Context, input FetchRepliesInput) (CommentsPage, error)
	Comment(ctx context.Context, input CommentInput) error
	LikeComment(ctx context.Context, input ReactInput) error
	DisLikeComment(ctx context.Context, input ReactInput) error
	DeleteComment(ctx context.Context, input DeleteInput) error
}

// ServiceParams bundles the dependencies of the comment service.
type ServiceParams struct {
	Repo       *Repository
	Tx         txRunner
	Guard      *authenticity.Guard
	Notifier   notifier
	Processing announcer
	Events     eventEmitter
	Logger     *logger.Logger
}

type service struct {
	repo       *Repository
	tx         txRunner
	guard      *authenticity.Guard
	notifier   notifier
	processing announcer
	events     eventEmitter
	logg       *logger.Logger
}

// NewService wires comment dependencies.
func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.Repo == nil:
		return nil, errors.New("comments repository required")
	case params.Tx == nil:
		return nil, errors.New("transaction runner required")
	case params.Guard == nil:
		return nil, errors.New("authenticity guard required")
	case params.Notifier == nil:
		return nil, errors.New("notifier required")
	case params.Processing == nil:
		return nil, errors.New("processing announcer required")
	case params.Events == nil:
		return nil, errors.New("event emitter required")
	case params.Logger == nil:
		return nil, errors.New("logger required")
	}
	return &service{
		repo:       params.Repo,
		tx:         params.Tx,
		guard:      params.Guard,
		notifier:   params.Notifier,
		processing: params.Processing,
		events:     params.Events,
		logg:       params.Logger,
	}, nil
}

func (s *service) FetchCommentsByPublishID(ctx context.Context, input FetchByPublishInput) (CommentsPage, error) {
	if input.PublishID == uuid.Nil {
		return CommentsPage{}, pkgerrors.BadInput()
	}
	page, err := s.repo.ListByPublish(ctx, input.PublishID, input.OrderBy, input.Cursor)
	if err != nil {
		return CommentsPage{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list comments")
	}
	return s.describe(ctx, page, input.RequestorID)
}

func (s *service) FetchSubComments(ctx context.Context, input FetchRepliesInput) (CommentsPage, error) {
	if input.CommentID == uuid.Nil {
		return CommentsPage{}, pkgerrors.BadInput()
	}
	page, err := s.repo.ListReplies(ctx, input.CommentID, input.Cursor)
	if err != nil {
		return CommentsPage{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list replies")
	}
	return s.describe(ctx, page, input.RequestorID)
}

func (s *service) Comment(ctx context.Context, input CommentInput) error {
	if input.PublishID == uuid.Nil || !input.CommentType.IsValid() {
		return pkgerrors.BadInput()
	}
	if input.CommentType == enums.CommentTypeComment && (input.CommentID == nil || *input.CommentID == uuid.Nil) {
		return pkgerrors.BadInput()
	}
	account, profile, err := s.guard.Profile(ctx, input.Actor)
	if err != nil {
		return err
	}
	publish, err := s.repo.FindPublish(ctx, input.PublishID)
	if err != nil {
		return notFoundOr(err, "load publish")
	}

	comment := models.Comment{
		CreatorID:   profile.ID,
		PublishID:   publish.ID,
		CommentType: input.CommentType,
	}
	if input.CommentType == enums.CommentTypeComment {
		parent, err := s.repo.FindByID(ctx, *input.CommentID)
		if err != nil {
			return notFoundOr(err, "load parent comment")
		}
		if parent.PublishID != publish.ID {
			return pkgerrors.New(pkgerrors.CodeBadRequest, "Bad request")
		}
		comment.CommentID = &parent.ID
	}

	if publish.PublishType != nil && *publish.PublishType == enums.PublishTypeBlog {
		html := ""
		if input.HTMLContentBlog != nil {
			html = strings.TrimSpace(*input.HTMLContentBlog)
		}
		if len(input.ContentBlog) == 0 || string(input.ContentBlog) == "null" || html == "" {
			return pkgerrors.BadInput()
		}
		if publishes.CountWords(html) > MaxBlogCommentWords {
			return pkgerrors.New(pkgerrors.CodeBadUserInput, MessageTooLong)
		}
		comment.ContentBlog = input.ContentBlog
		comment.HTMLContentBlog = &html
	} else {
		if input.Content == nil || strings.TrimSpace(*input.Content) == "" {
			return pkgerrors.BadInput()
		}
		content := strings.TrimSpace(*input.Content)
		comment.Content = &content
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, &comment); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create comment")
		}
		notification := models.Notification{
			ProfileID:  profile.ID,
			ReceiverID: publish.CreatorID,
			Type:       enums.NotificationTypeComment,
			Content:    notifications.ContentComment(profile.Name, publish.Title, publish.PublishType),
			Status:     enums.ReadStatusUnread,
		}
		if err := s.notifier.Record(ctx, tx, notification); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record comment notification")
		}
		event := outbox.DomainEvent{
			EventType:     enums.EventCommentCreated,
			AggregateType: enums.AggregateComment,
			AggregateID:   comment.ID,
			Actor:         &outbox.ActorRef{ProfileID: profile.ID, AccountID: &account.ID},
			Data: payloads.CommentCreatedEvent{
				CommentID:   comment.ID,
				PublishID:   publish.ID,
				CreatorID:   profile.ID,
				ParentID:    comment.CommentID,
				CommentType: comment.CommentType,
			},
		}
		if err := s.events.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit comment event")
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.notifier.Announce(ctx, publish.CreatorID)
	_ = s.processing.Announce(ctx, publish.ID.String())
	return nil
}

func (s *service) LikeComment(ctx context.Context, input ReactInput) error {
	profile, comment, err := s.reactor(ctx, input)
	if err != nil {
		return err
	}
	liked := false
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		created, err := s.repo.WithTx(tx).ToggleLike(ctx, profile.ID, comment.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "toggle comment like")
		}
		liked = created
		if !created {
			return nil
		}
		notification := models.Notification{
			ProfileID:  profile.ID,
			ReceiverID: comment.CreatorID,
			Type:       enums.NotificationTypeLike,
			Content:    notifications.ContentLikeComment(profile.Name),
			Status:     enums.ReadStatusUnread,
		}
		if err := s.notifier.Record(ctx, tx, notification); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record like notification")
		}
		return nil
	})
	if err != nil {
		return err
	}
	if liked {
		s.notifier.Announce(ctx, comment.CreatorID)
	}
	return nil
}

func (s *service) DisLikeComment(ctx context.Context, input ReactInput) error {
	profile, comment, err := s.reactor(ctx, input)
	if err != nil {
		return err
	}
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if _, err := s.repo.WithTx(tx).ToggleDislike(ctx, profile.ID, comment.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "toggle comment dislike")
		}
		return nil
	})
}

func (s *service) reactor(ctx context.Context, input ReactInput) (*models.Profile, *models.Comment, error) {
	if input.CommentID == uuid.Nil {
		return nil, nil, pkgerrors.BadInput()
	}
	_, profile, err := s.guard.Profile(ctx, input.Actor)
	if err != nil {
		return nil, nil, err
	}
	comment, err := s.repo.FindByID(ctx, input.CommentID)
	if err != nil {
		return nil, nil, notFoundOr(err, "load comment")
	}
	return profile, comment, nil
}

func (s *service) DeleteComment(ctx context.Context, input DeleteInput) error {
	if input.CommentID == uuid.Nil {
		return pkgerrors.BadInput()
	}
	_, profile, err := s.guard.Profile(ctx, input.Actor)
	if err != nil {
		return err
	}
	comment, err := s.repo.FindByID(ctx, input.CommentID)
	if err != nil {
		return notFoundOr(err, "load comment")
	}
	if comment.CreatorID != profile.ID {
		return pkgerrors.Unauthorized()
	}
	if err := s.repo.Delete(ctx, comment.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete comment")
	}
	return nil
}

// describe fills counters and, with a requestor, the reaction flags.
func (s *service) describe(ctx context.Context, page pagination.Page[models.Comment], requestorID *uuid.UUID) (CommentsPage, error) {
	nodes := page.Nodes()
	ids := make([]uuid.UUID, 0, len(nodes))
	for _, c := range nodes {
		ids = append(ids, c.ID)
	}
	counts, err := s.repo.Counts(ctx, ids)
	if err != nil {
		return CommentsPage{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count comment relations")
	}
	var flags map[uuid.UUID]Flags
	withFlags := requestorID != nil && *requestorID != uuid.Nil
	if withFlags {
		if flags, err = s.repo.Flags(ctx, *requestorID, ids); err != nil {
			return CommentsPage{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load comment flags")
		}
	}
	return pagination.Map(page, func(c models.Comment) CommentDTO {
		dto := ToDTO(c)
		n := counts[c.ID]
		dto.LikesCount, dto.DisLikesCount, dto.CommentsCount = n.Likes, n.Dislikes, n.Replies
		if withFlags {
			f := flags[c.ID]
			dto.Liked, dto.DisLiked = &f.Liked, &f.Disliked
		}
		return dto
	}), nil
}

func notFoundOr(err error, op string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, pkgerrors.MessageNotFound)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, op)
}
