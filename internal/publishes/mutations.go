package publishes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/angelmondragon/clipstream-backend/internal/authenticity"
	"github.com/angelmondragon/clipstream-backend/internal/notifications"
	"github.com/angelmondragon/clipstream-backend/pkg/db/models"
	"github.com/angelmondragon/clipstream-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/clipstream-backend/pkg/errors"
	"github.com/angelmondragon/clipstream-backend/pkg/outbox"
	"github.com/angelmondragon/clipstream-backend/pkg/outbox/payloads"
)

// VideoRef is the storage prefix holding the uploaded files of a publish.
func VideoRef(creatorName string, publishID uuid.UUID) string {
	return fmt.Sprintf("publishes/%s/%s/", creatorName, publishID)
}

func (s *service) CreateDraftVideo(ctx context.Context, input CreateDraftVideoInput) (DraftVideoResult, error) {
	filename := strings.TrimSpace(input.Filename)
	if filename == "" || input.CreatorID == uuid.Nil {
		return DraftVideoResult{}, pkgerrors.BadInput()
	}
	_, creator, err := s.guard.Profile(ctx, input.Actor())
	if err != nil {
		return DraftVideoResult{}, err
	}
	draft := models.Publish{
		CreatorID: creator.ID,
		Title:     &filename,
		Filename:  &filename,
		Uploading: true,
	}
	if err := s.repo.Create(ctx, &draft); err != nil {
		return DraftVideoResult{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create video draft")
	}
	s.announce(ctx, draft.ID)
	return DraftVideoResult{ID: draft.ID, Filename: filename}, nil
}

func (s *service) CreateDraftBlog(ctx context.Context, input CreateDraftBlogInput) (DraftBlogResult, error) {
	if input.CreatorID == uuid.Nil {
		return DraftBlogResult{}, pkgerrors.BadInput()
	}
	_, creator, err := s.guard.Profile(ctx, input.Actor())
	if err != nil {
		return DraftBlogResult{}, err
	}
	blogType := enums.PublishTypeBlog
	draft := models.Publish{
		CreatorID:     creator.ID,
		PublishType:   &blogType,
		ThumbnailType: enums.ThumbnailTypeCustom,
	}
	if err := s.repo.Create(ctx, &draft); err != nil {
		return DraftBlogResult{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create blog draft")
	}
	s.announce(ctx, draft.ID)
	return DraftBlogResult{ID: draft.ID}, nil
}

func (s *service) UpdateVideo(ctx context.Context, input UpdateVideoInput) (PublishDTO, error) {
	if !input.ThumbnailType.IsValid() || !validCategory(input.PrimaryCategory) || !validCategory(input.SecondaryCategory) {
		return PublishDTO{}, pkgerrors.BadInput()
	}
	if input.Visibility != nil && !input.Visibility.IsValid() {
		return PublishDTO{}, pkgerrors.BadInput()
	}
	if input.BroadcastType != nil && !input.BroadcastType.IsValid() {
		return PublishDTO{}, pkgerrors.BadInput()
	}
	_, creator, err := s.guard.Profile(ctx, input.Actor())
	if err != nil {
		return PublishDTO{}, err
	}
	publish, err := s.ownPublish(ctx, creator, input.PublishID)
	if err != nil {
		return PublishDTO{}, err
	}
	if input.BroadcastType != nil && publish.StreamType != enums.StreamTypeLive {
		return PublishDTO{}, pkgerrors.New(pkgerrors.CodeBadRequest, "Broadcast type only applies to live streams.")
	}

	visibility := enums.VisibilityPrivate
	if input.Visibility != nil {
		visibility = *input.Visibility
	}
	updates := map[string]any{
		"thumbnail_type": input.ThumbnailType,
		"visibility":     visibility,
	}
	if input.BroadcastType != nil {
		updates["broadcast_type"] = *input.BroadcastType
	}
	set := func(column string, v *string) {
		if v != nil {
			updates[column] = *v
		}
	}
	set("content_uri", input.ContentURI)
	set("content_ref", input.ContentRef)
	set("thumbnail", input.Thumbnail)
	set("thumbnail_ref", input.ThumbnailRef)
	set("title", input.Title)
	set("description", input.Description)
	set("tags", input.Tags)
	if input.PrimaryCategory != nil {
		updates["primary_category"] = *input.PrimaryCategory
	}
	if input.SecondaryCategory != nil {
		updates["secondary_category"] = *input.SecondaryCategory
	}

	if err := s.repo.UpdateColumns(ctx, publish.ID, updates); err != nil {
		return PublishDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update video")
	}
	if replaced(publish.ThumbnailRef, input.ThumbnailRef) {
		s.media.DeleteImage(ctx, publish.ThumbnailRef)
	}
	s.announce(ctx, publish.ID)

	updated, err := s.repo.FindByID(ctx, publish.ID)
	if err != nil {
		return PublishDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload publish")
	}
	return s.enrich.One(ctx, *updated, &creator.ID)
}

func (s *service) UpdateBlog(ctx context.Context, input UpdateBlogInput) error {
	if !validCategory(input.PrimaryCategory) || !validCategory(input.SecondaryCategory) {
		return pkgerrors.BadInput()
	}
	if input.Visibility != nil && !input.Visibility.IsValid() {
		return pkgerrors.BadInput()
	}
	_, creator, err := s.guard.Profile(ctx, input.Actor())
	if err != nil {
		return err
	}
	publish, err := s.ownPublish(ctx, creator, input.PublishID)
	if err != nil {
		return err
	}
	if publish.PublishType == nil || *publish.PublishType != enums.PublishTypeBlog {
		return pkgerrors.New(pkgerrors.CodeNotFound, pkgerrors.MessageNotFound)
	}

	title := trimmed(input.Title)
	html := trimmed(input.HTMLContent)
	hasContent := len(input.Content) > 0 && string(input.Content) != "null"
	public := input.Visibility != nil && *input.Visibility == enums.VisibilityPublic
	hasTitle := title != nil || trimmed(publish.Title) != nil

	var readingTime, excerpt *string
	if preview := trimmed(input.Preview); preview != nil {
		rt, ex := ReadingTime(*preview), Excerpt(*preview)
		readingTime, excerpt = &rt, &ex
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		blog, err := repo.FindBlog(ctx, publish.ID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load blog")
		}

		if blog == nil {
			if public && (!hasTitle || !hasContent || html == nil) {
				return pkgerrors.New(pkgerrors.CodeBadRequest, "Bad request")
			}
			content := input.Content
			if !hasContent {
				content = []byte("{}")
			}
			if err := repo.CreateBlog(ctx, &models.Blog{
				PublishID:   publish.ID,
				Content:     content,
				HTMLContent: html,
				ReadingTime: readingTime,
				Excerpt:     excerpt,
			}); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create blog")
			}
		} else {
			if public && (!hasTitle || (html == nil && trimmed(blog.HTMLContent) == nil) || (!hasContent && len(blog.Content) == 0)) {
				return pkgerrors.New(pkgerrors.CodeBadRequest, "Bad request")
			}
			updates := map[string]any{}
			if hasContent {
				updates["content"] = []byte(input.Content)
			}
			if html != nil {
				updates["html_content"] = *html
			}
			if readingTime != nil {
				updates["reading_time"] = *readingTime
				updates["excerpt"] = *excerpt
			}
			if len(updates) > 0 {
				if err := repo.UpdateBlog(ctx, publish.ID, updates); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update blog")
				}
			}
		}

		updates := map[string]any{}
		if title != nil {
			updates["title"] = *title
		}
		if input.ImageURL != nil {
			updates["thumbnail"] = *input.ImageURL
		}
		if input.ImageRef != nil {
			updates["thumbnail_ref"] = *input.ImageRef
		}
		if input.Filename != nil {
			updates["filename"] = *input.Filename
		}
		if tags := trimmed(input.Tags); tags != nil {
			updates["tags"] = *tags
		}
		if input.Visibility != nil {
			updates["visibility"] = *input.Visibility
		}
		if input.PrimaryCategory != nil {
			updates["primary_category"] = *input.PrimaryCategory
		}
		if input.SecondaryCategory != nil {
			updates["secondary_category"] = *input.SecondaryCategory
		}
		if len(updates) == 0 {
			return nil
		}
		if err := repo.UpdateColumns(ctx, publish.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update blog publish")
		}
		return nil
	})
	if err != nil {
		return err
	}
	if replaced(publish.ThumbnailRef, input.ImageRef) {
		s.media.DeleteImage(ctx, publish.ThumbnailRef)
	}
	s.announce(ctx, publish.ID)
	return nil
}

func (s *service) LikePublish(ctx context.Context, input ReactInput) error {
	_, profile, publish, err := s.reactor(ctx, input)
	if err != nil {
		return err
	}

	liked := false
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		created, err := s.repo.WithTx(tx).ToggleLike(ctx, profile.ID, publish.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "toggle like")
		}
		liked = created
		if !created {
			return nil
		}
		notification := models.Notification{
			ProfileID:  profile.ID,
			ReceiverID: publish.CreatorID,
			Type:       enums.NotificationTypeLike,
			Content:    notifications.ContentLikePublish(profile.Name, publish.Title, publish.PublishType),
			Status:     enums.ReadStatusUnread,
		}
		if err := s.notifier.Record(ctx, tx, notification); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record like notification")
		}
		event := outbox.DomainEvent{
			EventType:     enums.EventPublishLiked,
			AggregateType: enums.AggregatePublish,
			AggregateID:   publish.ID,
			Actor:         &outbox.ActorRef{ProfileID: profile.ID, AccountID: &profile.AccountID},
			Data: payloads.PublishLikedEvent{
				PublishID: publish.ID,
				CreatorID: publish.CreatorID,
				ProfileID: profile.ID,
			},
		}
		if err := s.events.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit like event")
		}
		return nil
	})
	if err != nil {
		return err
	}
	if liked {
		s.notifier.Announce(ctx, publish.CreatorID)
	}
	s.announce(ctx, publish.ID)
	return nil
}

func (s *service) DisLikePublish(ctx context.Context, input ReactInput) error {
	_, profile, publish, err := s.reactor(ctx, input)
	if err != nil {
		return err
	}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if _, err := s.repo.WithTx(tx).ToggleDislike(ctx, profile.ID, publish.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "toggle dislike")
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.announce(ctx, publish.ID)
	return nil
}

// reactor authenticates the acting profile and loads the target publish.
func (s *service) reactor(ctx context.Context, input ReactInput) (*models.Account, *models.Profile, *models.Publish, error) {
	if input.PublishID == uuid.Nil {
		return nil, nil, nil, pkgerrors.BadInput()
	}
	account, profile, err := s.guard.Profile(ctx, input.Actor)
	if err != nil {
		return nil, nil, nil, err
	}
	publish, err := s.repo.FindByID(ctx, input.PublishID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, pkgerrors.MessageNotFound)
		}
		return nil, nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load publish")
	}
	return account, profile, publish, nil
}

func (s *service) CountViews(ctx context.Context, input CountViewsInput) error {
	if input.PublishID == uuid.Nil {
		return pkgerrors.BadInput()
	}
	publish, err := s.repo.FindByID(ctx, input.PublishID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, pkgerrors.MessageNotFound)
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load publish")
	}
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		views, err := s.repo.WithTx(tx).IncrementViews(ctx, publish.ID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, pkgerrors.MessageNotFound)
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count view")
		}
		event := outbox.DomainEvent{
			EventType:     enums.EventPublishViewed,
			AggregateType: enums.AggregatePublish,
			AggregateID:   publish.ID,
			Data: payloads.PublishViewedEvent{
				PublishID:   publish.ID,
				CreatorID:   publish.CreatorID,
				ViewerID:    input.ViewerID,
				PublishType: publish.PublishType,
				Views:       views,
			},
		}
		if input.ViewerID != nil && *input.ViewerID != uuid.Nil {
			event.Actor = &outbox.ActorRef{ProfileID: *input.ViewerID}
		}
		if err := s.events.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit view event")
		}
		return nil
	})
}

func (s *service) DeletePublish(ctx context.Context, input DeletePublishInput) error {
	if input.PublishID == uuid.Nil {
		return pkgerrors.BadInput()
	}
	_, creator, err := s.guard.Profile(ctx, input.Actor())
	if err != nil {
		return err
	}
	return s.deleteOne(ctx, creator, input.PublishID)
}

// DeletePublishes deletes every id concurrently. One failure does not stop
// the others; all failures are returned together in input order.
func (s *service) DeletePublishes(ctx context.Context, input DeletePublishesInput) error {
	if len(input.PublishIDs) == 0 {
		return pkgerrors.BadInput()
	}
	_, creator, err := s.guard.Profile(ctx, input.Actor())
	if err != nil {
		return err
	}

	outcomes := make([]error, len(input.PublishIDs))
	var wg sync.WaitGroup
	for i, id := range input.PublishIDs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.deleteOne(ctx, creator, id); err != nil {
				outcomes[i] = fmt.Errorf("publish %s: %w", id, err)
			}
		}()
	}
	wg.Wait()

	errs := multierr.Combine(outcomes...)
	if errs == nil {
		return nil
	}
	// The first failure in input order decides the code.
	failures := multierr.Errors(errs)
	code := pkgerrors.CodeDependency
	if first := pkgerrors.As(failures[0]); first != nil {
		code = first.Code()
	}
	s.logg.Error(s.logg.WithField(ctx, "failed", len(failures)), "delete publishes", errs)
	return pkgerrors.Wrap(code, errs, fmt.Sprintf("%d of %d publishes could not be deleted", len(failures), len(input.PublishIDs)))
}

// deleteOne removes a publish of creator. Videos and shorts are flagged as
// deleting while their files are removed in the background; other kinds
// are deleted at once.
func (s *service) deleteOne(ctx context.Context, creator *models.Profile, publishID uuid.UUID) error {
	publish, err := s.ownPublish(ctx, creator, publishID)
	if err != nil {
		return err
	}
	videoID := ""
	if publish.Playback != nil {
		videoID = publish.Playback.VideoID
	}
	ref := VideoRef(creator.Name, publish.ID)

	kind := enums.PublishType("")
	if publish.PublishType != nil {
		kind = *publish.PublishType
	}
	switch kind {
	case enums.PublishTypeVideo, enums.PublishTypeShort:
		if err := s.repo.UpdateColumns(ctx, publish.ID, map[string]any{"deleting": true}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "flag publish deleting")
		}
		s.media.DeleteVideo(ctx, ref, publish.ID.String(), videoID)
		s.media.DeleteStreamVideo(ctx, videoID)
		s.announce(ctx, publish.ID)
	case enums.PublishTypeBlog:
		s.media.DeleteImage(ctx, publish.ThumbnailRef)
		if err := s.repo.Delete(ctx, publish.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete publish")
		}
	default:
		if err := s.repo.Delete(ctx, publish.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete publish")
		}
		if publish.ContentRef != nil {
			s.media.DeleteVideo(ctx, ref, publish.ID.String(), videoID)
		}
		s.media.DeleteStreamVideo(ctx, videoID)
	}
	return nil
}

func (s *service) CalculateTips(ctx context.Context, input CalculateTipsInput) (CalculateTipsResult, error) {
	if input.Qty <= 0 {
		return CalculateTipsResult{}, pkgerrors.BadInput()
	}
	tips, err := s.wallet.CalculateTips(ctx, authenticity.CredentialsFromContext(ctx).IDToken, input.Qty)
	if err != nil {
		return CalculateTipsResult{}, err
	}
	return CalculateTipsResult{Tips: tips}, nil
}

func (s *service) SendTips(ctx context.Context, input SendTipsInput) (SendTipsResult, error) {
	if input.Qty <= 0 || input.PublishID == uuid.Nil || input.ReceiverID == uuid.Nil {
		return SendTipsResult{}, pkgerrors.BadInput()
	}
	account, sender, err := s.guard.Profile(ctx, input.Actor)
	if err != nil {
		return SendTipsResult{}, err
	}
	receiver, err := s.guard.LoadProfile(ctx, input.ReceiverID)
	if err != nil {
		return SendTipsResult{}, err
	}
	if _, err := s.repo.FindByID(ctx, input.PublishID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return SendTipsResult{}, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, pkgerrors.MessageNotFound)
		}
		return SendTipsResult{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load publish")
	}

	result, err := s.wallet.SendTips(ctx, authenticity.CredentialsFromContext(ctx).IDToken, receiver.Owner, input.Qty)
	if err != nil {
		return SendTipsResult{}, err
	}
	amount, err := decimal.NewFromString(result.Amount)
	if err != nil {
		return SendTipsResult{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "parse tip amount")
	}
	fee, err := decimal.NewFromString(result.Fee)
	if err != nil {
		return SendTipsResult{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "parse tip fee")
	}

	tip := models.Tip{
		SenderID:   sender.ID,
		From:       strings.ToLower(result.From),
		PublishID:  input.PublishID,
		ReceiverID: receiver.ID,
		To:         strings.ToLower(result.To),
		Amount:     amount,
		Fee:        fee,
	}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).CreateTip(ctx, &tip); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record tip")
		}
		event := outbox.DomainEvent{
			EventType:     enums.EventTipSent,
			AggregateType: enums.AggregateTip,
			AggregateID:   tip.ID,
			Actor:         &outbox.ActorRef{ProfileID: sender.ID, AccountID: &account.ID},
			Data: payloads.TipSentEvent{
				TipID:      tip.ID,
				PublishID:  tip.PublishID,
				SenderID:   tip.SenderID,
				ReceiverID: tip.ReceiverID,
				Amount:     amount,
				Fee:        fee,
			},
		}
		if err := s.events.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit tip event")
		}
		return nil
	})
	if err != nil {
		// The transfer already settled; the caller still gets its receipt.
		s.logg.Error(s.logg.WithField(ctx, "publish_id", input.PublishID.String()), "record tip", err)
	}
	return SendTipsResult{From: result.From, To: result.To, Amount: result.Amount, Fee: result.Fee}, nil
}

func validCategory(c *enums.Category) bool {
	return c == nil || c.IsValid()
}

// replaced reports whether next names a different stored object than prev.
func replaced(prev, next *string) bool {
	return prev != nil && strings.TrimSpace(*prev) != "" && next != nil && *next != *prev
}
