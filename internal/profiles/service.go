package profiles

import (
	"context"
	"errors"
	"math/rand/v2"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/angelmondragon/clipstream-backend/internal/authenticity"
	"github.com/angelmondragon/clipstream-backend/internal/notifications"
	"github.com/angelmondragon/clipstream-backend/pkg/db"
	"github.com/angelmondragon/clipstream-backend/pkg/db/models"
	"github.com/angelmondragon/clipstream-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/clipstream-backend/pkg/errors"
	"github.com/angelmondragon/clipstream-backend/pkg/logger"
	"github.com/angelmondragon/clipstream-backend/pkg/pagination"
)

// MessageNameTaken is returned when a profile name is already in use.
const MessageNameTaken = "This name was taken."

// Palette holds the colors assigned to new profiles.
var Palette = []string{
	"#be123c",
	"#15803d",
	"#a21caf",
	"#0f766e",
	"#6d28d9",
	"#4338ca",
	"#b45309",
	"#c2410c",
	"#0e7490",
	"#b45309",
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type notifier interface {
	Record(ctx context.Context, tx *gorm.DB, notification models.Notification) error
	Announce(ctx context.Context, receiverID uuid.UUID)
}

type imageCleaner interface {
	DeleteImage(ctx context.Context, ref *string)
}

// GetByIDInput reads one profile. RequestorID fills the viewer flags.
type GetByIDInput struct {
	TargetID    uuid.UUID  `json:"targetId" validate:"required"`
	RequestorID *uuid.UUID `json:"requestorId"`
}

// GetByNameInput reads one profile by name.
type GetByNameInput struct {
	Name        string     `json:"name" validate:"required"`
	RequestorID *uuid.UUID `json:"requestorId"`
}

// CreateInput creates a profile under an account.
type CreateInput struct {
	Owner     string    `json:"owner" validate:"required"`
	AccountID uuid.UUID `json:"accountId" validate:"required"`
	Name      string    `json:"name" validate:"required"`
}

// UpdateNameInput renames the acting profile.
type UpdateNameInput struct {
	authenticity.Actor
	NewName string `json:"newName" validate:"required"`
}

// UpdateImageInput replaces the acting profile's avatar or banner.
type UpdateImageInput struct {
	authenticity.Actor
	Image    string `json:"image" validate:"required"`
	ImageRef string `json:"imageRef" validate:"required"`
}

// UpdatePreferencesInput replaces a preferences list.
type UpdatePreferencesInput struct {
	authenticity.Actor
	Preferences []enums.Category `json:"preferences" validate:"required,dive,enum"`
}

// FollowInput toggles the acting profile's follow of FollowingID.
type FollowInput struct {
	authenticity.Actor
	FollowingID uuid.UUID `json:"followingId" validate:"required"`
}

// FollowsInput selects a page of follow edges of the acting profile.
type FollowsInput struct {
	authenticity.Actor
	Cursor string `json:"cursor"`
}

// Service defines profile operations.
type Service interface {
	GetProfileByID(ctx context.Context, input GetByIDInput) (*ProfileDTO, error)
	GetProfileByName(ctx context.Context, input GetByNameInput) (*ProfileDTO, error)
	ValidateName(ctx context.Context, name string) bool
	CreateProfile(ctx context.Context, input CreateInput) (ProfileDTO, error)
	UpdateName(ctx context.Context, input UpdateNameInput) error
	UpdateDisplayName(ctx context.Context, input UpdateNameInput) error
	UpdateProfileImage(ctx context.Context, input UpdateImageInput) error
	UpdateBannerImage(ctx context.Context, input UpdateImageInput) error
	UpdateWatchPreferences(ctx context.Context, input UpdatePreferencesInput) error
	UpdateReadPreferences(ctx context.Context, input UpdatePreferencesInput) error
	Follow(ctx context.Context, input FollowInput) error
	FetchMyFollowing(ctx context.Context, input FollowsInput) FollowsPage
	FetchMyFollowers(ctx context.Context, input FollowsInput) FollowsPage
}

type service struct {
	repo     *Repository
	tx       txRunner
	guard    *authenticity.Guard
	notifier notifier
	images   imageCleaner
	logg     *logger.Logger
	color    func() string
}

// NewService wires profile dependencies.
func NewService(repo *Repository, tx txRunner, guard *authenticity.Guard, notifier notifier, images imageCleaner, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, errors.New("profiles repository required")
	}
	if tx == nil {
		return nil, errors.New("transaction runner required")
	}
	if guard == nil {
		return nil, errors.New("authenticity guard required")
	}
	if notifier == nil {
		return nil, errors.New("notifier required")
	}
	if images == nil {
		return nil, errors.New("image cleaner required")
	}
	if logg == nil {
		return nil, errors.New("logger required")
	}
	return &service{
		repo:     repo,
		tx:       tx,
		guard:    guard,
		notifier: notifier,
		images:   images,
		logg:     logg,
		color:    randomColor,
	}, nil
}

func randomColor() string {
	return Palette[rand.IntN(len(Palette))]
}

func (s *service) GetProfileByID(ctx context.Context, input GetByIDInput) (*ProfileDTO, error) {
	if input.TargetID == uuid.Nil {
		return nil, pkgerrors.BadInput()
	}
	profile, err := s.repo.FindByID(ctx, input.TargetID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load profile")
	}
	dto, err := s.describe(ctx, *profile, input.RequestorID)
	if err != nil {
		return nil, err
	}
	return &dto, nil
}

func (s *service) GetProfileByName(ctx context.Context, input GetByNameInput) (*ProfileDTO, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, nil
	}
	profile, err := s.repo.FindByName(ctx, input.Name)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logg.Error(s.logg.WithField(ctx, "name", input.Name), "load profile by name", err)
		}
		return nil, nil
	}
	dto, err := s.describe(ctx, *profile, input.RequestorID)
	if err != nil {
		s.logg.Error(ctx, "describe profile", err)
		return nil, nil
	}
	return &dto, nil
}

func (s *service) ValidateName(ctx context.Context, name string) bool {
	if strings.TrimSpace(name) == "" {
		return false
	}
	taken, err := s.repo.NameTaken(ctx, name)
	if err != nil {
		s.logg.Error(ctx, "validate profile name", err)
		return false
	}
	return !taken
}

func (s *service) CreateProfile(ctx context.Context, input CreateInput) (ProfileDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" || input.AccountID == uuid.Nil || strings.TrimSpace(input.Owner) == "" {
		return ProfileDTO{}, pkgerrors.BadInput()
	}
	account, err := s.guard.Account(ctx, input.AccountID, input.Owner)
	if err != nil {
		return ProfileDTO{}, err
	}

	color := s.color()
	profile := models.Profile{
		Owner:        strings.ToLower(account.Owner),
		Name:         strings.ToLower(name),
		DisplayName:  name,
		AccountID:    account.ID,
		DefaultColor: &color,
	}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		taken, err := repo.NameTaken(ctx, name)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check profile name")
		}
		if taken {
			return pkgerrors.New(pkgerrors.CodeBadRequest, MessageNameTaken)
		}
		if err := repo.Create(ctx, &profile); err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.Wrap(pkgerrors.CodeBadRequest, err, MessageNameTaken)
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create profile")
		}
		return nil
	})
	if err != nil {
		return ProfileDTO{}, err
	}
	return ToDTO(profile), nil
}

func (s *service) UpdateName(ctx context.Context, input UpdateNameInput) error {
	name := strings.TrimSpace(input.NewName)
	if name == "" {
		return pkgerrors.BadInput()
	}
	_, profile, err := s.guard.Profile(ctx, input.Actor)
	if err != nil {
		return err
	}
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		taken, err := repo.NameTaken(ctx, name)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check profile name")
		}
		if taken {
			return pkgerrors.New(pkgerrors.CodeBadRequest, MessageNameTaken)
		}
		if err := repo.UpdateColumns(ctx, profile.ID, map[string]any{"name": strings.ToLower(name)}); err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.Wrap(pkgerrors.CodeBadRequest, err, MessageNameTaken)
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update profile name")
		}
		return nil
	})
}

func (s *service) UpdateDisplayName(ctx context.Context, input UpdateNameInput) error {
	name := strings.TrimSpace(input.NewName)
	if name == "" {
		return pkgerrors.BadInput()
	}
	return s.update(ctx, input.Actor, "update display name", map[string]any{"display_name": name})
}

func (s *service) UpdateProfileImage(ctx context.Context, input UpdateImageInput) error {
	return s.replaceImage(ctx, input, "image", "image_ref", func(p *models.Profile) *string { return p.ImageRef })
}

func (s *service) UpdateBannerImage(ctx context.Context, input UpdateImageInput) error {
	return s.replaceImage(ctx, input, "banner_image", "banner_image_ref", func(p *models.Profile) *string { return p.BannerImageRef })
}

func (s *service) replaceImage(ctx context.Context, input UpdateImageInput, column, refColumn string, oldRef func(*models.Profile) *string) error {
	if strings.TrimSpace(input.Image) == "" || strings.TrimSpace(input.ImageRef) == "" {
		return pkgerrors.BadInput()
	}
	_, profile, err := s.guard.Profile(ctx, input.Actor)
	if err != nil {
		return err
	}
	previous := oldRef(profile)
	if err := s.repo.UpdateColumns(ctx, profile.ID, map[string]any{
		column:    input.Image,
		refColumn: input.ImageRef,
	}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update profile image")
	}
	if previous != nil && *previous != input.ImageRef {
		s.images.DeleteImage(ctx, previous)
	}
	return nil
}

func (s *service) UpdateWatchPreferences(ctx context.Context, input UpdatePreferencesInput) error {
	prefs, err := preferences(input.Preferences)
	if err != nil {
		return err
	}
	return s.update(ctx, input.Actor, "update watch preferences", map[string]any{"watch_preferences": prefs})
}

func (s *service) UpdateReadPreferences(ctx context.Context, input UpdatePreferencesInput) error {
	prefs, err := preferences(input.Preferences)
	if err != nil {
		return err
	}
	return s.update(ctx, input.Actor, "update read preferences", map[string]any{"read_preferences": prefs})
}

func preferences(values []enums.Category) (pq.StringArray, error) {
	if values == nil {
		return nil, pkgerrors.BadInput()
	}
	out := make(pq.StringArray, 0, len(values))
	for _, v := range values {
		if !v.IsValid() {
			return nil, pkgerrors.BadInput()
		}
		out = append(out, string(v))
	}
	return out, nil
}

func (s *service) update(ctx context.Context, actor authenticity.Actor, op string, updates map[string]any) error {
	_, profile, err := s.guard.Profile(ctx, actor)
	if err != nil {
		return err
	}
	if err := s.repo.UpdateColumns(ctx, profile.ID, updates); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, op)
	}
	return nil
}

func (s *service) Follow(ctx context.Context, input FollowInput) error {
	if input.FollowingID == uuid.Nil {
		return pkgerrors.BadInput()
	}
	_, follower, err := s.guard.Profile(ctx, input.Actor)
	if err != nil {
		return err
	}
	if follower.ID == input.FollowingID {
		return pkgerrors.New(pkgerrors.CodeBadRequest, "A profile cannot follow itself.")
	}
	following, err := s.guard.LoadProfile(ctx, input.FollowingID)
	if err != nil {
		return err
	}

	followed := false
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		created, err := s.repo.WithTx(tx).ToggleFollow(ctx, follower.ID, following.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "toggle follow")
		}
		followed = created
		if !created {
			return nil
		}
		notification := models.Notification{
			ProfileID:  follower.ID,
			ReceiverID: following.ID,
			Type:       enums.NotificationTypeFollow,
			Content:    notifications.ContentFollow(follower.Name),
			Status:     enums.ReadStatusUnread,
		}
		if err := s.notifier.Record(ctx, tx, notification); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record follow notification")
		}
		return nil
	})
	if err != nil {
		return err
	}
	if followed {
		s.notifier.Announce(ctx, following.ID)
	}
	return nil
}

func (s *service) FetchMyFollowing(ctx context.Context, input FollowsInput) FollowsPage {
	_, profile, err := s.guard.Profile(ctx, input.Actor)
	if err != nil {
		return pagination.Empty[FollowDTO]()
	}
	page, err := s.repo.ListFollowing(ctx, profile.ID, input.Cursor)
	if err != nil {
		s.logg.Error(ctx, "list following", err)
		return pagination.Empty[FollowDTO]()
	}
	return pagination.Map(page, FollowToDTO)
}

func (s *service) FetchMyFollowers(ctx context.Context, input FollowsInput) FollowsPage {
	_, profile, err := s.guard.Profile(ctx, input.Actor)
	if err != nil {
		return pagination.Empty[FollowDTO]()
	}
	page, err := s.repo.ListFollowers(ctx, profile.ID, input.Cursor)
	if err != nil {
		s.logg.Error(ctx, "list followers", err)
		return pagination.Empty[FollowDTO]()
	}
	return pagination.Map(page, FollowToDTO)
}

// describe fills the derived fields. The viewer flags stay nil without a
// requestor.
func (s *service) describe(ctx context.Context, profile models.Profile, requestorID *uuid.UUID) (ProfileDTO, error) {
	dto := ToDTO(profile)
	stats, err := s.repo.Stats(ctx, profile.ID)
	if err != nil {
		return ProfileDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count profile stats")
	}
	dto.FollowersCount = stats.Followers
	dto.FollowingCount = stats.Following
	dto.PublishesCount = stats.Publishes

	if requestorID == nil || *requestorID == uuid.Nil {
		return dto, nil
	}
	following, err := s.repo.IsFollowing(ctx, *requestorID, profile.ID)
	if err != nil {
		return ProfileDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check follow")
	}
	dto.IsFollowing = &following

	isOwner := false
	requestor, err := s.repo.FindByID(ctx, *requestorID)
	switch {
	case err == nil:
		isOwner = strings.EqualFold(requestor.Owner, profile.Owner)
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return ProfileDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load requestor")
	}
	dto.IsOwner = &isOwner
	return dto, nil
}
