package profiles

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/clipstream-backend/pkg/db/models"
	"github.com/angelmondragon/clipstream-backend/pkg/enums"
	"github.com/angelmondragon/clipstream-backend/pkg/pagination"
)

// ProfileDTO is the public shape of a profile plus its derived fields.
type ProfileDTO struct {
	ID               uuid.UUID        `json:"id"`
	CreatedAt        time.Time        `json:"createdAt"`
	UpdatedAt        time.Time        `json:"updatedAt"`
	Owner            string           `json:"owner"`
	Name             string           `json:"name"`
	DisplayName      string           `json:"displayName"`
	AccountID        uuid.UUID        `json:"accountId"`
	Image            *string          `json:"image"`
	ImageRef         *string          `json:"imageRef"`
	BannerImage      *string          `json:"bannerImage"`
	BannerImageRef   *string          `json:"bannerImageRef"`
	DefaultColor     *string          `json:"defaultColor"`
	WatchPreferences []enums.Category `json:"watchPreferences"`
	ReadPreferences  []enums.Category `json:"readPreferences"`
	FollowersCount   int64            `json:"followersCount"`
	FollowingCount   int64            `json:"followingCount"`
	PublishesCount   int64            `json:"publishesCount"`
	IsFollowing      *bool            `json:"isFollowing"`
	IsOwner          *bool            `json:"isOwner"`
}

// FollowDTO is one follow edge with the profile on the far side.
type FollowDTO struct {
	FollowerID  uuid.UUID   `json:"followerId"`
	FollowingID uuid.UUID   `json:"followingId"`
	CreatedAt   time.Time   `json:"createdAt"`
	Follower    *ProfileDTO `json:"follower,omitempty"`
	Following   *ProfileDTO `json:"following,omitempty"`
}

// FollowsPage is a page of follow edges.
type FollowsPage = pagination.Page[FollowDTO]

// ToDTO maps a profile without derived fields.
func ToDTO(p models.Profile) ProfileDTO {
	return ProfileDTO{
		ID:               p.ID,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
		Owner:            p.Owner,
		Name:             p.Name,
		DisplayName:      p.DisplayName,
		AccountID:        p.AccountID,
		Image:            p.Image,
		ImageRef:         p.ImageRef,
		BannerImage:      p.BannerImage,
		BannerImageRef:   p.BannerImageRef,
		DefaultColor:     p.DefaultColor,
		WatchPreferences: categories(p.WatchPreferences),
		ReadPreferences:  categories(p.ReadPreferences),
	}
}

// FollowToDTO maps a follow edge and whichever side was preloaded.
func FollowToDTO(f models.Follow) FollowDTO {
	dto := FollowDTO{FollowerID: f.FollowerID, FollowingID: f.FollowingID, CreatedAt: f.CreatedAt}
	if f.Follower != nil {
		follower := ToDTO(*f.Follower)
		dto.Follower = &follower
	}
	if f.Following != nil {
		following := ToDTO(*f.Following)
		dto.Following = &following
	}
	return dto
}

func categories(values []string) []enums.Category {
	out := make([]enums.Category, 0, len(values))
	for _, v := range values {
		out = append(out, enums.Category(v))
	}
	return out
}
