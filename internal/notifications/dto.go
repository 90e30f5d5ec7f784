package notifications

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/clipstream-backend/pkg/db/models"
	"github.com/angelmondragon/clipstream-backend/pkg/enums"
	"github.com/angelmondragon/clipstream-backend/pkg/pagination"
)

// ActorDTO is the profile that triggered a notification.
type ActorDTO struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	DisplayName  string    `json:"displayName"`
	Image        *string   `json:"image"`
	DefaultColor *string   `json:"defaultColor"`
}

// NotificationDTO is the public shape of a notification.
type NotificationDTO struct {
	ID         uuid.UUID              `json:"id"`
	CreatedAt  time.Time              `json:"createdAt"`
	ProfileID  uuid.UUID              `json:"profileId"`
	Profile    *ActorDTO              `json:"profile"`
	ReceiverID uuid.UUID              `json:"receiverId"`
	Type       enums.NotificationType `json:"type"`
	Content    string                 `json:"content"`
	Status     enums.ReadStatus       `json:"status"`
}

// NotificationsPageDTO is a notifications page plus the unread counter.
type NotificationsPageDTO struct {
	PageInfo pagination.PageInfo                `json:"pageInfo"`
	Unread   int64                              `json:"unread"`
	Edges    []pagination.Edge[NotificationDTO] `json:"edges"`
}

// ToDTO maps a notification model.
func ToDTO(n models.Notification) NotificationDTO {
	dto := NotificationDTO{
		ID:         n.ID,
		CreatedAt:  n.CreatedAt,
		ProfileID:  n.ProfileID,
		ReceiverID: n.ReceiverID,
		Type:       n.Type,
		Content:    n.Content,
		Status:     n.Status,
	}
	if n.Profile != nil {
		dto.Profile = &ActorDTO{
			ID:           n.Profile.ID,
			Name:         n.Profile.Name,
			DisplayName:  n.Profile.DisplayName,
			Image:        n.Profile.Image,
			DefaultColor: n.Profile.DefaultColor,
		}
	}
	return dto
}
