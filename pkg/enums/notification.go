package enums

import "slices"

// NotificationType names the social action behind a notification.
type NotificationType string

const (
	NotificationTypeFollow  NotificationType = "FOLLOW"
	NotificationTypeLike    NotificationType = "LIKE"
	NotificationTypeComment NotificationType = "COMMENT"
	NotificationTypeOther   NotificationType = "OTHER"
)

var validNotificationTypes = []NotificationType{
	NotificationTypeFollow,
	NotificationTypeLike,
	NotificationTypeComment,
	NotificationTypeOther,
}

// IsValid reports whether the value matches a known notification type.
func (v NotificationType) IsValid() bool {
	return slices.Contains(validNotificationTypes, v)
}

// ParseNotificationType converts raw input into NotificationType.
func ParseNotificationType(value string) (NotificationType, error) {
	return parse(validNotificationTypes, "notification type", value)
}
