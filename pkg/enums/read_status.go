package enums

import "slices"

// ReadStatus marks whether the receiver has seen a notification.
type ReadStatus string

const (
	ReadStatusUnread ReadStatus = "unread"
	ReadStatusRead   ReadStatus = "read"
)

var validReadStatuses = []ReadStatus{
	ReadStatusUnread,
	ReadStatusRead,
}

// IsValid reports whether the value matches a known read status.
func (v ReadStatus) IsValid() bool {
	return slices.Contains(validReadStatuses, v)
}

// ParseReadStatus converts raw input into ReadStatus.
func ParseReadStatus(value string) (ReadStatus, error) {
	return parse(validReadStatuses, "read status", value)
}
