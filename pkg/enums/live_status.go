package enums

import "slices"

// LiveStatus tracks whether a live playback is still running.
type LiveStatus string

const (
	LiveStatusInProgress LiveStatus = "inprogress"
	LiveStatusReady      LiveStatus = "ready"
)

var validLiveStatuses = []LiveStatus{
	LiveStatusInProgress,
	LiveStatusReady,
}

// IsValid reports whether the value matches a known live status.
func (v LiveStatus) IsValid() bool {
	return slices.Contains(validLiveStatuses, v)
}

// ParseLiveStatus converts raw input into LiveStatus.
func ParseLiveStatus(value string) (LiveStatus, error) {
	return parse(validLiveStatuses, "live status", value)
}
