package enums

import "slices"

// BroadcastType records how a live stream is produced.
type BroadcastType string

const (
	BroadcastTypeSoftware BroadcastType = "software"
	BroadcastTypeWebcam   BroadcastType = "webcam"
)

var validBroadcastTypes = []BroadcastType{
	BroadcastTypeSoftware,
	BroadcastTypeWebcam,
}

// IsValid reports whether the value matches a known broadcast type.
func (v BroadcastType) IsValid() bool {
	return slices.Contains(validBroadcastTypes, v)
}

// ParseBroadcastType converts raw input into BroadcastType.
func ParseBroadcastType(value string) (BroadcastType, error) {
	return parse(validBroadcastTypes, "broadcast type", value)
}
