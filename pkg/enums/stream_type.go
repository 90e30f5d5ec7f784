package enums

import "slices"

// StreamType separates on-demand uploads from live streams.
type StreamType string

const (
	StreamTypeOnDemand StreamType = "onDemand"
	StreamTypeLive     StreamType = "Live"
)

var validStreamTypes = []StreamType{
	StreamTypeOnDemand,
	StreamTypeLive,
}

// IsValid reports whether the value matches a known stream type.
func (v StreamType) IsValid() bool {
	return slices.Contains(validStreamTypes, v)
}

// ParseStreamType converts raw input into StreamType.
func ParseStreamType(value string) (StreamType, error) {
	return parse(validStreamTypes, "stream type", value)
}
