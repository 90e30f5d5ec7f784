package enums

import "slices"

// ThumbnailType records where a publish thumbnail came from.
type ThumbnailType string

const (
	ThumbnailTypeDefault   ThumbnailType = "default"
	ThumbnailTypeCustom    ThumbnailType = "custom"
	ThumbnailTypeGenerated ThumbnailType = "generated"
)

var validThumbnailTypes = []ThumbnailType{
	ThumbnailTypeDefault,
	ThumbnailTypeCustom,
	ThumbnailTypeGenerated,
}

// IsValid reports whether the value matches a known thumbnail type.
func (v ThumbnailType) IsValid() bool {
	return slices.Contains(validThumbnailTypes, v)
}

// ParseThumbnailType converts raw input into ThumbnailType.
func ParseThumbnailType(value string) (ThumbnailType, error) {
	return parse(validThumbnailTypes, "thumbnail type", value)
}
