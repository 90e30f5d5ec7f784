package enums

import "slices"

// PublishType classifies a publish once its media is known.
type PublishType string

const (
	PublishTypeVideo PublishType = "Video"
	PublishTypeShort PublishType = "Short"
	PublishTypeBlog  PublishType = "Blog"
	PublishTypeAds   PublishType = "Ads"
)

var validPublishTypes = []PublishType{
	PublishTypeVideo,
	PublishTypeShort,
	PublishTypeBlog,
	PublishTypeAds,
}

// IsValid reports whether the value matches a known publish type.
func (v PublishType) IsValid() bool {
	return slices.Contains(validPublishTypes, v)
}

// ParsePublishType converts raw input into PublishType.
func ParsePublishType(value string) (PublishType, error) {
	return parse(validPublishTypes, "publish type", value)
}
