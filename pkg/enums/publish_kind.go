package enums

import "slices"

// PublishKind selects the listing filter applied to publishes.
type PublishKind string

const (
	PublishKindAll    PublishKind = "all"
	PublishKindVideos PublishKind = "videos"
	PublishKindShorts PublishKind = "shorts"
	PublishKindLive   PublishKind = "live"
	PublishKindBlogs  PublishKind = "blogs"
	PublishKindAds    PublishKind = "ads"
)

var validPublishKinds = []PublishKind{
	PublishKindAll,
	PublishKindVideos,
	PublishKindShorts,
	PublishKindLive,
	PublishKindBlogs,
	PublishKindAds,
}

// IsValid reports whether the value matches a known publish kind.
func (v PublishKind) IsValid() bool {
	return slices.Contains(validPublishKinds, v)
}

// ParsePublishKind converts raw input into PublishKind.
func ParsePublishKind(value string) (PublishKind, error) {
	return parse(validPublishKinds, "publish kind", value)
}
