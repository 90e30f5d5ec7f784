package enums

import "slices"

// PublishOrderBy orders publish listings.
type PublishOrderBy string

const (
	PublishOrderByLatest  PublishOrderBy = "latest"
	PublishOrderByPopular PublishOrderBy = "popular"
)

var validPublishOrderBys = []PublishOrderBy{
	PublishOrderByLatest,
	PublishOrderByPopular,
}

// IsValid reports whether the value matches a known publish order.
func (v PublishOrderBy) IsValid() bool {
	return slices.Contains(validPublishOrderBys, v)
}

// ParsePublishOrderBy converts raw input into PublishOrderBy.
func ParsePublishOrderBy(value string) (PublishOrderBy, error) {
	return parse(validPublishOrderBys, "publish order", value)
}

// CommentsOrderBy orders comment listings.
type CommentsOrderBy string

const (
	CommentsOrderByCounts CommentsOrderBy = "counts"
	CommentsOrderByNewest CommentsOrderBy = "newest"
)

var validCommentsOrderBys = []CommentsOrderBy{
	CommentsOrderByCounts,
	CommentsOrderByNewest,
}

// IsValid reports whether the value matches a known comments order.
func (v CommentsOrderBy) IsValid() bool {
	return slices.Contains(validCommentsOrderBys, v)
}

// ParseCommentsOrderBy converts raw input into CommentsOrderBy.
func ParseCommentsOrderBy(value string) (CommentsOrderBy, error) {
	return parse(validCommentsOrderBys, "comments order", value)
}

// PlaylistOrderBy orders playlist, watch later and bookmark listings.
type PlaylistOrderBy string

const (
	PlaylistOrderByNewest PlaylistOrderBy = "newest"
	PlaylistOrderByOldest PlaylistOrderBy = "oldest"
)

var validPlaylistOrderBys = []PlaylistOrderBy{
	PlaylistOrderByNewest,
	PlaylistOrderByOldest,
}

// IsValid reports whether the value matches a known playlist order.
func (v PlaylistOrderBy) IsValid() bool {
	return slices.Contains(validPlaylistOrderBys, v)
}

// ParsePlaylistOrderBy converts raw input into PlaylistOrderBy.
func ParsePlaylistOrderBy(value string) (PlaylistOrderBy, error) {
	return parse(validPlaylistOrderBys, "playlist order", value)
}
