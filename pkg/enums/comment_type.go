package enums

import "slices"

// CommentType tells whether a comment targets a publish or another comment.
type CommentType string

const (
	CommentTypePublish CommentType = "PUBLISH"
	CommentTypeComment CommentType = "COMMENT"
)

var validCommentTypes = []CommentType{
	CommentTypePublish,
	CommentTypeComment,
}

// IsValid reports whether the value matches a known comment type.
func (v CommentType) IsValid() bool {
	return slices.Contains(validCommentTypes, v)
}

// ParseCommentType converts raw input into CommentType.
func ParseCommentType(value string) (CommentType, error) {
	return parse(validCommentTypes, "comment type", value)
}
