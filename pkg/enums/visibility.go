package enums

import "slices"

// Visibility controls who can list a publish.
type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
	VisibilityDraft   Visibility = "draft"
)

var validVisibilities = []Visibility{
	VisibilityPublic,
	VisibilityPrivate,
	VisibilityDraft,
}

// IsValid reports whether the value matches a known visibility.
func (v Visibility) IsValid() bool {
	return slices.Contains(validVisibilities, v)
}

// ParseVisibility converts raw input into Visibility.
func ParseVisibility(value string) (Visibility, error) {
	return parse(validVisibilities, "visibility", value)
}
