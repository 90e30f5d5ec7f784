package publishes

import (
	"fmt"
	"math"
	"regexp"
	"strings"
)

const (
	wordsPerMinute = 220
	excerptLength  = 200
	omission       = "..."
)

var (
	htmlTag          = regexp.MustCompile(`<[^>]*>`)
	excerptSeparator = regexp.MustCompile(`,?\.* +`)
)

// CleanText strips HTML tags and surrounding space.
func CleanText(text string) string {
	return strings.TrimSpace(htmlTag.ReplaceAllString(text, ""))
}

// CountWords counts the words of text once HTML tags are removed.
func CountWords(text string) int {
	return len(strings.Fields(CleanText(text)))
}

// ReadingTime renders the estimated reading time of preview, e.g. "3 min read".
func ReadingTime(preview string) string {
	words := CountWords(preview)
	if words == 0 {
		words = 1
	}
	minutes := int(math.Ceil(float64(words) / wordsPerMinute))
	return fmt.Sprintf("%d min read", minutes)
}

// Excerpt truncates the cleaned preview to 200 characters, omission
// included, cutting at the last word boundary that fits.
func Excerpt(preview string) string {
	clean := []rune(CleanText(preview))
	if len(clean) <= excerptLength {
		return string(clean)
	}
	head := string(clean[:excerptLength-len(omission)])
	matches := excerptSeparator.FindAllStringIndex(head, -1)
	if len(matches) > 0 {
		head = head[:matches[len(matches)-1][0]]
	}
	return head + omission
}
