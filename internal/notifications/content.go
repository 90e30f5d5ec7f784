package notifications

import (
	"fmt"
	"strings"

	"github.com/angelmondragon/clipstream-backend/pkg/enums"
)

// ContentFollow renders the FOLLOW notification text.
func ContentFollow(actorName string) string {
	return fmt.Sprintf("%s started following you.", actorName)
}

// ContentLikePublish renders the LIKE notification text for a publish.
func ContentLikePublish(actorName string, title *string, publishType *enums.PublishType) string {
	return fmt.Sprintf("%s liked your %s%s", actorName, publishNoun(publishType), titleSuffix(title))
}

// ContentComment renders the COMMENT notification text.
func ContentComment(actorName string, title *string, publishType *enums.PublishType) string {
	return fmt.Sprintf("%s commented on your %s%s", actorName, publishNoun(publishType), titleSuffix(title))
}

// ContentLikeComment renders the LIKE notification text for a comment.
func ContentLikeComment(actorName string) string {
	return fmt.Sprintf("%s liked your comment.", actorName)
}

func publishNoun(publishType *enums.PublishType) string {
	if publishType == nil {
		return "publish"
	}
	switch *publishType {
	case enums.PublishTypeAds:
		return "ad"
	default:
		return strings.ToLower(string(*publishType))
	}
}

func titleSuffix(title *string) string {
	if title == nil || strings.TrimSpace(*title) == "" {
		return "."
	}
	return fmt.Sprintf(": %s", strings.TrimSpace(*title))
}
