package publishes

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/clipstream-backend/pkg/enums"
)

// CreatorKind narrows a creator's own listing to kind. Videos and shorts
// exclude broadcasts; live selects broadcast videos regardless of state.
func CreatorKind(q *gorm.DB, kind enums.PublishKind) *gorm.DB {
	switch kind {
	case enums.PublishKindVideos:
		return q.Where("publishes.publish_type = ? AND publishes.broadcast_type IS NULL", enums.PublishTypeVideo)
	case enums.PublishKindShorts:
		return q.Where("publishes.publish_type = ? AND publishes.broadcast_type IS NULL", enums.PublishTypeShort)
	case enums.PublishKindLive:
		return q.Where("publishes.publish_type = ? AND publishes.broadcast_type IN ?", enums.PublishTypeVideo,
			[]enums.BroadcastType{enums.BroadcastTypeSoftware, enums.BroadcastTypeWebcam})
	case enums.PublishKindBlogs:
		return q.Where("publishes.publish_type = ?", enums.PublishTypeBlog)
	case enums.PublishKindAds:
		return q.Where("publishes.publish_type = ?", enums.PublishTypeAds)
	default:
		return q
	}
}

// PublicKind narrows a public listing to kind. Live only matches broadcasts
// that are currently on air.
func PublicKind(q *gorm.DB, kind enums.PublishKind) *gorm.DB {
	switch kind {
	case enums.PublishKindVideos:
		return q.Where("publishes.publish_type = ? AND publishes.stream_type = ?", enums.PublishTypeVideo, enums.StreamTypeOnDemand)
	case enums.PublishKindShorts:
		return q.Where("publishes.publish_type = ? AND publishes.stream_type = ?", enums.PublishTypeShort, enums.StreamTypeOnDemand)
	case enums.PublishKindLive:
		return q.Where("publishes.publish_type = ? AND publishes.stream_type = ?", enums.PublishTypeVideo, enums.StreamTypeLive).
			Where("EXISTS (SELECT 1 FROM playbacks WHERE playbacks.publish_id = publishes.id AND playbacks.live_status = ?)", enums.LiveStatusInProgress)
	case enums.PublishKindBlogs:
		return q.Where("publishes.publish_type = ?", enums.PublishTypeBlog)
	case enums.PublishKindAds:
		return q.Where("publishes.publish_type = ?", enums.PublishTypeAds)
	default:
		return q
	}
}

// SearchKind narrows search results by publish type only.
func SearchKind(q *gorm.DB, kind enums.PublishKind) *gorm.DB {
	switch kind {
	case enums.PublishKindVideos:
		return q.Where("publishes.publish_type = ?", enums.PublishTypeVideo)
	case enums.PublishKindShorts:
		return q.Where("publishes.publish_type = ?", enums.PublishTypeShort)
	case enums.PublishKindBlogs:
		return q.Where("publishes.publish_type = ?", enums.PublishTypeBlog)
	case enums.PublishKindAds:
		return q.Where("publishes.publish_type = ?", enums.PublishTypeAds)
	default:
		return q
	}
}

// Listed restricts q to publishes anyone may see.
func Listed(q *gorm.DB) *gorm.DB {
	return q.Where("publishes.visibility = ? AND publishes.uploading = ? AND publishes.deleting = ?",
		enums.VisibilityPublic, false, false)
}

// Public is Listed minus creators the requestor asked not to be recommended.
func Public(q *gorm.DB, requestorID *uuid.UUID) *gorm.DB {
	q = Listed(q)
	if requestorID != nil && *requestorID != uuid.Nil {
		q = q.Where("publishes.creator_id NOT IN (SELECT target_id FROM dont_recommends WHERE requestor_id = ?)", *requestorID)
	}
	return q
}

// Terms splits a search string into lowercase words.
func Terms(search string) []string {
	return strings.Fields(strings.ToLower(search))
}

// MatchAll requires every term to appear in one of columns. Each column is
// tested on its own, so all terms must match the same column.
func MatchAll(q *gorm.DB, terms []string, columns ...string) *gorm.DB {
	if len(terms) == 0 || len(columns) == 0 {
		return q
	}
	var clauses []string
	var args []any
	for _, col := range columns {
		parts := make([]string, 0, len(terms))
		for _, term := range terms {
			parts = append(parts, "LOWER(COALESCE("+col+", '')) LIKE ? ESCAPE '\\'")
			args = append(args, "%"+escapeLike(term)+"%")
		}
		clauses = append(clauses, "("+strings.Join(parts, " AND ")+")")
	}
	return q.Where("("+strings.Join(clauses, " OR ")+")", args...)
}

// MatchAny requires at least one term to appear in column.
func MatchAny(q *gorm.DB, terms []string, column string) *gorm.DB {
	if len(terms) == 0 {
		return q
	}
	parts := make([]string, 0, len(terms))
	args := make([]any, 0, len(terms))
	for _, term := range terms {
		parts = append(parts, "LOWER(COALESCE("+column+", '')) LIKE ? ESCAPE '\\'")
		args = append(args, "%"+escapeLike(term)+"%")
	}
	return q.Where("("+strings.Join(parts, " OR ")+")", args...)
}

// SplitTags breaks a stored tag string ("a | b | c") into lowercase tags.
func SplitTags(tags *string) []string {
	if tags == nil {
		return nil
	}
	var out []string
	for _, tag := range strings.Split(*tags, "|") {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag != "" {
			out = append(out, tag)
		}
	}
	return out
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// escapeLike makes term match literally inside a LIKE pattern.
func escapeLike(term string) string {
	return likeEscaper.Replace(term)
}
