package models

// All lists every persisted model in dependency order.
func All() []any {
	return []any{
		&Account{},
		&Profile{},
		&Publish{},
		&Playback{},
		&Blog{},
		&Tip{},
		&Follow{},
		&Like{},
		&Dislike{},
		&Bookmark{},
		&WatchLater{},
		&DontRecommend{},
		&Comment{},
		&CommentLike{},
		&CommentDislike{},
		&Playlist{},
		&PlaylistItem{},
		&Notification{},
		&Report{},
		&OutboxEvent{},
		&OutboxDLQ{},
	}
}
