package controllers

import (
	"github.com/angelmondragon/clipstream-backend/internal/comments"
	"github.com/angelmondragon/clipstream-backend/pkg/logger"
)

func CommentOperations(svc comments.Service, logg *logger.Logger) []Operation {
	return []Operation{
		{Name: "fetchCommentsByPublishId", Handler: Query(logg, svc.FetchCommentsByPublishID)},
		{Name: "fetchSubComments", Handler: Query(logg, svc.FetchSubComments)},
		{Name: "comment", Handler: Mutation(logg, svc.Comment)},
		{Name: "likeComment", Handler: Mutation(logg, svc.LikeComment)},
		{Name: "disLikeComment", Handler: Mutation(logg, svc.DisLikeComment)},
		{Name: "deleteComment", Handler: Mutation(logg, svc.DeleteComment)},
	}
}
