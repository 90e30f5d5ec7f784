package controllers

import (
	"github.com/angelmondragon/clipstream-backend/internal/publishes"
	"github.com/angelmondragon/clipstream-backend/pkg/logger"
)

// PublishOperations exposes publish listings, drafts, reactions and tips.
func PublishOperations(svc publishes.Service, logg *logger.Logger) []Operation {
	return []Operation{
		{Name: "getPublishById", Handler: Query(logg, svc.GetPublishByID)},
		{Name: "getShort", Handler: Query(logg, svc.GetShort)},
		{Name: "fetchMyPublishes", Handler: Query(logg, svc.FetchMyPublishes)},
		{Name: "fetchPublishes", Handler: Query(logg, svc.FetchPublishes)},
		{Name: "fetchVideosByCategory", Handler: Query(logg, svc.FetchVideosByCategory)},
		{Name: "fetchSuggestedVideos", Handler: Query(logg, svc.FetchSuggestedVideos)},
		{Name: "fetchSuggestedBlogs", Handler: Query(logg, svc.FetchSuggestedBlogs)},
		{Name: "fetchProfilePublishes", Handler: Query(logg, svc.FetchProfilePublishes)},
		{Name: "fetchPublishesByTag", Handler: Query(logg, svc.FetchPublishesByTag)},
		{Name: "fetchPublishesByQueryString", Handler: Query(logg, svc.FetchPublishesByQueryString)},

		{Name: "createDraftVideo", Handler: Query(logg, svc.CreateDraftVideo)},
		{Name: "createDraftBlog", Handler: Query(logg, svc.CreateDraftBlog)},
		{Name: "updateVideo", Handler: Query(logg, svc.UpdateVideo)},
		{Name: "updateBlog", Handler: Mutation(logg, svc.UpdateBlog)},
		{Name: "likePublish", Handler: Mutation(logg, svc.LikePublish)},
		{Name: "disLikePublish", Handler: Mutation(logg, svc.DisLikePublish)},
		{Name: "countViews", Handler: Mutation(logg, svc.CountViews)},
		{Name: "deletePublish", Handler: Mutation(logg, svc.DeletePublish)},
		{Name: "deletePublishes", Handler: Mutation(logg, svc.DeletePublishes)},
		{Name: "calculateTips", Handler: Query(logg, svc.CalculateTips)},
		{Name: "sendTips", Handler: Query(logg, svc.SendTips)},
	}
}
