package controllers

import (
	"github.com/angelmondragon/clipstream-backend/internal/dontrecommend"
	"github.com/angelmondragon/clipstream-backend/internal/notifications"
	"github.com/angelmondragon/clipstream-backend/internal/reports"
	"github.com/angelmondragon/clipstream-backend/pkg/logger"
)

func NotificationOperations(svc notifications.Service, logg *logger.Logger) []Operation {
	return []Operation{
		{Name: "fetchMyNotifications", Handler: Query(logg, svc.FetchMyNotifications)},
		{Name: "updateNotificationsStatus", Handler: Mutation(logg, svc.UpdateNotificationsStatus)},
	}
}

func DontRecommendOperations(svc dontrecommend.Service, logg *logger.Logger) []Operation {
	return []Operation{
		{Name: "fetchDontRecommends", Handler: Query(logg, svc.FetchDontRecommends)},
		{Name: "dontRecommend", Handler: Mutation(logg, svc.DontRecommend)},
		{Name: "removeDontRecommend", Handler: Mutation(logg, svc.RemoveDontRecommend)},
	}
}

func ReportOperations(svc reports.Service, logg *logger.Logger) []Operation {
	return []Operation{
		{Name: "reportPublish", Handler: Mutation(logg, svc.ReportPublish)},
	}
}
