package controllers

import (
	"github.com/angelmondragon/clipstream-backend/internal/streams"
	"github.com/angelmondragon/clipstream-backend/pkg/logger"
)

// StreamOperations exposes live stream requests and lookups.
func StreamOperations(svc streams.Service, logg *logger.Logger) []Operation {
	return []Operation{
		{Name: "fetchMyLiveStream", Handler: Query(logg, svc.FetchMyLiveStream)},
		{Name: "getLiveStreamPublish", Handler: Query(logg, svc.GetLiveStreamPublish)},
		{Name: "requestLiveStream", Handler: Query(logg, svc.RequestLiveStream)},
	}
}
