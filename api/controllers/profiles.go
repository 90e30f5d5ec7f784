package controllers

import (
	"context"

	"github.com/angelmondragon/clipstream-backend/internal/profiles"
	"github.com/angelmondragon/clipstream-backend/pkg/logger"
)

type validateNameInput struct {
	Name string `json:"name"`
}

// ProfileOperations exposes profile reads, edits and follows.
func ProfileOperations(svc profiles.Service, logg *logger.Logger) []Operation {
	return []Operation{
		{Name: "getProfileById", Handler: Query(logg, svc.GetProfileByID)},
		{Name: "getProfileByName", Handler: Query(logg, svc.GetProfileByName)},
		{Name: "validateName", Handler: SoftQuery(logg, func(ctx context.Context, in validateNameInput) bool {
			return svc.ValidateName(ctx, in.Name)
		})},
		{Name: "createProfile", Handler: Query(logg, svc.CreateProfile)},
		{Name: "updateName", Handler: Mutation(logg, svc.UpdateName)},
		{Name: "updateDisplayName", Handler: Mutation(logg, svc.UpdateDisplayName)},
		{Name: "updateProfileImage", Handler: Mutation(logg, svc.UpdateProfileImage)},
		{Name: "updateBannerImage", Handler: Mutation(logg, svc.UpdateBannerImage)},
		{Name: "updateWatchPreferences", Handler: Mutation(logg, svc.UpdateWatchPreferences)},
		{Name: "updateReadPreferences", Handler: Mutation(logg, svc.UpdateReadPreferences)},
		{Name: "follow", Handler: Mutation(logg, svc.Follow)},
		{Name: "fetchMyFollowing", Handler: SoftQuery(logg, svc.FetchMyFollowing)},
		{Name: "fetchMyFollowers", Handler: SoftQuery(logg, svc.FetchMyFollowers)},
	}
}
