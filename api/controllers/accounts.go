package controllers

import (
	"github.com/angelmondragon/clipstream-backend/internal/accounts"
	"github.com/angelmondragon/clipstream-backend/pkg/logger"
)

// AccountOperations exposes account lookup, creation and session caching.
func AccountOperations(svc accounts.Service, logg *logger.Logger) []Operation {
	return []Operation{
		{Name: "getMyAccount", Handler: Query(logg, svc.GetMyAccount)},
		{Name: "getBalance", Handler: Query(logg, svc.GetBalance)},
		{Name: "createAccount", Handler: Query(logg, svc.CreateAccount)},
		{Name: "cacheSession", Handler: Mutation(logg, svc.CacheSession)},
		{Name: "validateAuth", Handler: SoftQuery(logg, svc.ValidateAuth)},
	}
}
