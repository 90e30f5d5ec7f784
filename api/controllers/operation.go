package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/clipstream-backend/api/responses"
	"github.com/angelmondragon/clipstream-backend/api/validators"
	"github.com/angelmondragon/clipstream-backend/pkg/logger"
)

// Operation is one JSON endpoint mounted under /graphql/{Name}.
type Operation struct {
	Name    string
	Handler http.HandlerFunc
}

// Query decodes the operation input, runs fn and writes its result.
func Query[In any, Out any](logg *logger.Logger, fn func(context.Context, In) (Out, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input In
		if err := validators.DecodeJSONBody(w, r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		out, err := fn(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, out)
	}
}

// SoftQuery is Query for reads that never fail.
func SoftQuery[In any, Out any](logg *logger.Logger, fn func(context.Context, In) Out) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input In
		if err := validators.DecodeJSONBody(w, r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, fn(r.Context(), input))
	}
}

// Mutation runs fn and answers {"status":"Ok"}.
func Mutation[In any](logg *logger.Logger, fn func(context.Context, In) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input In
		if err := validators.DecodeJSONBody(w, r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := fn(r.Context(), input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteStatusOK(w)
	}
}
