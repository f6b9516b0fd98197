package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/shopmandi/shopmandi-backend/api/middleware"
	"github.com/shopmandi/shopmandi-backend/api/validators"
	pkgerrors "github.com/shopmandi/shopmandi-backend/pkg/errors"
	"github.com/shopmandi/shopmandi-backend/pkg/pagination"
)

// currentUserID resolves the authenticated caller from the request context.
func currentUserID(r *http.Request) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid user id")
	}
	return id, nil
}

// pathUUID parses a chi URL parameter as a UUID.
func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, name))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "missing "+name)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+name)
	}
	return id, nil
}

// listParamsFromQuery reads the shared limit/cursor query parameters.
func listParamsFromQuery(r *http.Request) (pagination.Params, error) {
	var params pagination.Params

	limit, err := validators.ParseQueryInt(r, "limit", 0, 1, pagination.MaxLimit)
	if err != nil {
		return params, err
	}
	params.Limit = limit

	params.Cursor = strings.TrimSpace(r.URL.Query().Get("cursor"))
	return params, nil
}
