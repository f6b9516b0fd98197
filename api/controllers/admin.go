package controllers

import (
	"net/http"

	"github.com/shopmandi/shopmandi-backend/api/responses"
	"github.com/shopmandi/shopmandi-backend/api/validators"
	"github.com/shopmandi/shopmandi-backend/internal/admin"
	"github.com/shopmandi/shopmandi-backend/internal/orders"
	pkgerrors "github.com/shopmandi/shopmandi-backend/pkg/errors"
	"github.com/shopmandi/shopmandi-backend/pkg/logger"
)

// AdminStats returns platform-wide totals for the dashboard.
func AdminStats(svc admin.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "admin service unavailable"))
			return
		}

		resp, err := svc.Stats(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, resp)
	}
}

// AdminListOrders pages every order on the platform.
func AdminListOrders(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		params, err := listParamsFromQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp, err := svc.ListAll(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, resp)
	}
}

type adminUpdateOrderRequest struct {
	IsPaid *bool `json:"isPaid" validate:"required"`
}

// AdminUpdateOrder overrides an order's payment flag.
func AdminUpdateOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		orderID, err := pathUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload adminUpdateOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp, err := svc.ForcePaymentStatus(r.Context(), orderID, *payload.IsPaid)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, resp)
	}
}
