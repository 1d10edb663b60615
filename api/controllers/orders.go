package controllers

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/littlelemonhq/littlelemon-backend/api/middleware"
	"github.com/littlelemonhq/littlelemon-backend/api/responses"
	"github.com/littlelemonhq/littlelemon-backend/api/validators"
	ordersvc "github.com/littlelemonhq/littlelemon-backend/internal/orders"
	"github.com/littlelemonhq/littlelemon-backend/pkg/enums"
	pkgerrors "github.com/littlelemonhq/littlelemon-backend/pkg/errors"
	"github.com/littlelemonhq/littlelemon-backend/pkg/logger"
	"github.com/littlelemonhq/littlelemon-backend/pkg/pagination"
)

type replaceOrderRequest struct {
	Status         string     `json:"status" validate:"required"`
	DeliveryCrewID *uuid.UUID `json:"delivery_crew_id"`
}

type patchOrderRequest struct {
	Status         *string         `json:"status"`
	DeliveryCrewID json.RawMessage `json:"delivery_crew_id"`
}

func OrderList(svc *ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.QueryInt(r, "limit", pagination.DefaultLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		offset, err := validators.QueryInt(r, "offset", 0)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orders, err := svc.ListOrders(
			r.Context(),
			middleware.UserIDFromContext(r.Context()),
			middleware.RoleFromContext(r.Context()),
			pagination.Params{Limit: limit, Offset: offset},
		)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, orders)
	}
}

func OrderCheckout(svc *ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		order, err := svc.PlaceOrder(r.Context(), middleware.UserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteMessage(w, http.StatusCreated, "Order created", order)
	}
}

func OrderDetail(svc *ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := validators.PathUUID(chi.URLParam(r, "orderId"), "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.GetOrder(
			r.Context(),
			middleware.UserIDFromContext(r.Context()),
			middleware.RoleFromContext(r.Context()),
			orderID,
		)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, order)
	}
}

func OrderReplace(svc *ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := validators.PathUUID(chi.URLParam(r, "orderId"), "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload replaceOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status, err := enums.ParseOrderStatus(payload.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
			return
		}

		order, err := svc.ReplaceOrder(
			r.Context(),
			middleware.UserIDFromContext(r.Context()),
			middleware.RoleFromContext(r.Context()),
			orderID,
			ordersvc.ReplaceInput{
				Status:         status,
				DeliveryCrewID: payload.DeliveryCrewID,
			},
		)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteMessage(w, http.StatusOK, "Order updated", order)
	}
}

func OrderPatch(svc *ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := validators.PathUUID(chi.URLParam(r, "orderId"), "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload patchOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.PatchOrder(
			r.Context(),
			middleware.UserIDFromContext(r.Context()),
			middleware.RoleFromContext(r.Context()),
			orderID,
			input,
		)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteMessage(w, http.StatusOK, "Order updated", order)
	}
}

func (p patchOrderRequest) toInput() (ordersvc.PatchInput, error) {
	input := ordersvc.PatchInput{}

	if p.Status != nil {
		status, err := enums.ParseOrderStatus(*p.Status)
		if err != nil {
			return ordersvc.PatchInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status")
		}
		input.Status = &status
	}

	// delivery_crew_id distinguishes absent (leave alone) from null (unassign)
	if len(p.DeliveryCrewID) > 0 {
		input.SetDeliveryCrew = true
		if !bytes.Equal(bytes.TrimSpace(p.DeliveryCrewID), []byte("null")) {
			var crewID uuid.UUID
			if err := json.Unmarshal(p.DeliveryCrewID, &crewID); err != nil {
				return ordersvc.PatchInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid delivery_crew_id")
			}
			input.DeliveryCrewID = &crewID
		}
	}

	return input, nil
}

func OrderDelete(svc *ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := validators.PathUUID(chi.URLParam(r, "orderId"), "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		err = svc.DeleteOrder(
			r.Context(),
			middleware.UserIDFromContext(r.Context()),
			middleware.RoleFromContext(r.Context()),
			orderID,
		)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteMessage(w, http.StatusOK, "Order deleted", nil)
	}
}
