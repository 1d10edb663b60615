package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/littlelemonhq/littlelemon-backend/api/middleware"
	"github.com/littlelemonhq/littlelemon-backend/api/responses"
	"github.com/littlelemonhq/littlelemon-backend/api/validators"
	cartsvc "github.com/littlelemonhq/littlelemon-backend/internal/cart"
	"github.com/littlelemonhq/littlelemon-backend/pkg/logger"
)

type addToCartRequest struct {
	MenuItemID uuid.UUID `json:"menu_item_id" validate:"required"`
	Quantity   *int      `json:"quantity" validate:"omitempty,min=1"`
}

func CartView(svc *cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lines, err := svc.View(r.Context(), middleware.UserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, lines)
	}
}

func CartAdd(svc *cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload addToCartRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		quantity := 1
		if payload.Quantity != nil {
			quantity = *payload.Quantity
		}

		line, err := svc.Add(r.Context(), middleware.UserIDFromContext(r.Context()), cartsvc.AddInput{
			MenuItemID: payload.MenuItemID,
			Quantity:   quantity,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteMessage(w, http.StatusCreated, "Item added to cart", line)
	}
}

func CartClear(svc *cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Clear(r.Context(), middleware.UserIDFromContext(r.Context())); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteMessage(w, http.StatusOK, "Cart cleared", nil)
	}
}
