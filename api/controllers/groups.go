package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/littlelemonhq/littlelemon-backend/api/responses"
	"github.com/littlelemonhq/littlelemon-backend/api/validators"
	"github.com/littlelemonhq/littlelemon-backend/internal/roles"
	"github.com/littlelemonhq/littlelemon-backend/pkg/enums"
	"github.com/littlelemonhq/littlelemon-backend/pkg/logger"
)

// username presence is checked by the roles service.
type addMemberRequest struct {
	Username string `json:"username"`
}

func GroupMemberList(svc *roles.Service, role enums.Role, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		members, err := svc.ListMembers(r.Context(), role)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, members)
	}
}

func GroupMemberAdd(svc *roles.Service, role enums.Role, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload addMemberRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.AddMember(r.Context(), role, payload.Username); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteMessage(w, http.StatusCreated, "User added to group", nil)
	}
}

func GroupMemberRemove(svc *roles.Service, role enums.Role, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := validators.PathUUID(chi.URLParam(r, "userId"), "userId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.RemoveMember(r.Context(), role, userID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteMessage(w, http.StatusOK, "User removed from group", nil)
	}
}
