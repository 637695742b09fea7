package handler

import (
	"net/http"

	"auth_api/internal/app/service"
	"auth_api/internal/common"
)

type UserHandler struct {
	userService *service.UserService
	er          *common.ErrorResponder
}

func NewUserHandler(userService *service.UserService, er *common.ErrorResponder) *UserHandler {
	return &UserHandler{userService: userService, er: er}
}

// ListActive serves the admin-only active user listing.
func (h *UserHandler) ListActive(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.ListActive(r.Context())
	if err != nil {
		h.er.Respond(w, r, err)
		return
	}
	common.RespondSuccess(w, http.StatusOK, common.MsgSuccess, users)
}
