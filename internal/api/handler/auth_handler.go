package handler

import (
	"net/http"

	"auth_api/internal/api/middleware"
	"auth_api/internal/app/service"
	"auth_api/internal/common"
)

type AuthHandler struct {
	authService *service.AuthService
	er          *common.ErrorResponder
}

func NewAuthHandler(authService *service.AuthService, er *common.ErrorResponder) *AuthHandler {
	return &AuthHandler{authService: authService, er: er}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	payload := middleware.PayloadFromContext(r.Context())
	req := service.RegisterRequest{
		Name:     stringField(payload, "name"),
		Email:    stringField(payload, "email"),
		Password: stringField(payload, "password"),
		Role:     stringField(payload, "role"),
	}

	resp, err := h.authService.Register(r.Context(), req)
	if err != nil {
		h.er.Respond(w, r, err)
		return
	}
	common.RespondSuccess(w, http.StatusCreated, common.MsgRegisterSuccess, resp)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	payload := middleware.PayloadFromContext(r.Context())
	req := service.LoginRequest{
		Email:    stringField(payload, "email"),
		Password: stringField(payload, "password"),
	}

	resp, err := h.authService.Login(r.Context(), req)
	if err != nil {
		h.er.Respond(w, r, err)
		return
	}
	common.RespondSuccess(w, http.StatusOK, common.MsgLoginSuccess, resp)
}

func (h *AuthHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		h.er.Respond(w, r, common.ErrAuthRequired)
		return
	}

	user, err := h.authService.GetProfile(r.Context(), userID)
	if err != nil {
		h.er.Respond(w, r, err)
		return
	}
	common.RespondSuccess(w, http.StatusOK, common.MsgSuccess, user)
}

func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		h.er.Respond(w, r, common.ErrAuthRequired)
		return
	}

	payload := middleware.PayloadFromContext(r.Context())
	var req service.UpdateProfileRequest
	if name, ok := payload["name"].(string); ok {
		req.Name = &name
	}

	user, err := h.authService.UpdateProfile(r.Context(), userID, req)
	if err != nil {
		h.er.Respond(w, r, err)
		return
	}
	common.RespondSuccess(w, http.StatusOK, common.MsgProfileUpdated, user)
}

func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		h.er.Respond(w, r, common.ErrAuthRequired)
		return
	}

	payload := middleware.PayloadFromContext(r.Context())
	err := h.authService.ChangePassword(r.Context(), userID,
		stringField(payload, "currentPassword"),
		stringField(payload, "newPassword"),
	)
	if err != nil {
		h.er.Respond(w, r, err)
		return
	}
	common.RespondSuccess(w, http.StatusOK, common.MsgPasswordChanged, nil)
}

func stringField(payload map[string]any, name string) string {
	value, _ := payload[name].(string)
	return value
}
