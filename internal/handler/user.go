package handler

import (
	"net/http"

	"github.com/templui/secondbrain/internal/ctxkeys"
	"github.com/templui/secondbrain/internal/service"
)

type UserHandler struct {
	userService *service.UserService
	authService *service.AuthService
}

func NewUserHandler(userService *service.UserService, authService *service.AuthService) *UserHandler {
	return &UserHandler{
		userService: userService,
		authService: authService,
	}
}

func (h *UserHandler) Profile(w http.ResponseWriter, r *http.Request) {
	user, err := h.userService.Profile(r.Context(), ctxkeys.UserID(r.Context()))
	if err != nil {
		handleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, userResponse{User: user.Public()})
}

func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name  *string `json:"name"`
		Email *string `json:"email"`
	}
	err := decodeJSON(w, r, &body)
	if err != nil {
		handleError(w, r, err)
		return
	}

	user, err := h.userService.UpdateProfile(r.Context(), ctxkeys.UserID(r.Context()), service.UpdateProfileInput{
		Name:  body.Name,
		Email: body.Email,
	})
	if err != nil {
		handleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, userResponse{User: user.Public()})
}

func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var body struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	err := decodeJSON(w, r, &body)
	if err != nil {
		handleError(w, r, err)
		return
	}

	err = h.userService.ChangePassword(r.Context(), ctxkeys.UserID(r.Context()), body.CurrentPassword, body.NewPassword)
	if err != nil {
		handleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "password changed"})
}

// DeleteAccount removes the caller and everything they own, then ends the session.
func (h *UserHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	err := h.userService.DeleteAccount(r.Context(), ctxkeys.UserID(r.Context()))
	if err != nil {
		handleError(w, r, err)
		return
	}

	h.authService.ClearSessionCookies(w)
	writeJSON(w, http.StatusOK, messageResponse{Message: "account deleted"})
}
