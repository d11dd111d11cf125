package handler

import (
	"net/http"
	"time"

	"github.com/templui/secondbrain/internal/ctxkeys"
	"github.com/templui/secondbrain/internal/model"
	"github.com/templui/secondbrain/internal/service"
)

type AuthHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type credentialsRequest struct {
	Email    string  `json:"email"`
	Password string  `json:"password"`
	Name     *string `json:"name"`
}

type userResponse struct {
	User model.PublicUser `json:"user"`
}

type sessionResponse struct {
	User            model.PublicUser `json:"user"`
	AccessExpiresAt time.Time        `json:"accessExpiresAt"`
}

type refreshResponse struct {
	AccessExpiresAt time.Time `json:"accessExpiresAt"`
}

// CSRFToken hands the double-submit token to clients that cannot read the cookie.
func (h *AuthHandler) CSRFToken(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"csrfToken": ctxkeys.CSRFToken(r.Context())})
}

func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var body credentialsRequest
	err := decodeJSON(w, r, &body)
	if err != nil {
		handleError(w, r, err)
		return
	}

	session, err := h.authService.SignUp(r.Context(), body.Email, body.Password, body.Name)
	if err != nil {
		handleError(w, r, err)
		return
	}

	h.authService.SetSessionCookies(w, session)
	writeJSON(w, http.StatusCreated, userResponse{User: session.User.Public()})
}

func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var body credentialsRequest
	err := decodeJSON(w, r, &body)
	if err != nil {
		handleError(w, r, err)
		return
	}

	session, err := h.authService.SignIn(r.Context(), body.Email, body.Password)
	if err != nil {
		handleError(w, r, err)
		return
	}

	h.authService.SetSessionCookies(w, session)
	writeJSON(w, http.StatusOK, sessionResponse{
		User:            session.User.Public(),
		AccessExpiresAt: session.AccessExpiresAt,
	})
}

// Refresh issues a new access token from the refresh cookie. The refresh
// token itself is not rotated.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var refreshToken string
	cookie, err := r.Cookie(service.RefreshCookieName)
	if err == nil {
		refreshToken = cookie.Value
	}

	token, expiresAt, err := h.authService.Refresh(refreshToken)
	if err != nil {
		handleError(w, r, err)
		return
	}

	h.authService.SetAccessCookie(w, token, expiresAt)
	writeJSON(w, http.StatusOK, refreshResponse{AccessExpiresAt: expiresAt})
}

func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	h.authService.ClearSessionCookies(w)
	writeJSON(w, http.StatusOK, messageResponse{Message: "signed out"})
}
