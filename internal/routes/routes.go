package routes

import (
	"net/http"

	"github.com/templui/secondbrain/internal/app"
	"github.com/templui/secondbrain/internal/handler"
	"github.com/templui/secondbrain/internal/middleware"
)

func SetupRoutes(app *app.App) http.Handler {
	// Handlers
	health := handler.NewHealthHandler(app.DB)
	auth := handler.NewAuthHandler(app.AuthService)
	user := handler.NewUserHandler(app.UserService, app.AuthService)
	content := handler.NewContentHandler(app.ContentService)

	requireAuth := middleware.RequireAuth(app.TokenService)

	mux := http.NewServeMux()

	// ============================================================================
	// PUBLIC ROUTES
	// ============================================================================

	mux.HandleFunc("GET /health", health.Health)

	// Auth
	mux.HandleFunc("GET /api/auth/csrf", auth.CSRFToken)
	mux.HandleFunc("POST /api/auth/signup", auth.SignUp)
	mux.HandleFunc("POST /api/auth/signin", auth.SignIn)
	mux.HandleFunc("POST /api/auth/refresh", auth.Refresh)
	mux.HandleFunc("POST /api/auth/signout", auth.SignOut)

	// ============================================================================
	// PROTECTED ROUTES
	// ============================================================================

	// Profile
	mux.HandleFunc("GET /api/users/profile", requireAuth(user.Profile))
	mux.HandleFunc("PUT /api/users/profile", requireAuth(user.UpdateProfile))
	mux.HandleFunc("DELETE /api/users/profile", requireAuth(user.DeleteAccount))
	mux.HandleFunc("PUT /api/users/password", requireAuth(user.ChangePassword))

	// Contents
	mux.HandleFunc("GET /api/contents", requireAuth(content.List))
	mux.HandleFunc("POST /api/contents", requireAuth(content.Create))
	mux.HandleFunc("GET /api/contents/{id}", requireAuth(content.Get))
	mux.HandleFunc("PUT /api/contents/{id}", requireAuth(content.Update))
	mux.HandleFunc("DELETE /api/contents/{id}", requireAuth(content.Delete))
	mux.HandleFunc("PATCH /api/contents/{id}/share", requireAuth(content.Share))

	// Document attachments
	mux.HandleFunc("PUT /api/contents/{id}/document", requireAuth(content.UploadDocument))
	mux.HandleFunc("GET /api/contents/{id}/document", requireAuth(content.DocumentURL))

	// Global middleware - executed in order (top to bottom)
	return middleware.Chain(
		mux,
		middleware.RequestLogging,
		middleware.Config(app.Cfg), // CSRF reads the cookie policy from the context config
		middleware.CSRFProtection,
	)
}
