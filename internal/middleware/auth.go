package middleware

import (
	"net/http"

	"github.com/templui/secondbrain/internal/ctxkeys"
	"github.com/templui/secondbrain/internal/service"
)

// RequireAuth verifies the access token cookie and puts the subject id in
// the request context. It never touches the database.
func RequireAuth(tokens *service.TokenService) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			var token string
			cookie, err := r.Cookie(service.AccessCookieName)
			if err == nil {
				token = cookie.Value
			}

			userID, err := tokens.VerifyAccess(token)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required")
				return
			}

			ctx := ctxkeys.WithUserID(r.Context(), userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		}
	}
}
