package middleware

import (
	"net/http"

	"github.com/templui/secondbrain/internal/config"
	"github.com/templui/secondbrain/internal/ctxkeys"
)

// Config middleware adds the sanitized app configuration to the request context.
// Signing secrets, storage credentials and the DB connection are left out.
func Config(cfg *config.Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := ctxkeys.WithConfig(r.Context(), cfg.Sanitized())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}