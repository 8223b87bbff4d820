package coordinator

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// requireBearerToken wraps next so that every request must carry
// "Authorization: Bearer <token>" matching token, per spec §4.8: "optional
// bearer token (single shared secret); when configured, required on all
// /api/*". An empty token disables auth entirely (the zero value is
// "auth off", matching the teacher's fail-open-on-unconfigured-feature
// idiom used for its own optional middlewares).
func requireBearerToken(token string, next http.Handler) http.Handler {
	if token == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		const prefix = "Bearer "
		if !strings.HasPrefix(header, prefix) {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		supplied := strings.TrimPrefix(header, prefix)
		if subtle.ConstantTimeCompare([]byte(supplied), []byte(token)) != 1 {
			writeError(w, http.StatusUnauthorized, "invalid bearer token")
			return
		}
		next.ServeHTTP(w, r)
	})
}
