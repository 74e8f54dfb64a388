package auth

import (
	"crypto/subtle"
	"net/http"

	"attendance-bot/internal/http-server/response"

	"github.com/go-chi/render"
)

const HeaderName = "X-Admin-Token"

// AdminToken rejects requests that do not carry the configured token.
func AdminToken(token string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := r.Header.Get(HeaderName)
			if token == "" || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error(response.UNAUTHORIZED, "invalid admin token"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
