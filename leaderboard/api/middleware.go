// leaderboard/api/middleware.go
package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/playhive/leaderboard-service/leaderboard/auth"
	sharedapi "github.com/playhive/leaderboard-service/shared/api"
)

// AuthMiddleware rejects requests lacking a valid bearer token. Applied to
// the write routes only when the service is configured to require auth; the
// read routes stay public either way.
func AuthMiddleware(tokens *auth.TokenManager) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := auth.ExtractBearer(r.Header.Get("Authorization"))
			if token == "" {
				sharedapi.WriteUnauthorized(w, "missing bearer token")
				return
			}
			if _, err := tokens.Verify(token); err != nil {
				sharedapi.WriteUnauthorized(w, "invalid token")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
