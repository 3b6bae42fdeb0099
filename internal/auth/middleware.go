package auth

import (
	"context"
	"net/http"
	"strings"
)

// principalKey carries the authenticated user id through a request.
type principalKey struct{}

// AuthMiddleware guards a route subtree: requests present a bearer token
// minted by Login, and the resolved user id travels in the request
// context for the project handlers.
func (s *Service) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			respondError(w, http.StatusUnauthorized, "missing or malformed authorization header")
			return
		}
		userID, err := s.ValidateToken(token)
		if err != nil {
			respondError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		ctx := context.WithValue(r.Context(), principalKey{}, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) (string, bool) {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || token == "" {
		return "", false
	}
	return token, true
}

// UserIDFromContext returns the authenticated user id, or "" outside an
// authenticated route.
func UserIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(principalKey{}).(string)
	return id
}
