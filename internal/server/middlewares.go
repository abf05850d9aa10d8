package server

import (
	"net/http"

	"github.com/Heidric/workify/internal/lib/jwt"
)

// requirePermanentPassword blocks tokens issued against an admin-generated
// password until the user changes it.
func (s *Server) requirePermanentPassword(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := jwt.ClaimsFromContext(r.Context())
		if !ok {
			UnauthorizedError(w)
			return
		}
		if claims.PasswordTemporary {
			PasswordChangeRequiredError(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}
