package jwt

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/Heidric/workify/internal/metrics"
	"github.com/Heidric/workify/internal/model"
	"github.com/go-chi/chi/middleware"
	"github.com/pkg/errors"
)

type ctxKey string

const CtxKeyClaims ctxKey = "claims"

const (
	MsgMissingOrMalformedToken = "Missing or malformed token"
	MsgInvalidOrExpiredToken   = "Invalid or expired token"
	MsgMissingToken            = "Missing token"
	MsgForbidden               = "Forbidden"
)

func WithClaims(ctx context.Context, claims model.UserClaim) context.Context {
	return context.WithValue(ctx, CtxKeyClaims, claims)
}

// ClaimsFromContext returns the identity attached by RequireAuth or
// MaybeAuth. ok is false for anonymous requests.
func ClaimsFromContext(ctx context.Context) (claims model.UserClaim, ok bool) {
	claims, ok = ctx.Value(CtxKeyClaims).(model.UserClaim)
	return claims, ok
}

// BearerToken extracts the token from an Authorization header value. The
// scheme is matched case-insensitively and surrounding whitespace ignored.
func BearerToken(header string) (string, bool) {
	fields := strings.Fields(header)
	if len(fields) != 2 || !strings.EqualFold(fields[0], "Bearer") {
		return "", false
	}

	return fields[1], true
}

func (c *Codec) authenticate(r *http.Request) (*model.UserClaim, error) {
	token, ok := BearerToken(r.Header.Get("Authorization"))
	if !ok {
		return nil, ErrMissingToken
	}

	return c.Verify(token)
}

// identify is the best-effort variant of authenticate: any failure means
// an anonymous caller.
func (c *Codec) identify(r *http.Request) (model.UserClaim, bool) {
	claims, err := c.authenticate(r)
	if err != nil {
		return model.UserClaim{}, false
	}

	return *claims, true
}

// RequireAuth rejects requests without a valid bearer token with 401.
func (c *Codec) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := c.authenticate(r)
		switch {
		case errors.Is(err, ErrMissingToken):
			metrics.AuthDecision(metrics.OutcomeMissingToken)
			writeError(w, http.StatusUnauthorized, MsgMissingOrMalformedToken)
			return
		case err != nil:
			c.log.Warn().
				Err(err).
				Str("requestId", middleware.GetReqID(r.Context())).
				Msg("Token verification failed")
			metrics.AuthDecision(metrics.OutcomeInvalidToken)
			writeError(w, http.StatusUnauthorized, MsgInvalidOrExpiredToken)
			return
		}

		metrics.AuthDecision(metrics.OutcomeAuthenticated)
		next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), *claims)))
	})
}

// MaybeAuth attaches the identity when a valid token is present and never
// rejects the request.
func (c *Codec) MaybeAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := c.identify(r)
		if !ok {
			metrics.AuthDecision(metrics.OutcomeAnonymous)
			next.ServeHTTP(w, r)
			return
		}

		metrics.AuthDecision(metrics.OutcomeAuthenticated)
		next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
	})
}

// RequireRole must be mounted after RequireAuth. It answers 401 when no
// identity is attached and 403 when the role is not in roles.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				metrics.AuthDecision(metrics.OutcomeMissingToken)
				writeError(w, http.StatusUnauthorized, MsgMissingToken)
				return
			}
			if !claims.HasRole(roles...) {
				metrics.AuthDecision(metrics.OutcomeForbidden)
				writeError(w, http.StatusForbidden, MsgForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(model.ErrorResponse{Error: msg})
}
