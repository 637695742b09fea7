package middleware

import (
	"context"
	"errors"
	"net/http"
	"slices"

	"github.com/go-chi/jwtauth/v5"

	"auth_api/internal/common"
	"auth_api/internal/common/security"
)

type contextKey string

const (
	UserIDCtxKey   contextKey = "userID"
	UserRoleCtxKey contextKey = "userRole"
	PayloadCtxKey  contextKey = "payload"
)

// Authenticator turns a verified bearer token into a request-scoped auth
// context (user id + role). The token's role claim is trusted without
// re-fetching the user; role changes take effect on next token issuance.
func Authenticator(er *common.ErrorResponder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, claims, err := jwtauth.FromContext(r.Context())
			if err != nil || token == nil {
				if errors.Is(err, jwtauth.ErrNoTokenFound) {
					er.Respond(w, r, common.ErrAuthRequired)
				} else {
					er.Respond(w, r, common.ErrTokenInvalid)
				}
				return
			}

			userID, err := security.GetUserIDFromClaims(claims)
			if err != nil {
				er.Respond(w, r, common.ErrTokenInvalid)
				return
			}
			role, err := security.GetUserRoleFromClaims(claims)
			if err != nil {
				er.Respond(w, r, common.ErrTokenInvalid)
				return
			}

			ctx := context.WithValue(r.Context(), UserIDCtxKey, userID)
			ctx = context.WithValue(ctx, UserRoleCtxKey, role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRoles rejects authenticated requests whose role is not in the
// allowed set. It must run after Authenticator; a request that reaches it
// without an auth context is treated as unauthenticated.
func RequireRoles(er *common.ErrorResponder, roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, ok := GetUserRoleFromContext(r.Context())
			if !ok {
				er.Respond(w, r, common.ErrAuthRequired)
				return
			}
			if !slices.Contains(roles, role) {
				er.Respond(w, r, common.E(common.ErrForbidden, common.MsgForbidden))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetUserIDFromContext returns the authenticated subject id, if any.
func GetUserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(UserIDCtxKey).(string)
	return userID, ok
}

// GetUserRoleFromContext returns the authenticated subject's role, if any.
func GetUserRoleFromContext(ctx context.Context) (string, bool) {
	userRole, ok := ctx.Value(UserRoleCtxKey).(string)
	return userRole, ok
}
