package middleware

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/sweettreats-backend/api/responses"
	"github.com/angelmondragon/sweettreats-backend/api/validators"
	pkgerrors "github.com/angelmondragon/sweettreats-backend/pkg/errors"
	"github.com/angelmondragon/sweettreats-backend/pkg/logger"
)

const (
	CartScopeHeader = "X-Cart-Scope"
	UserIDHeader    = "X-User-Id"

	maxHeaderValueLen = 64
)

// CartScope resolves the cart scope and optional user id from request
// headers. A missing scope uses defaultScope.
func CartScope(logg *logger.Logger, defaultScope string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			scope := strings.TrimSpace(r.Header.Get(CartScopeHeader))
			if scope == "" {
				scope = defaultScope
			}
			if !validHeaderValue(scope) {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid cart scope").
					WithDetails(map[string]any{"header": CartScopeHeader}))
				return
			}

			userID := strings.TrimSpace(r.Header.Get(UserIDHeader))
			if userID != "" && !validHeaderValue(userID) {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid user id").
					WithDetails(map[string]any{"header": UserIDHeader}))
				return
			}

			ctx = WithCartScope(ctx, scope)
			if logg != nil {
				ctx = logg.WithCartScope(ctx, scope)
			}
			if userID != "" {
				ctx = WithUserID(ctx, userID)
				if logg != nil {
					ctx = logg.WithUserID(ctx, userID)
				}
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireUser rejects requests that did not identify a user.
func RequireUser(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if UserIDFromContext(r.Context()) == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "user id is required").
					WithDetails(map[string]any{"header": UserIDHeader}))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func validHeaderValue(v string) bool {
	_, ok := validators.HeaderToken(v, maxHeaderValueLen)
	return ok
}
