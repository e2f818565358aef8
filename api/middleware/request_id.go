package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/sweettreats-backend/api/responses"
	"github.com/angelmondragon/sweettreats-backend/api/validators"
	"github.com/angelmondragon/sweettreats-backend/pkg/logger"
)

const (
	RequestIDHeader = "X-Request-Id"

	maxRequestIDLen = 128
)

// RequestID reuses a well-formed X-Request-Id from the storefront or mints a
// new one, echoes it on the response and carries it into logs and error bodies.
func RequestID(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID, ok := validators.HeaderToken(r.Header.Get(RequestIDHeader), maxRequestIDLen)
			if !ok {
				reqID = uuid.NewString()
			}
			w.Header().Set(RequestIDHeader, reqID)

			ctx := responses.WithRequestID(r.Context(), reqID)
			if logg != nil {
				ctx = logg.WithRequestID(ctx, reqID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
