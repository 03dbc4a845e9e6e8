package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/darklock/relay/internal/logger"
	"github.com/darklock/relay/internal/relay"
)

type ctxKey int

const callerIDKey ctxKey = iota

// CallerID returns the authenticated user id stored by RequireAuth.
func CallerID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(callerIDKey).(string)
	return id, ok
}

// ContextWithCallerID returns a context carrying the caller id. Exported for
// handler tests, which bypass the middleware.
func ContextWithCallerID(ctx context.Context, callerID string) context.Context {
	return context.WithValue(ctx, callerIDKey, callerID)
}

// RequireAuth returns middleware that rejects requests without a valid bearer
// token and stores the token subject in the request context.
//
// Failures are reported uniformly as 401 so a probing client cannot
// distinguish a malformed token from an expired one.
func (v *Verifier) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			w.Header().Set("WWW-Authenticate", "Bearer")
			relay.RespondWithErrorResponse(w, r,
				relay.NewUnauthorizedError("missing bearer token"))
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		callerID, err := v.ValidateToken(tokenString)
		if err != nil {
			reqLogger := logger.ContextRequestLogger(r.Context())
			reqLogger.Warn("token validation failed",
				slog.String("error", err.Error()),
			)

			w.Header().Set("WWW-Authenticate", "Bearer")
			relay.RespondWithErrorResponse(w, r,
				relay.NewUnauthorizedError("invalid bearer token"))
			return
		}

		logger.ContextWithLogAttrs(r.Context(),
			slog.String("caller_id", callerID),
		)

		next.ServeHTTP(w, r.WithContext(ContextWithCallerID(r.Context(), callerID)))
	})
}
