package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/pnlfinance/family-finance/internal/service"

	"go.uber.org/zap"
)

type contextKey string

const (
	profileIDKey contextKey = "profileID"
	familyIDKey  contextKey = "familyID"
)

// SessionMiddleware validates Bearer session tokens and injects the profile
// and family ids into the request context.
func SessionMiddleware(sessions *service.SessionService, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logger.Warn("session: missing token",
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr),
				)
				writeError(w, http.StatusUnauthorized, "session token not provided")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				logger.Warn("session: invalid token format",
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr),
				)
				writeError(w, http.StatusUnauthorized, "invalid token format")
				return
			}

			claims, err := sessions.ValidateToken(parts[1])
			if err != nil {
				logger.Warn("session: invalid or expired token",
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr),
					zap.Error(err),
				)
				writeError(w, http.StatusUnauthorized, err.Error())
				return
			}

			ctx := context.WithValue(r.Context(), profileIDKey, claims.Subject)
			ctx = context.WithValue(ctx, familyIDKey, claims.FamilyID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ProfileIDFromContext extracts the authenticated profile ID from context.
func ProfileIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(profileIDKey).(string)
	return v
}

// FamilyIDFromContext extracts the authenticated family ID from context.
func FamilyIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(familyIDKey).(string)
	return v
}
