package handler

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// WebhookAuthMiddleware validates the Bearer token the channel sends with
// every inbound activity, using the app credential pair (HS256). With an
// empty appPassword (local Emulator runs) authentication is skipped, which
// mirrors how the channel itself behaves without credentials.
func WebhookAuthMiddleware(appID, appPassword string, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if appPassword == "" {
				next.ServeHTTP(w, r)
				return
			}

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logger.Warn("webhook auth: missing token",
					zap.String("remote_addr", r.RemoteAddr),
				)
				writeError(w, http.StatusUnauthorized, "Token de autenticação não fornecido")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				logger.Warn("webhook auth: invalid token format",
					zap.String("remote_addr", r.RemoteAddr),
				)
				writeError(w, http.StatusUnauthorized, "Formato de token inválido")
				return
			}

			token, err := jwt.Parse(parts[1], func(t *jwt.Token) (any, error) {
				return []byte(appPassword), nil
			},
				jwt.WithValidMethods([]string{"HS256"}),
				jwt.WithAudience(appID),
			)
			if err != nil || !token.Valid {
				logger.Warn("webhook auth: invalid or expired token",
					zap.String("remote_addr", r.RemoteAddr),
					zap.Error(err),
				)
				writeError(w, http.StatusUnauthorized, "Token inválido ou expirado")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
