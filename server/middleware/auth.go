package middleware

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/ebogdum/jfsio/auth"
)

type contextKey string

const (
	clientIDKey  contextKey = "client_id"
	RequestIDKey contextKey = "request_id"
)

// V1AuthMiddleware rejects requests without a valid API key in the
// Authorization header.
func V1AuthMiddleware(authenticator auth.Authenticator, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				logger.Debug("Missing Authorization header")
				sendError(w, logger, "AUTHENTICATION_FAILED", auth.ErrAuthenticationFailed.Error(), http.StatusUnauthorized)
				return
			}

			clientID, err := authenticator.Authenticate(r.Context(), header)
			if err != nil {
				logger.Debug("Authentication failed", zap.Error(err))
				sendError(w, logger, "AUTHENTICATION_FAILED", auth.ErrAuthenticationFailed.Error(), http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), clientIDKey, clientID)
			logger.Debug("Client authenticated", zap.String("client_id", clientID))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// V1RequestIDMiddleware adds a unique request ID to each request context
func V1RequestIDMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := generateRequestID()
			w.Header().Set("X-Request-ID", requestID)
			ctx := context.WithValue(r.Context(), RequestIDKey, requestID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func generateRequestID() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// GetClientID extracts the authenticated client ID from request context
func GetClientID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(clientIDKey).(string)
	return id, ok
}

// GetRequestID extracts the request ID from request context
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDKey).(string)
	return id
}

func sendError(w http.ResponseWriter, logger *zap.Logger, code, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]string{"code": code, "message": message}); err != nil {
		logger.Error("Failed to write error response", zap.Error(err))
	}
}
