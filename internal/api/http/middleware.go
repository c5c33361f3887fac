package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"fleet-backoffice/internal/logger"
	"fleet-backoffice/internal/security"
)

type contextKey string

const operatorKey contextKey = "operator"

// authenticate validates the bearer token and stores the operator claims
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := r.Header.Get("Authorization")
		if len(token) > 7 && strings.ToUpper(token[0:7]) == "BEARER " {
			token = token[7:]
		}
		if token == "" {
			writeMessage(w, http.StatusUnauthorized, "authorization token is not provided")
			return
		}

		claims, err := s.tokens.ValidateToken(token)
		if err != nil {
			writeMessage(w, http.StatusUnauthorized, "invalid token: "+err.Error())
			return
		}

		ctx := context.WithValue(r.Context(), operatorKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func requireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := operatorFrom(r.Context())
			if !ok || claims.Role != role {
				writeMessage(w, http.StatusForbidden, role+" role required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func operatorFrom(ctx context.Context) (*security.OperatorClaims, bool) {
	claims, ok := ctx.Value(operatorKey).(*security.OperatorClaims)
	return claims, ok
}

// operatorName is the username recorded on audited actions
func operatorName(ctx context.Context) string {
	if claims, ok := operatorFrom(ctx); ok {
		return claims.Username
	}
	return ""
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Debug("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"elapsed_ms", time.Since(started).Milliseconds(),
		)
	})
}
