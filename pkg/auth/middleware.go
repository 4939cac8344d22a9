package auth

import (
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// RequireSession is chi middleware that validates the Bearer session
// token and stores the bound wallet in the request context.
func RequireSession(issuer *SessionIssuer, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				http.Error(w, `{"error":"missing bearer token","code":401}`, http.StatusUnauthorized)
				return
			}

			wallet, err := issuer.Validate(token)
			if err != nil {
				logger.Debug("session validation failed", zap.Error(err))
				http.Error(w, `{"error":"invalid session token","code":401}`, http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithWallet(r.Context(), wallet)))
		})
	}
}
