package middleware

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
)

// APIKeyAuth checks the X-API-Key header against keys. When required is
// false every request passes; when it is true and keys is empty every
// request is rejected.
func APIKeyAuth(required bool, keys []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !required {
				next.ServeHTTP(w, r)
				return
			}

			key := r.Header.Get("X-API-Key")
			if key == "" || !validKey(key, keys) {
				slog.Warn("auth: rejected api key",
					"path", r.URL.Path,
					"method", r.Method,
					"remote_addr", r.RemoteAddr,
					"missing", key == "",
				)
				reject(w, http.StatusUnauthorized, errorBody{
					Error:   "invalid api key",
					Message: "The request was not authorized",
					Action:  "Check the API key configured for the dashboard",
					Code:    "AUTH001",
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// validKey compares against every configured key so the time taken does
// not reveal which key matched.
func validKey(key string, keys []string) bool {
	match := 0
	for _, k := range keys {
		match |= subtle.ConstantTimeCompare([]byte(key), []byte(k))
	}
	return match == 1
}
