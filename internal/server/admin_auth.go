package server

import (
	"net/http"

	"golang.org/x/crypto/bcrypt"
)

const adminKeyHeader = "X-Admin-Key"

// adminKeyMiddleware admits requests whose X-Admin-Key matches the bcrypt
// hash. An empty hash disables the admin routes.
func adminKeyMiddleware(hash string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if hash == "" {
				writeError(w, http.StatusForbidden, "admin access disabled")
				return
			}
			key := r.Header.Get(adminKeyHeader)
			if key == "" || bcrypt.CompareHashAndPassword([]byte(hash), []byte(key)) != nil {
				writeError(w, http.StatusUnauthorized, "invalid admin key")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
