package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"newsrelay/internal/httputil"
)

// maxRequestIDLength bounds client-supplied IDs before they reach the logs
const maxRequestIDLength = 128

// RequestID tags every request with an ID, reusing the caller's X-Request-ID
// when it sends a reasonable one. The ID is echoed in the response header.
func RequestID() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(httputil.RequestIDHeader)
			if id == "" || len(id) > maxRequestIDLength {
				id = uuid.NewString()
			}

			w.Header().Set(httputil.RequestIDHeader, id)
			next.ServeHTTP(w, httputil.WithRequestID(r, id))
		})
	}
}
