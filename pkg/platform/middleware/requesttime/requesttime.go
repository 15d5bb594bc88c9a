// Package requesttime pins one "now" per request so every deadline check in
// that request sees the same instant, and tags the request with a
// correlation id for audit logs.
package requesttime

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"impactx/pkg/requestcontext"
)

const HeaderRequestID = "X-Request-ID"

// Middleware captures the current time at the start of the request and
// propagates or mints the request id.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), time.Now())

		requestID := r.Header.Get(HeaderRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		ctx = requestcontext.WithRequestID(ctx, requestID)
		w.Header().Set(HeaderRequestID, requestID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
