package middleware

import (
	"net/http"

	"github.com/frahmantamala/storefront-pos/pkg/logger"

	"github.com/google/uuid"
)

// RequestID propagates an X-Trace-ID header, minting one when absent,
// and attaches it to the request-scoped logger context.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := r.Header.Get("X-Trace-ID")
		if traceID == "" {
			traceID = uuid.NewString()
		}

		ctx := logger.With(r.Context(), "traceID", traceID)
		w.Header().Set("X-Trace-ID", traceID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
