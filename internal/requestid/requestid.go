// Package requestid generates and propagates per-request trace ids across
// the coordinator's HTTP API, so a single request can be followed through
// its structured log lines.
package requestid

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

type contextKey string

const (
	contextKeyRequestID contextKey = "request_id"
	// Header is the HTTP header carrying the request id, both inbound
	// (client-supplied, e.g. from a load balancer) and outbound.
	Header = "X-Request-ID"
)

// FromContext returns the request id stored in ctx, or "" if none.
func FromContext(ctx context.Context) string {
	if id, ok := ctx.Value(contextKeyRequestID).(string); ok {
		return id
	}
	return ""
}

func withRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, contextKeyRequestID, id)
}

// Middleware propagates an inbound X-Request-ID header or generates a new
// UUID v4, attaching it to the response header and the request context.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(Header)
		if id == "" {
			id = uuid.New().String()
		}
		w.Header().Set(Header, id)
		next.ServeHTTP(w, r.WithContext(withRequestID(r.Context(), id)))
	})
}
