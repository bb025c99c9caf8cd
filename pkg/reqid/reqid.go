// Package reqid tags each HTTP request with an id that follows it through
// the context, the X-Request-ID response header and the request_id log
// attribute set by middleware.Logger.
package reqid

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

type ctxKey struct{}

// Header carries the id in both directions.
const Header = "X-Request-ID"

const maxLen = 128

// New returns a time-ordered UUIDv7, falling back to v4 if the clock source
// fails.
func New() string {
	if id, err := uuid.NewV7(); err == nil {
		return id.String()
	}
	return uuid.NewString()
}

func WithValue(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromCtx returns the id stored by Middleware, or "".
func FromCtx(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

// Middleware reuses a client-supplied id when it looks like one and mints a
// new id otherwise.
func Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(Header)
			if !acceptable(id) {
				id = New()
			}
			w.Header().Set(Header, id)
			next.ServeHTTP(w, r.WithContext(WithValue(r.Context(), id)))
		})
	}
}

// acceptable allows non-empty printable ASCII without spaces, up to maxLen.
func acceptable(id string) bool {
	if id == "" || len(id) > maxLen {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] <= ' ' || id[i] > '~' {
			return false
		}
	}
	return true
}
