package auth

import (
	"context"

	"github.com/go-kratos/kratos/v2/middleware"
	"github.com/go-kratos/kratos/v2/transport"
)

type contextKey string

const (
	// UserIDKey carries the authenticated user id (string UUID).
	UserIDKey contextKey = "user_id"
)

// userIDHeader is set by the platform's edge gateway after session-token
// validation; this service trusts it and never sees raw credentials.
const userIDHeader = "X-User-Id"

// GetUIDFromContext returns the authenticated user id, if any.
func GetUIDFromContext(ctx context.Context) (string, bool) {
	uid, ok := ctx.Value(UserIDKey).(string)
	return uid, ok && uid != ""
}

// WithUID returns a context carrying the given user id. Used by tests and by
// the middleware below.
func WithUID(ctx context.Context, uid string) context.Context {
	return context.WithValue(ctx, UserIDKey, uid)
}

// Middleware extracts the authenticated user id from the transport header
// into the request context.
func Middleware() middleware.Middleware {
	return func(handler middleware.Handler) middleware.Handler {
		return func(ctx context.Context, req interface{}) (interface{}, error) {
			if tr, ok := transport.FromServerContext(ctx); ok {
				if uid := tr.RequestHeader().Get(userIDHeader); uid != "" {
					ctx = WithUID(ctx, uid)
				}
			}
			return handler(ctx, req)
		}
	}
}
