// Package requestcontext provides HTTP-independent accessors for
// request-scoped values. Middleware sets them; handlers and tests read them.
// Keeping this package free of net/http lets services import only what they
// need.
package requestcontext

import (
	"context"
	"time"

	"specregistry/pkg/domain"
)

type (
	userKey        struct{}
	requestIDKey   struct{}
	requestTimeKey struct{}
	clientIPKey    struct{}
	userAgentKey   struct{}
)

// User retrieves the authenticated caller, or nil when the request is
// anonymous.
func User(ctx context.Context) *domain.UserContext {
	if u, ok := ctx.Value(userKey{}).(*domain.UserContext); ok {
		return u
	}
	return nil
}

// WithUser injects the authenticated caller into the context.
func WithUser(ctx context.Context, user *domain.UserContext) context.Context {
	return context.WithValue(ctx, userKey{}, user)
}

// RequestID retrieves the request ID, empty when unset.
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}

// WithRequestID injects a request ID into the context.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// Now retrieves the request-scoped time, falling back to the wall clock for
// non-HTTP contexts (workers, tests that don't pin time).
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(requestTimeKey{}).(time.Time); ok {
		return t
	}
	return time.Now().UTC()
}

// WithTime pins the request-scoped time. Used by middleware per request and
// by service tests that assert on timestamps.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, requestTimeKey{}, t)
}

// ClientIP retrieves the client IP, empty when unset.
func ClientIP(ctx context.Context) string {
	if ip, ok := ctx.Value(clientIPKey{}).(string); ok {
		return ip
	}
	return ""
}

// UserAgent retrieves the parsed User-Agent summary, empty when unset.
func UserAgent(ctx context.Context) string {
	if ua, ok := ctx.Value(userAgentKey{}).(string); ok {
		return ua
	}
	return ""
}

// WithClientMetadata injects client IP and User-Agent summary.
func WithClientMetadata(ctx context.Context, ip, userAgent string) context.Context {
	ctx = context.WithValue(ctx, clientIPKey{}, ip)
	return context.WithValue(ctx, userAgentKey{}, userAgent)
}
