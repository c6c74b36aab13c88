// Package middleware carries request identity through http handlers and
// outbound calls.
package middleware

import (
	"context"

	"github.com/google/uuid"
)

const (
	HeaderCorrelationID = "X-Correlation-Id"
	HeaderUserID        = "X-User-Id"
)

type ctxKey int

const (
	correlationKey ctxKey = iota
	userKey
)

// WithCorrelationID tags ctx so outbound calls carry the same id.
func WithCorrelationID(ctx context.Context, cid string) context.Context {
	return context.WithValue(ctx, correlationKey, cid)
}

// EnsureCorrelationID keeps an existing id or mints one.
func EnsureCorrelationID(ctx context.Context) (context.Context, string) {
	if cid := GetCorrelationID(ctx); cid != "" {
		return ctx, cid
	}
	cid := uuid.NewString()
	return WithCorrelationID(ctx, cid), cid
}

func GetCorrelationID(ctx context.Context) string { return stringValue(ctx, correlationKey) }

func GetUserID(ctx context.Context) string { return stringValue(ctx, userKey) }

func stringValue(ctx context.Context, key ctxKey) string {
	s, _ := ctx.Value(key).(string)
	return s
}
