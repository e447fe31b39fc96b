package pipeline

import (
	"context"

	"github.com/google/uuid"

	"github.com/goliatone/go-catalog-cache/query"
)

type requestIDContextKey struct{}

type queryContextKey struct{}

// WithRequestID attaches a request id used to correlate logs and errors.
func WithRequestID(ctx context.Context, id string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDContextKey{}, id)
}

// RequestID returns the request id attached to ctx, or "".
func RequestID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(requestIDContextKey{}).(string); ok {
		return id
	}
	return ""
}

func ensureRequestID(ctx context.Context) (context.Context, string) {
	if id := RequestID(ctx); id != "" {
		return ctx, id
	}
	id := uuid.NewString()
	return WithRequestID(ctx, id), id
}

// WithQuery attaches the validated query being resolved. Transformers use it
// to stamp request scoped fields, such as platform, onto records.
func WithQuery(ctx context.Context, q query.Query) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, queryContextKey{}, q.Clone())
}

// QueryFrom returns the query attached to ctx, or nil.
func QueryFrom(ctx context.Context) query.Query {
	if ctx == nil {
		return nil
	}
	if q, ok := ctx.Value(queryContextKey{}).(query.Query); ok {
		return q.Clone()
	}
	return nil
}
