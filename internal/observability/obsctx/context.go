// Package obsctx carries request-scoped correlation values.
package obsctx

import "context"

type ctxKey int

const (
	requestIDKey ctxKey = iota
	actorKey
)

type actorValue struct {
	id    string
	roles []string
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

func RequestIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(requestIDKey).(string); ok {
		return v
	}
	return ""
}

func WithActor(ctx context.Context, id string, roles []string) context.Context {
	return context.WithValue(ctx, actorKey, actorValue{id: id, roles: roles})
}

func ActorFromContext(ctx context.Context) (string, []string) {
	if v, ok := ctx.Value(actorKey).(actorValue); ok {
		return v.id, v.roles
	}
	return "", nil
}
