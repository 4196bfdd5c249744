package services

import "context"

type actorKey struct{}

// WithActingUser returns a context carrying the ID of the user performing writes.
// The ID is recorded on created relationships and in the audit log.
func WithActingUser(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, actorKey{}, userID)
}

// ActingUser returns the acting user ID stored in ctx, or "".
func ActingUser(ctx context.Context) string {
	if id, ok := ctx.Value(actorKey{}).(string); ok {
		return id
	}
	return ""
}
