package auth

import "context"

type contextKey struct{}

// Identity is the resolved caller for one request: the local user row plus
// the profile claims carried by the bearer token.
type Identity struct {
	UserID     int64
	ExternalID string
	Name       string
	Email      string
	ImageURL   string
}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(contextKey{}).(Identity)
	return id, ok
}

// UserID returns the authenticated local user id, or 0 when the request is
// anonymous.
func UserID(ctx context.Context) int64 {
	id, ok := FromContext(ctx)
	if !ok {
		return 0
	}
	return id.UserID
}
