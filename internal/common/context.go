package common

import (
	"context"

	"github.com/google/uuid"

	"porchboard/internal/models"
)

type contextKey string

const identityKey contextKey = "identity"

// Identity is the authenticated caller attached to the request
// context by the auth middleware. Guards and handlers read it
// explicitly; there is no ambient request-scoped state.
type Identity struct {
	UserID uuid.UUID
	CityID uuid.UUID
	Role   models.Role
}

// WithIdentity returns a child context carrying the authenticated
// identity.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext extracts the authenticated identity from the
// request context.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}
