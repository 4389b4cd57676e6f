package core

import "context"

// Identity is the authenticated caller of an operation.
type Identity struct {
	UserID int64
	Role   Role
}

func (i Identity) IsAdmin() bool { return i.Role == RoleAdmin }

// CanAccess is the single authorization predicate for owned resources:
// administrators reach everything, users reach only what they own.
func CanAccess(id Identity, ownerID int64) bool {
	if id.IsAdmin() {
		return true
	}
	return id.UserID > 0 && id.UserID == ownerID
}

type identityKey struct{}

// WithIdentity stores an authenticated identity in ctx.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFrom returns the identity stored in ctx, if any.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}

// RequireIdentity returns the identity in ctx or an Unauthenticated error.
func RequireIdentity(ctx context.Context) (Identity, error) {
	id, ok := IdentityFrom(ctx)
	if !ok || id.UserID <= 0 {
		return Identity{}, Unauthenticated("Unauthorized")
	}
	return id, nil
}

// RequireAdmin is RequireIdentity plus an ADMIN role check.
func RequireAdmin(ctx context.Context) (Identity, error) {
	id, err := RequireIdentity(ctx)
	if err != nil {
		return Identity{}, err
	}
	if !id.IsAdmin() {
		return Identity{}, Forbidden("Forbidden. Admin only.")
	}
	return id, nil
}
