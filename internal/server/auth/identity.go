package auth

import "context"

// Identity is the verified payload of a bearer token. It lives for one
// request only.
type Identity struct {
	ID    string
	Email string
}

type identityKey struct{}

// WithIdentity returns a child context carrying id.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext returns the identity attached by the auth gate.
func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(*Identity)
	return id, ok && id != nil
}

// TokenIssuer is what the account service needs from the token service.
type TokenIssuer interface {
	Issue(accountID, email string) (string, error)
}

// TokenVerifier is what the gates need from the token service.
type TokenVerifier interface {
	Verify(token string) (*Identity, error)
}
