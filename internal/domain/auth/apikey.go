// Package auth defines API key identities for the back-office surface.
package auth

import "context"

// ScopeBackoffice grants access to the restaurateur endpoints.
const ScopeBackoffice = "backoffice"

// Key is a provisioned API key. Only the HMAC digest of the secret is stored.
type Key struct {
	ID      string
	KeyHash string
	Name    string
	Scopes  []string
}

// HasScope reports whether the key carries the given scope.
func (k *Key) HasScope(scope string) bool {
	for _, s := range k.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

// Repository looks up provisioned keys by their stored digest.
type Repository interface {
	FindByHash(ctx context.Context, hash string) (*Key, error)
}
