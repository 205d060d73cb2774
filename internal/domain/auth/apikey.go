// Package auth holds the admin API key model. Keys are stored only as
// HMAC-SHA256 hashes; the pepper lives in server configuration.
package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// ScopeAdmin grants access to the back-office surface.
const ScopeAdmin = "admin"

// APIKeyInfo holds the identity and permission data for a validated key.
type APIKeyInfo struct {
	ID      string
	KeyHash string
	Name    string
	// UserID binds the key to a customer profile when non-empty, letting
	// profile-scoped storefront routes identify the caller.
	UserID string
	Scopes []string
}

// HasScope reports whether the key carries the given scope.
func (k *APIKeyInfo) HasScope(scope string) bool {
	for _, s := range k.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

// HashKey computes the hex HMAC-SHA256 of a raw API key under the pepper.
// Seeding and request authentication must agree on this exact form.
func HashKey(rawKey string, pepper []byte) string {
	mac := hmac.New(sha256.New, pepper)
	mac.Write([]byte(rawKey))
	return hex.EncodeToString(mac.Sum(nil))
}

// Repository provides lookup of API keys by their HMAC hash.
type Repository interface {
	FindByHash(ctx context.Context, hash string) (*APIKeyInfo, error)
}
