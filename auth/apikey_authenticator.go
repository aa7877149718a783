package auth

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"
)

type apiKey struct {
	digest [sha256.Size]byte
	id     string
}

// APIKeyAuthenticator implements authentication using static API keys
type APIKeyAuthenticator struct {
	keys []apiKey
}

// NewAPIKeyAuthenticator creates a new API key authenticator. Empty keys
// are ignored.
func NewAPIKeyAuthenticator(keys []string) *APIKeyAuthenticator {
	a := &APIKeyAuthenticator{}
	for _, key := range keys {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		digest := sha256.Sum256([]byte(key))
		a.keys = append(a.keys, apiKey{
			digest: digest,
			id:     "key-" + hex.EncodeToString(digest[:4]),
		})
	}
	return a
}

// Len returns the number of usable keys.
func (a *APIKeyAuthenticator) Len() int { return len(a.keys) }

// Authenticate accepts a bare key or a "Bearer <key>" header value. The
// client ID is derived from the key's digest.
func (a *APIKeyAuthenticator) Authenticate(ctx context.Context, token string) (string, error) {
	token = strings.TrimSpace(token)
	if rest, ok := strings.CutPrefix(token, "Bearer"); ok && (rest == "" || rest[0] == ' ' || rest[0] == '\t') {
		token = strings.TrimSpace(rest)
	}
	if token == "" {
		return "", ErrInvalidToken
	}

	digest := sha256.Sum256([]byte(token))
	for _, key := range a.keys {
		if subtle.ConstantTimeCompare(digest[:], key.digest[:]) == 1 {
			return key.id, nil
		}
	}
	return "", ErrAuthenticationFailed
}
