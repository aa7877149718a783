// Package auth authenticates clients of the admin HTTP API. File access is
// checked by the engine against the session identity, so there is no
// per-path authorizer here.
package auth

import (
	"context"
	"errors"
)

// Common authentication errors
var (
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrInvalidToken         = errors.New("invalid token")
)

// Authenticator defines the interface for client authentication
type Authenticator interface {
	// Authenticate validates a token and returns an identifier for the
	// client that presented it, safe to log.
	Authenticate(ctx context.Context, token string) (clientID string, err error)
}
