// Package auth verifies caller identity tokens.
//
// Two verifiers are available: OIDCVerifier checks ID tokens issued by an
// external OpenID provider such as Firebase, and TokenService checks locally
// issued PASETO tokens for development and tests.
package auth

import (
	"context"
	"strings"

	domainerrors "github.com/pagewise/pagewise-server/internal/errors"
)

// Identity is the verified caller.
type Identity struct {
	UID     string
	Email   string
	Name    string
	Picture string
}

// Verifier checks an identity token and returns who it was issued to.
// Failures are domain errors: TokenExpired for expired tokens and
// Unauthorized for everything else.
type Verifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, error) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", domainerrors.Unauthorized("Invalid authorization header")
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", domainerrors.Unauthorized("Invalid authorization header")
	}
	return token, nil
}
