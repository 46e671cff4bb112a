package auth

import (
	"context"
	"encoding/hex"
	"fmt"
	"time"

	"aidanwoods.dev/go-paseto"

	domainerrors "github.com/pagewise/pagewise-server/internal/errors"
	"github.com/pagewise/pagewise-server/internal/id"
)

const (
	tokenIssuer   = "pagewise-server"
	tokenAudience = "pagewise-client"

	// PASETO v4 symmetric key requirements.
	keyBytesSize = 32 // 256 bits
	keyHexSize   = 64 // 32 bytes as hex string
)

// TokenService issues and verifies PASETO v4.local identity tokens.
type TokenService struct {
	symmetricKey paseto.V4SymmetricKey
	duration     time.Duration
	now          func() time.Time
}

// NewTokenService creates a token service from a hex-encoded 32-byte key.
func NewTokenService(keyHex string, duration time.Duration) (*TokenService, error) {
	if len(keyHex) != keyHexSize {
		return nil, fmt.Errorf("PASETO v4 key must be exactly %d hex characters (%d bytes), got %d", keyHexSize, keyBytesSize, len(keyHex))
	}

	keyBytes, err := hex.DecodeString(keyHex)
	if err != nil {
		return nil, fmt.Errorf("invalid hex string for PASETO key: %w", err)
	}

	key, err := paseto.V4SymmetricKeyFromBytes(keyBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to create PASETO symmetric key: %w", err)
	}

	return &TokenService{
		symmetricKey: key,
		duration:     duration,
		now:          time.Now,
	}, nil
}

// Issue creates a token for identity, valid for the configured duration.
func (s *TokenService) Issue(identity Identity) (string, error) {
	if identity.UID == "" {
		return "", domainerrors.Validation("identity requires a uid")
	}
	now := s.now()

	token := paseto.NewToken()
	token.SetIssuer(tokenIssuer)
	token.SetSubject(identity.UID)
	token.SetAudience(tokenAudience)
	token.SetIssuedAt(now)
	token.SetNotBefore(now)
	token.SetExpiration(now.Add(s.duration))

	tokenID, err := id.Generate("tok")
	if err != nil {
		return "", fmt.Errorf("generate token ID: %w", err)
	}
	token.SetJti(tokenID)

	//nolint:errcheck // Token.Set only errors on values that cannot be encoded
	_ = token.Set("email", identity.Email)
	//nolint:errcheck // Token.Set only errors on values that cannot be encoded
	_ = token.Set("name", identity.Name)
	//nolint:errcheck // Token.Set only errors on values that cannot be encoded
	_ = token.Set("picture", identity.Picture)

	return token.V4Encrypt(s.symmetricKey, nil), nil
}

// Verify decrypts a token and checks issuer, audience and validity window.
func (s *TokenService) Verify(_ context.Context, tokenString string) (*Identity, error) {
	if tokenString == "" {
		return nil, domainerrors.Unauthorized("Missing identity token")
	}

	// Expiry is checked separately so it can be reported as its own error.
	parser := paseto.NewParserWithoutExpiryCheck()
	parser.AddRule(paseto.ForAudience(tokenAudience))
	parser.AddRule(paseto.IssuedBy(tokenIssuer))

	token, err := parser.ParseV4Local(s.symmetricKey, tokenString, nil)
	if err != nil {
		return nil, domainerrors.Unauthorized("Invalid token").WithCause(err)
	}

	now := s.now()
	exp, err := token.GetExpiration()
	if err != nil {
		return nil, domainerrors.Unauthorized("Invalid token").WithCause(err)
	}
	if !now.Before(exp) {
		return nil, domainerrors.TokenExpired("Token expired")
	}
	if nbf, err := token.GetNotBefore(); err == nil && now.Before(nbf) {
		return nil, domainerrors.Unauthorized("Token not yet valid")
	}

	subject, err := token.GetSubject()
	if err != nil || subject == "" {
		return nil, domainerrors.Unauthorized("Invalid token")
	}

	identity := &Identity{UID: subject}
	identity.Email, _ = token.GetString("email")
	identity.Name, _ = token.GetString("name")
	identity.Picture, _ = token.GetString("picture")
	return identity, nil
}

// Duration returns the configured token lifetime.
func (s *TokenService) Duration() time.Duration {
	return s.duration
}

var _ Verifier = (*TokenService)(nil)
