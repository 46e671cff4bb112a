package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/zitadel/oidc/v3/pkg/client/rp"
	"github.com/zitadel/oidc/v3/pkg/oidc"

	domainerrors "github.com/pagewise/pagewise-server/internal/errors"
)

// OIDCConfig configures an OIDCVerifier.
type OIDCConfig struct {
	Issuer     string
	ClientID   string // expected audience
	JWKSURL    string
	HTTPClient *http.Client
}

// OIDCVerifier verifies ID tokens against a provider's published signing
// keys. Keys are fetched lazily and refreshed when an unknown key ID appears.
type OIDCVerifier struct {
	verifier *rp.IDTokenVerifier
}

// NewOIDCVerifier creates a verifier. No network call is made until the
// first token is checked.
func NewOIDCVerifier(cfg OIDCConfig) (*OIDCVerifier, error) {
	if cfg.Issuer == "" || cfg.ClientID == "" || cfg.JWKSURL == "" {
		return nil, errors.New("oidc verifier requires issuer, client ID and JWKS URL")
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	keySet := rp.NewRemoteKeySet(client, cfg.JWKSURL)
	return &OIDCVerifier{
		verifier: rp.NewIDTokenVerifier(cfg.Issuer, cfg.ClientID, keySet),
	}, nil
}

// Verify checks signature, issuer, audience and expiry of an ID token.
func (v *OIDCVerifier) Verify(ctx context.Context, token string) (*Identity, error) {
	if token == "" {
		return nil, domainerrors.Unauthorized("Missing identity token")
	}

	claims, err := rp.VerifyIDToken[*oidc.IDTokenClaims](ctx, token, v.verifier)
	if err != nil {
		return nil, mapVerificationError(err)
	}

	return &Identity{
		UID:     claims.Subject,
		Email:   claims.Email,
		Name:    claims.Name,
		Picture: claims.Picture,
	}, nil
}

func mapVerificationError(err error) error {
	if errors.Is(err, oidc.ErrExpired) || strings.Contains(err.Error(), "expired") {
		return domainerrors.TokenExpired("Token expired").WithCause(err)
	}
	return domainerrors.Unauthorized("Invalid token").WithCause(err)
}

var _ Verifier = (*OIDCVerifier)(nil)
