package providers

import (
	"fmt"

	"github.com/samber/do/v2"

	"github.com/pagewise/pagewise-server/internal/auth"
	"github.com/pagewise/pagewise-server/internal/config"
	"github.com/pagewise/pagewise-server/internal/logger"
)

// ProvideVerifier provides the identity token verifier for the configured provider.
func ProvideVerifier(i do.Injector) (auth.Verifier, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	switch cfg.Auth.Provider {
	case config.AuthProviderOIDC:
		verifier, err := auth.NewOIDCVerifier(auth.OIDCConfig{
			Issuer:   cfg.Auth.Issuer,
			ClientID: cfg.Auth.ClientID,
			JWKSURL:  cfg.Auth.JWKSURL,
		})
		if err != nil {
			return nil, err
		}
		log.Info("Verifying OIDC identity tokens", "issuer", cfg.Auth.Issuer)
		return verifier, nil

	case config.AuthProviderPaseto:
		tokens, err := do.Invoke[*auth.TokenService](i)
		if err != nil {
			return nil, err
		}
		log.Warn("Verifying locally issued identity tokens; use the oidc provider in production")
		return tokens, nil

	default:
		return nil, fmt.Errorf("unknown auth provider %q", cfg.Auth.Provider)
	}
}

// ProvideTokenService provides the PASETO token service, loading or creating
// its key under the data path.
func ProvideTokenService(i do.Injector) (*auth.TokenService, error) {
	cfg := do.MustInvoke[*config.Config](i)

	keyHex, err := auth.LoadOrGenerateKey(cfg.Data.BasePath)
	if err != nil {
		return nil, err
	}
	return auth.NewTokenService(keyHex, cfg.Auth.TokenDuration)
}
