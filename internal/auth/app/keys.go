package app

import (
	"fmt"
	"log/slog"

	"github.com/qwanyx/qwanyx/pkg/cryptox"
	"github.com/qwanyx/qwanyx/pkg/jwtx"
)

// InitAuthKeys creates the KeyManager that signs workspace tokens.
//
// With SigningKeyFile set, the Ed25519 key is loaded from that file, or
// generated and written there on first start, and tokens survive restarts.
// Without it an ephemeral key is generated and every token issued by a
// previous process becomes invalid.
func InitAuthKeys(cfg Config, logger *slog.Logger) (*jwtx.KeyManager, error) {
	var pemKey []byte

	if cfg.SigningKeyFile != "" {
		key, created, err := cryptox.LoadOrCreateEd25519Key(cfg.SigningKeyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load signing key: %w", err)
		}
		pemKey = key
		if created {
			logger.Info("generated new signing key", "path", cfg.SigningKeyFile)
		}
	}

	keyManager, err := jwtx.NewKeyManager(jwtx.KeyManagerOptions{
		Issuer:   cfg.Issuer,
		Audience: cfg.Audience,
		KeyPEM:   pemKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize key manager: %w", err)
	}

	logger.Info("signing keys loaded",
		"algorithm", keyManager.Algorithm(),
		"kid", keyManager.Signer.KID(),
		"issuer", cfg.Issuer,
		"persistent", len(pemKey) > 0,
	)
	if len(pemKey) == 0 {
		logger.Warn("ephemeral signing key in use, tokens will not survive a restart")
	}

	return keyManager, nil
}
