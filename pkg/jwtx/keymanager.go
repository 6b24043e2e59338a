package jwtx

import (
	"errors"
	"fmt"
	"time"

	"github.com/qwanyx/qwanyx/pkg/cryptox"
)

// KeyManager wires a signing key, the KeySet published as JWKS, and the
// matching verifier.
type KeyManager struct {
	Signer   Signer
	Verifier Verifier
	KeySet   *KeySet

	issuer   string
	audience []string
}

// KeyManagerOptions configures a KeyManager.
type KeyManagerOptions struct {
	// Issuer is set on issued tokens and required on verified ones.
	Issuer string

	// Audience values set on issued tokens. Empty disables audience checks.
	Audience []string

	// KeyPEM is a PKCS8 Ed25519 key. When empty an ephemeral key is
	// generated and every token becomes invalid on restart.
	KeyPEM []byte

	// KeyID overrides the kid derived from the public key.
	KeyID string
}

// NewKeyManager builds the signer and verifier pair.
func NewKeyManager(opts KeyManagerOptions) (*KeyManager, error) {
	if opts.Issuer == "" {
		return nil, errors.New("jwtx: Issuer is required")
	}

	pemKey := opts.KeyPEM
	if len(pemKey) == 0 {
		var err error
		pemKey, err = cryptox.GenerateEd25519Key()
		if err != nil {
			return nil, fmt.Errorf("jwtx: failed to generate ephemeral key: %w", err)
		}
	}

	signer, err := NewSignerEdDSA(opts.KeyID, pemKey)
	if err != nil {
		return nil, err
	}

	keyset := NewKeySet()
	if err := keyset.AddSigner(signer); err != nil {
		return nil, fmt.Errorf("jwtx: failed to add signer to keyset: %w", err)
	}

	return &KeyManager{
		Signer:   signer,
		Verifier: NewVerifierEdDSA(keyset, opts.Issuer, opts.Audience),
		KeySet:   keyset,
		issuer:   opts.Issuer,
		audience: opts.Audience,
	}, nil
}

// Issue signs a workspace token for userID valid for ttl from now.
func (km *KeyManager) Issue(userID, workspace, email string, ttl time.Duration, now time.Time) (string, Claims, error) {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	claims := NewWorkspaceClaims(userID, workspace, email, ttl, km.issuer, km.audience, now)
	if err := claims.ValidateScope(); err != nil {
		return "", Claims{}, err
	}

	token, err := km.Signer.Sign(claims)
	if err != nil {
		return "", Claims{}, fmt.Errorf("jwtx: sign: %w", err)
	}
	return token, claims, nil
}

// IsReady reports whether verification keys are loaded.
func (km *KeyManager) IsReady() bool {
	return km.KeySet.IsReady()
}

// Algorithm returns the signing algorithm.
func (km *KeyManager) Algorithm() string {
	return km.Signer.Alg()
}
