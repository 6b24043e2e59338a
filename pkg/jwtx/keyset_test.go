package jwtx_test

import (
	"testing"

	"github.com/qwanyx/qwanyx/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func TestKeySet_ResetFromJWKS(t *testing.T) {
	source := jwtx.NewKeySet()
	require.NoError(t, source.AddSigner(newSigner(t, "a")))
	require.NoError(t, source.AddSigner(newSigner(t, "b")))

	mirror := jwtx.NewKeySet()
	require.False(t, mirror.IsReady())
	require.NoError(t, mirror.ResetFromJWKS(source.PublicJWKS()))
	require.True(t, mirror.IsReady())

	_, err := mirror.Get("a")
	require.NoError(t, err)
	_, err = mirror.Get("missing")
	require.ErrorIs(t, err, jwtx.ErrNoKey)
}

func TestKeySet_AddJWKReplacesSameKID(t *testing.T) {
	ks := jwtx.NewKeySet()
	require.NoError(t, ks.AddSigner(newSigner(t, "same")))
	require.NoError(t, ks.AddSigner(newSigner(t, "same")))
	require.Len(t, ks.PublicJWKS().Keys, 1)
}

func TestKeySet_RejectsUnsupportedKeys(t *testing.T) {
	ks := jwtx.NewKeySet()
	require.Error(t, ks.AddJWK(jwtx.JWK{Kid: "r", Kty: "RSA"}))
	require.Error(t, ks.AddJWK(jwtx.JWK{Kid: "x", Kty: "OKP", Crv: "Ed25519", X: "AAAA"}))
}
