package cryptox

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashSecret(t *testing.T) {
	hash, err := HashSecret("operator-token")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(hash, "$argon2id$v=19$"))
	require.Len(t, strings.Split(hash, "$"), 6)

	other, err := HashSecret("operator-token")
	require.NoError(t, err)
	require.NotEqual(t, hash, other, "salts should differ")

	require.NoError(t, VerifySecret("operator-token", hash))
	require.NoError(t, VerifySecret("operator-token", other))
}

func TestVerifySecret_Mismatch(t *testing.T) {
	hash, err := HashSecret("correct")
	require.NoError(t, err)

	for _, wrong := range []string{"", "Correct", "correct ", strings.Repeat("x", 1000)} {
		require.ErrorIs(t, VerifySecret(wrong, hash), ErrSecretMismatch)
	}
}

func TestVerifySecret_InvalidFormat(t *testing.T) {
	tests := []struct {
		name string
		hash string
	}{
		{"empty hash", ""},
		{"wrong algorithm", "$bcrypt$v=19$m=19456,t=2,p=1$c2FsdA$aGFzaA"},
		{"missing parts", "$argon2id$v=19$m=19456"},
		{"malformed parameters", "$argon2id$v=19$invalid$c2FsdA$aGFzaA"},
		{"invalid base64 salt", "$argon2id$v=19$m=19456,t=2,p=1$!!!$aGFzaA"},
		{"wrong version", "$argon2id$v=18$m=19456,t=2,p=1$c2FsdA$aGFzaA"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := VerifySecret("secret", tt.hash)
			require.Error(t, err)
			require.NotErrorIs(t, err, ErrSecretMismatch)
		})
	}
}
