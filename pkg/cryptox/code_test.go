package cryptox

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateNumericCode(t *testing.T) {
	seen := make(map[string]struct{})
	for range 200 {
		code, err := GenerateNumericCode(6)
		require.NoError(t, err)
		require.True(t, IsNumericCode(code, 6), "code %q", code)
		seen[code] = struct{}{}
	}
	// 200 draws from a million values; a handful of collisions is fine,
	// a constant generator is not.
	require.Greater(t, len(seen), 150)
}

func TestGenerateNumericCode_InvalidLength(t *testing.T) {
	_, err := GenerateNumericCode(0)
	require.Error(t, err)
}

func TestIsNumericCode(t *testing.T) {
	require.True(t, IsNumericCode("000000", 6))
	require.False(t, IsNumericCode("12345", 6))
	require.False(t, IsNumericCode("12345a", 6))
	require.False(t, IsNumericCode(" 123456", 6))
}
