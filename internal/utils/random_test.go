package utils

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateCode(t *testing.T) {
	code, err := GenerateCode(6, "0")
	require.NoError(t, err)
	require.Len(t, code, 6)
	for _, c := range code {
		require.True(t, c >= '1' && c <= '9', "unexpected rune %q in %q", c, code)
	}
}

func TestGenerateCodeWithoutExclusion(t *testing.T) {
	code, err := GenerateCode(8, "")
	require.NoError(t, err)
	require.Len(t, code, 8)
	for _, c := range code {
		require.True(t, c >= '0' && c <= '9')
	}
}

func TestGenerateCodeInvalidLength(t *testing.T) {
	_, err := GenerateCode(0, "0")
	require.Error(t, err)

	_, err = GenerateCode(-3, "")
	require.Error(t, err)
}

func TestGenerateToken(t *testing.T) {
	tok, err := GenerateToken(20)
	require.NoError(t, err)
	require.Len(t, tok, 40) // hex: два символа на байт

	other, err := GenerateToken(20)
	require.NoError(t, err)
	require.NotEqual(t, tok, other)
}

func TestGenerateTokenDefaultsTo32Bytes(t *testing.T) {
	tok, err := GenerateToken(0)
	require.NoError(t, err)
	require.Len(t, tok, 64)
}
