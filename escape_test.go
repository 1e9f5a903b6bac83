package loxvm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeEscapesBasic(t *testing.T) {
	got, err := decodeEscapes(`hello\nworld\t\"quoted\"\\`)
	require.NoError(t, err)
	require.Equal(t, "hello\nworld\t\"quoted\"\\", got)
}

func TestDecodeEscapesUnicode(t *testing.T) {
	got, err := decodeEscapes("caf\\u00e9;")
	require.NoError(t, err)
	require.Equal(t, "caf"+string(rune(0x00e9)), got)
}

func TestDecodeEscapesUnicodeRequiresTerminator(t *testing.T) {
	_, err := decodeEscapes("\\u00e9")
	require.Error(t, err)
}

func TestDecodeEscapesRejectsSurrogates(t *testing.T) {
	_, err := decodeEscapes("\\ud800;")
	require.Error(t, err)
}

func TestDecodeEscapesUnknownEscape(t *testing.T) {
	_, err := decodeEscapes("\\q")
	require.Error(t, err)
}

func TestDecodeEscapesPassesThroughOtherBytes(t *testing.T) {
	got, err := decodeEscapes("plain text 123")
	require.NoError(t, err)
	require.Equal(t, "plain text 123", got)
}
