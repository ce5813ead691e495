package qr

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeProducesBase64PNG(t *testing.T) {
	out, err := Encode("booking-1234")
	require.NoError(t, err)

	png, err := base64.StdEncoding.DecodeString(out)
	require.NoError(t, err)
	require.Greater(t, len(png), 8)
	// PNG magic bytes.
	require.Equal(t, []byte{0x89, 'P', 'N', 'G'}, png[:4])
}

func TestEncodeDistinctPayloads(t *testing.T) {
	a, err := Encode("booking-a")
	require.NoError(t, err)
	b, err := Encode("booking-b")
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}
