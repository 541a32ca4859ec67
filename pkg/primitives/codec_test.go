package primitives_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/filecore/transfer-core/pkg/primitives"
)

func TestHexRoundTripAcrossChunkBoundary(t *testing.T) {
	data := make([]byte, 600*1024)
	require.NoError(t, primitives.SecureRandom(data))

	encoded := primitives.HexEncode(data)
	decoded, err := primitives.HexDecode(encoded)
	require.NoError(t, err)
	require.Equal(t, data, decoded)
}

func TestHexDecodeRejectsInvalidInput(t *testing.T) {
	_, err := primitives.HexDecode("not-hex!!")
	require.Error(t, err)
}

func TestBase64RoundTripAcrossChunkBoundary(t *testing.T) {
	data := make([]byte, 600*1024+7)
	require.NoError(t, primitives.SecureRandom(data))

	encoded := primitives.Base64Encode(data)
	decoded, err := primitives.Base64Decode(encoded)
	require.NoError(t, err)
	require.Equal(t, data, decoded)
}
