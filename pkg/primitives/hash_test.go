package primitives_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/filecore/transfer-core/internal/constants"
	"github.com/filecore/transfer-core/pkg/primitives"
)

func TestWholeFileHashAlgorithmSelection(t *testing.T) {
	data := []byte("manifest payload bytes")

	sha256Hex := primitives.WholeFileHash(constants.HashSHA256, data)
	require.Len(t, sha256Hex, constants.SHA256HexLen)

	sha512Hex := primitives.WholeFileHash(constants.HashSHA512, data)
	require.Len(t, sha512Hex, constants.SHA512HexLen)
}

func TestHashAlgorithmFromHexLen(t *testing.T) {
	alg, ok := primitives.HashAlgorithmFromHexLen(constants.SHA256HexLen)
	require.True(t, ok)
	require.Equal(t, constants.HashSHA256, alg)

	alg, ok = primitives.HashAlgorithmFromHexLen(constants.SHA512HexLen)
	require.True(t, ok)
	require.Equal(t, constants.HashSHA512, alg)

	_, ok = primitives.HashAlgorithmFromHexLen(40)
	require.False(t, ok)
}

func TestSumBLAKE3Deterministic(t *testing.T) {
	data := []byte("chunk content")
	a := primitives.SumBLAKE3(data)
	b := primitives.SumBLAKE3(data)
	require.Equal(t, a, b)
	require.NotEqual(t, a, primitives.SumBLAKE3([]byte("different content")))
}
