package chunker_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/filecore/transfer-core/internal/constants"
	"github.com/filecore/transfer-core/internal/xerrors"
	"github.com/filecore/transfer-core/pkg/chunker"
)

func TestCompressDecompressRoundTrip(t *testing.T) {
	algorithms := []constants.CompressionAlgorithm{
		constants.CompressionNone,
		constants.CompressionZstd,
		constants.CompressionGzip,
		constants.CompressionDeflate,
	}

	plaintext := []byte("the quick brown fox jumps over the lazy dog, repeated. " +
		"the quick brown fox jumps over the lazy dog, repeated.")

	for _, alg := range algorithms {
		t.Run(alg.String(), func(t *testing.T) {
			compressed, err := chunker.Compress(alg, plaintext)
			require.NoError(t, err)

			decompressed, err := chunker.Decompress(alg, compressed)
			require.NoError(t, err)
			require.Equal(t, plaintext, decompressed)
		})
	}
}

func TestDecompressUnsupportedAlgorithmTag(t *testing.T) {
	_, err := chunker.Decompress(constants.CompressionAlgorithm(99), []byte("data"))
	require.Error(t, err)
	require.True(t, xerrors.Is(err, xerrors.ErrUnsupportedCompression))
}
