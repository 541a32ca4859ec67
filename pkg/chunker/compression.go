package chunker

import (
	"github.com/filecore/transfer-core/internal/config"
	"github.com/filecore/transfer-core/internal/constants"
)

// alreadyCompressedMIMEPrefixes lists MIME types whose bytes are already
// compressed (or incompressible media), for which re-compressing wastes
// CPU for no size benefit.
var alreadyCompressedMIMEPrefixes = []string{
	"image/",
	"video/",
	"audio/",
	"application/zip",
	"application/gzip",
	"application/x-7z-compressed",
	"application/x-rar-compressed",
	"application/x-zstd",
}

// minCompressibleChunkSize is the smallest chunk worth the fixed overhead
// of a compression codec; below this, compression is skipped regardless
// of policy.
const minCompressibleChunkSize = 256

// ShouldCompress decides, per §4.4, whether a chunk should be compressed
// given the upload's compression policy, the file's MIME type, and the
// chunk's plaintext length.
func ShouldCompress(policy config.CompressionPolicy, mimeType string, chunkLen int) bool {
	switch policy {
	case config.CompressionNever:
		return false
	case config.CompressionAlways:
		return chunkLen >= minCompressibleChunkSize
	default: // CompressionAuto
		if chunkLen < minCompressibleChunkSize {
			return false
		}
		for _, prefix := range alreadyCompressedMIMEPrefixes {
			if hasPrefix(mimeType, prefix) {
				return false
			}
		}
		return true
	}
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[:len(prefix)] == prefix
}

// DefaultAlgorithm is the compressor chosen when a chunk is compressed
// under policy "auto" or "always".
const DefaultAlgorithm = constants.CompressionZstd
