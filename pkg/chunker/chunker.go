// Package chunker splits plaintext into fixed-size chunks and applies a
// compression policy per chunk (C4).
package chunker

import (
	"github.com/filecore/transfer-core/internal/config"
)

// Chunk is a single fixed-size (except possibly the last) slice of
// plaintext produced by Split.
type Chunk struct {
	Index     int
	Plaintext []byte
}

// ChunkCount returns how many chunks Split would produce for a plaintext
// of totalSize bytes at chunkSize, without allocating anything. Callers
// that need to reject an oversized input before touching it (§4.6's
// per-CEK chunk-count ceiling) compute this first.
func ChunkCount(totalSize int64, chunkSize int) int64 {
	if chunkSize <= 0 {
		chunkSize = config.Default().ChunkSize
	}
	if totalSize == 0 {
		return 1
	}
	return (totalSize + int64(chunkSize) - 1) / int64(chunkSize)
}

// Split divides plaintext into chunks of at most chunkSize bytes. The
// final chunk may be shorter and is never padded. An empty plaintext still
// produces exactly one zero-length chunk, per §4.6's empty-file edge case.
func Split(plaintext []byte, chunkSize int) []Chunk {
	if chunkSize <= 0 {
		chunkSize = config.Default().ChunkSize
	}

	if len(plaintext) == 0 {
		return []Chunk{{Index: 0, Plaintext: plaintext[:0]}}
	}

	count := int(ChunkCount(int64(len(plaintext)), chunkSize))
	chunks := make([]Chunk, 0, count)
	for i := 0; i < count; i++ {
		start := i * chunkSize
		end := start + chunkSize
		if end > len(plaintext) {
			end = len(plaintext)
		}
		chunks = append(chunks, Chunk{Index: i, Plaintext: plaintext[start:end]})
	}
	return chunks
}
