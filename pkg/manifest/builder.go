package manifest

import (
	"time"

	"github.com/filecore/transfer-core/internal/constants"
)

// Build assembles a Manifest in its canonical (unsigned) form from the
// completed upload's chunk metadata. Chunks must already be in ascending
// index order; Build does not sort them.
func Build(fileID string, ciphertextFilename, filenameSalt []byte, mimeType string, totalSize int64, wholeFileHash string, hashAlgo constants.HashAlgorithm, chunks []Chunk, createdAt time.Time) (Manifest, error) {
	m := Manifest{
		Version:            constants.ManifestVersion,
		FileID:             fileID,
		CiphertextFilename: ciphertextFilename,
		FilenameSalt:       filenameSalt,
		MimeType:           mimeType,
		TotalSize:          totalSize,
		WholeFileHash:      wholeFileHash,
		WholeFileHashAlgo:  hashAlgo,
		Chunks:             chunks,
		CreatedAt:          createdAt,
		AlgorithmVersion:   constants.AlgorithmVersion,
	}
	if err := ValidateChunkOrder(m); err != nil {
		return Manifest{}, err
	}
	return m, nil
}
