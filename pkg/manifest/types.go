// Package manifest holds the transfer core's data model (files, chunks,
// wrapping records, shares, and manifests) and the canonical serialization
// and dual-signature logic over them (C5).
package manifest

import (
	"time"

	"github.com/filecore/transfer-core/internal/constants"
)

// CompressionDescriptor records how a chunk's plaintext was compressed, if
// at all, so the download engine can select the matching decompressor.
type CompressionDescriptor struct {
	Algorithm      constants.CompressionAlgorithm
	OriginalSize   int64
	CompressedSize int64
}

// Chunk describes one ordered slice of a file, zero-indexed.
type Chunk struct {
	Index          int
	PlaintextSize  int64
	CiphertextSize int64
	Nonce          []byte
	ContentHash    []byte
	Compression    *CompressionDescriptor
	ObjectKey      string
	GetURL         string
	PutURL         string
}

// WrappingRecord is the triple that lets one holder of a KEM secret key
// recover a CEK: the KEM ciphertext, the AEAD-wrapped CEK, and the nonce
// used to wrap it. The shared secret from encapsulation is never stored.
type WrappingRecord struct {
	RecipientKeyID string
	KEMCiphertext  []byte
	WrappedCEK     []byte
	Nonce          []byte
}

// ShareStatus enumerates the monotonic lifecycle of a Share.
type ShareStatus int

const (
	ShareStatusPending ShareStatus = iota
	ShareStatusAccepted
	ShareStatusDeclined
	ShareStatusRemoved
)

func (s ShareStatus) String() string {
	switch s {
	case ShareStatusPending:
		return "pending"
	case ShareStatusAccepted:
		return "accepted"
	case ShareStatusDeclined:
		return "declined"
	case ShareStatusRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// ItemType enumerates what kind of item a Share refers to.
type ItemType int

const (
	ItemTypeFile ItemType = iota
	ItemTypeFolder
	ItemTypeDocument
)

// Share relates an existing item to a recipient, carrying that recipient's
// CEK wrapping record.
type Share struct {
	ShareID     string
	ItemID      string
	ItemType    ItemType
	OwnerID     string
	RecipientID string
	Wrapping    WrappingRecord
	Status      ShareStatus
	CreatedAt   time.Time
}

// File is the client's view of an uploaded item's metadata.
type File struct {
	FileID             string
	CiphertextFilename []byte
	FilenameSalt       []byte
	MimeType           string
	Size               int64
	WholeFileHash      string
	WholeFileHashAlgo  constants.HashAlgorithm
	ChunkCount         int
}

// Manifest is the canonical, signed record of a file's metadata and chunk
// vector. Its chunk list must be strictly ordered by index with no gaps.
type Manifest struct {
	Version            uint16
	FileID             string
	CiphertextFilename []byte
	FilenameSalt       []byte
	MimeType           string
	TotalSize          int64
	WholeFileHash      string
	WholeFileHashAlgo  constants.HashAlgorithm
	Chunks             []Chunk
	CreatedAt          time.Time
	AlgorithmVersion   string

	Signatures []Signature
}

// Signature is one of the manifest's two required signatures.
type Signature struct {
	Algorithm constants.SignatureAlgorithm
	PublicKey []byte
	Value     []byte
}
