// Package transfercore provides the client-side cryptographic transfer
// engine for an end-to-end encrypted file storage service.
//
// Every file is split into chunks, each encrypted with a per-file Content
// Encryption Key (CEK) under XChaCha20-Poly1305, and PUT to an object
// store via short-lived presigned URLs the application server hands out.
// The CEK itself is wrapped per recipient with an ML-KEM-768
// encapsulation plus XChaCha20-Poly1305, so a recipient only ever needs
// their own KEM key pair to recover it. A manifest listing every chunk's size, nonce, and
// content hash is signed with ML-DSA-65 and Ed25519 before being
// committed to the server.
//
// # Quick Start
//
//	import (
//		"github.com/filecore/transfer-core/pkg/upload"
//		"github.com/filecore/transfer-core/pkg/download"
//	)
//
//	engine := upload.New(server, store, signerKeys, progressSink)
//	result, err := engine.Run(ctx, upload.Request{
//		Plaintext:  data,
//		MimeType:   "application/pdf",
//		Recipients: []upload.Recipient{{KeyID: ownerKeyID, PublicKey: ownerPub}},
//	})
//
//	dl := download.New(server, store)
//	out, err := dl.Run(ctx, download.Request{FileID: result.FileID, CEK: cek, TrustedSigner: ownerSigner})
//
// # Package Structure
//
//   - pkg/kem: ML-KEM-768 key encapsulation (C2)
//   - pkg/primitives: AEAD, HKDF, BLAKE3 hashing, secure random, zeroization (C1)
//   - pkg/chunker: plaintext chunking and optional per-chunk compression (C4)
//   - pkg/manifest: manifest construction, canonical encoding, dual-algorithm signing (C5)
//   - pkg/share: CEK re-wrapping for share grant/accept/decline (C8)
//   - pkg/transfer: ServerAPI/ObjectStore/ProgressSink port interfaces
//   - pkg/upload: the upload engine (C6)
//   - pkg/download: the download engine (C7)
//   - pkg/workerpool: the bounded CPU worker pool for encrypt/decrypt/compress/hash jobs (C9)
//   - pkg/metrics: structured logging, Prometheus metrics, health checks, tracing
//   - internal/config: tunable chunk size, concurrency, retry, and compression knobs
//   - internal/constants: algorithm parameters and defaults
//   - internal/xerrors: the sentinel error taxonomy shared across every package
//
// # Security Properties
//
//   - Post-quantum confidentiality: ML-KEM-768 (NIST Category 3)
//   - CEK wrapping: ML-KEM-768 shared secret plus XChaCha20-Poly1305 per recipient
//   - Per-chunk authenticated encryption: XChaCha20-Poly1305
//   - Manifest authenticity: ML-DSA-65 (post-quantum) and Ed25519, both required
//   - Content integrity: per-chunk BLAKE3 hashing and a whole-file SHA-256 or SHA-512 hash
//
// # Testing
//
//	go test ./...                         # unit and adapted engine tests
//	go test ./test/integration/...        # end-to-end upload/download against mock server+store
//
// For more information, see: https://github.com/filecore/transfer-core
package transfercore
