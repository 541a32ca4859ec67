package main

import (
	"bytes"
	"context"
	"crypto/rand"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/filecore/transfer-core/internal/config"
	"github.com/filecore/transfer-core/pkg/download"
	"github.com/filecore/transfer-core/pkg/kem"
	"github.com/filecore/transfer-core/pkg/manifest"
	"github.com/filecore/transfer-core/pkg/metrics"
	"github.com/filecore/transfer-core/pkg/primitives"
	"github.com/filecore/transfer-core/pkg/share"
	"github.com/filecore/transfer-core/pkg/upload"
)

func runDemo(filePath, sizeStr string, verbose bool, recipientCount int) {
	fmt.Println("╔═══════════════════════════════════════════════════════════╗")
	fmt.Println("║      Transfer Core Demo                                  ║")
	fmt.Println("║      ML-KEM-768 KEM, ML-DSA-65 + Ed25519 signatures       ║")
	fmt.Println("╚═══════════════════════════════════════════════════════════╝")
	fmt.Println()

	logger := metrics.NewLogger(
		metrics.WithOutput(os.Stderr),
		metrics.WithLevel(levelFor(verbose)),
		metrics.WithFields(metrics.Fields{"app": "filecore"}),
	)
	metrics.SetLogger(logger)
	metrics.SetTracer(metrics.NoOpTracer{})

	collector := metrics.NewCollector(metrics.Labels{"service": "filecore-demo"})
	metrics.SetGlobal(collector)

	selfTest := primitives.RunSelfTest()
	if kemErr := kem.SelfTest(); !selfTest.Passed || kemErr != nil {
		fmt.Fprintf(os.Stderr, "Error: startup self-test failed (aead=%v hash=%v kem=%v)\n", selfTest.AEADPassed, selfTest.HashPassed, kemErr == nil)
		os.Exit(1)
	}
	if verbose {
		fmt.Println("Self-test: AEAD ok, hash ok, KEM round trip ok")
	}

	plaintext, err := loadOrGenerate(filePath, sizeStr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Payload: %s\n", formatSize(int64(len(plaintext))))

	if verbose {
		fmt.Println()
		fmt.Println("Security Properties:")
		fmt.Println("  • Post-Quantum KEM: ML-KEM-768 (NIST Category 3)")
		fmt.Println("  • CEK wrapping: ML-KEM-768 shared secret + XChaCha20-Poly1305")
		fmt.Println("  • Chunk encryption: XChaCha20-Poly1305")
		fmt.Println("  • Manifest signatures: ML-DSA-65 + Ed25519, both required")
		fmt.Println()
	}

	signerKeys, err := manifest.GenerateSignerKeyPairs(rand.Reader)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to generate signer keys: %v\n", err)
		os.Exit(1)
	}

	owner, err := kem.GenerateKeyPair()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to generate owner KEM keys: %v\n", err)
		os.Exit(1)
	}

	recipients := []upload.Recipient{{KeyID: "owner", PublicKey: owner.Public}}
	for i := 0; i < recipientCount; i++ {
		rk, err := kem.GenerateKeyPair()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to generate recipient KEM keys: %v\n", err)
			os.Exit(1)
		}
		recipients = append(recipients, upload.Recipient{KeyID: fmt.Sprintf("recipient-%d", i+1), PublicKey: rk.Public})
	}
	fmt.Printf("Recipients: %d (owner + %d share grant%s)\n", len(recipients), recipientCount, plural(recipientCount))

	store := newMemStore()
	server := newMemServer(store)

	progress := &consoleProgress{verbose: verbose}
	uploadEngine := &upload.Engine{
		Server:     server,
		Store:      store,
		SignerKeys: signerKeys,
		CekWrapper: share.NewKEMWrapper(),
		Progress:   progress,
		Observer:   metrics.NewTransferObserver(metrics.TransferObserverConfig{Direction: "upload"}),
	}

	fmt.Println()
	fmt.Println("Uploading...")
	start := time.Now()
	result, err := uploadEngine.Run(context.Background(), upload.Request{
		Plaintext:  plaintext,
		MimeType:   "application/octet-stream",
		Recipients: recipients,
		Filename:   filenameFor(filePath),
		Config:     config.Default(),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: upload failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("✓ Uploaded as %s (%v, %d chunks)\n", result.FileID, time.Since(start), len(result.Manifest.Chunks))

	// Recover the CEK the owner's wrapping record carries, the way a real
	// client would after fetching the download bundle.
	bundle, err := server.GetDownloadBundle(context.Background(), result.FileID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to fetch download bundle: %v\n", err)
		os.Exit(1)
	}
	cek, err := share.NewKEMWrapper().UnwrapAs(bundle.Wrapping, owner.Private)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to unwrap CEK: %v\n", err)
		os.Exit(1)
	}

	downloadEngine := &download.Engine{
		Server:   server,
		Store:    store,
		Progress: progress,
		Observer: metrics.NewTransferObserver(metrics.TransferObserverConfig{FileID: result.FileID, Direction: "download"}),
	}

	fmt.Println()
	fmt.Println("Downloading...")
	start = time.Now()
	out, err := downloadEngine.Run(context.Background(), download.Request{
		FileID:        result.FileID,
		CEK:           cek,
		Config:        config.Default(),
		Progress:      progress,
		TrustedSigner: manifest.TrustedSignerFromKeys(signerKeys),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: download failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("✓ Downloaded %s as %q (%v)\n", formatSize(int64(len(out.Plaintext))), out.Filename, time.Since(start))

	if !bytes.Equal(plaintext, out.Plaintext) {
		fmt.Fprintln(os.Stderr, "Error: round-trip mismatch: downloaded plaintext does not match original")
		os.Exit(1)
	}
	fmt.Println()
	fmt.Println("✓ Round-trip verified: downloaded plaintext matches the original byte-for-byte")

	snap := collector.Snapshot()
	fmt.Println()
	fmt.Println("Session Statistics:")
	fmt.Printf("  Chunks uploaded: %d\n", snap.ChunksUploaded)
	fmt.Printf("  Chunks downloaded: %d\n", snap.ChunksDownloaded)
	fmt.Printf("  Bytes uploaded: %s\n", formatSize(int64(snap.BytesUploaded)))
	fmt.Printf("  Bytes downloaded: %s\n", formatSize(int64(snap.BytesDownloaded)))
	fmt.Printf("  Retries: %d\n", snap.ChunkRetries)
}

type consoleProgress struct {
	verbose bool
}

func (p *consoleProgress) OnProgress(bytesDone, bytesTotal int64) {
	if !p.verbose {
		return
	}
	fmt.Printf("  progress: %s / %s\r", formatSize(bytesDone), formatSize(bytesTotal))
}

func (p *consoleProgress) OnComplete() {}

func (p *consoleProgress) OnFailed(err error) {
	fmt.Fprintf(os.Stderr, "  transfer failed: %v\n", err)
}

// filenameFor returns the name to carry (encrypted) in the manifest: the
// base name of filePath, or a placeholder for generated demo payloads.
func filenameFor(filePath string) string {
	if filePath == "" {
		return "demo-payload.bin"
	}
	return filepath.Base(filePath)
}

func loadOrGenerate(filePath, sizeStr string) ([]byte, error) {
	if filePath != "" {
		return os.ReadFile(filePath)
	}
	n := parseSize(sizeStr)
	if n <= 0 {
		n = 1024 * 1024
	}
	data := make([]byte, n)
	if _, err := rand.Read(data); err != nil {
		return nil, err
	}
	return data, nil
}

func levelFor(verbose bool) metrics.Level {
	if verbose {
		return metrics.LevelDebug
	}
	return metrics.LevelWarn
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}

func parseSize(s string) int64 {
	var value int64
	var unit string
	_, _ = fmt.Sscanf(s, "%d%s", &value, &unit)

	switch strings.ToUpper(unit) {
	case "KB", "K":
		return value * 1024
	case "MB", "M":
		return value * 1024 * 1024
	case "GB", "G":
		return value * 1024 * 1024 * 1024
	default:
		return value
	}
}

func formatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	units := []string{"KB", "MB", "GB", "TB"}
	return fmt.Sprintf("%.2f %s", float64(bytes)/float64(div), units[exp])
}
