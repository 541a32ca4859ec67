package main

import (
	"crypto/rand"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/filecore/transfer-core/pkg/kem"
	"github.com/filecore/transfer-core/pkg/primitives"
)

func runBench(kemIters int, throughputTest bool, sizeStr, chunkSizeStr string) {
	fmt.Println("╔═══════════════════════════════════════════════════════════╗")
	fmt.Println("║      Transfer Core Benchmark                             ║")
	fmt.Println("╚═══════════════════════════════════════════════════════════╝")
	fmt.Println()

	if kemIters == 0 && !throughputTest {
		fmt.Println("No benchmarks specified. Use --kem or --throughput")
		fmt.Println("Run 'filecore bench --help' for usage")
		os.Exit(1)
	}

	if kemIters > 0 {
		benchKEM(kemIters)
		fmt.Println()
	}

	if throughputTest {
		size := parseSize(sizeStr)
		chunkSize := int(parseSize(chunkSizeStr))
		if chunkSize <= 0 {
			chunkSize = 4 * 1024 * 1024
		}
		benchThroughput(size, chunkSize)
	}
}

func benchKEM(count int) {
	fmt.Printf("Benchmarking ML-KEM-768 encapsulation (%d iterations)\n", count)
	fmt.Println(strings.Repeat("─", 60))

	kp, err := kem.GenerateKeyPair()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to generate KEM key pair: %v\n", err)
		os.Exit(1)
	}

	encapDurations := make([]time.Duration, count)
	decapDurations := make([]time.Duration, count)

	start := time.Now()
	for i := 0; i < count; i++ {
		encapStart := time.Now()
		ct, ss, err := kem.Encapsulate(kp.Public)
		encapDurations[i] = time.Since(encapStart)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: encapsulate failed: %v\n", err)
			os.Exit(1)
		}

		decapStart := time.Now()
		ss2, err := kem.Decapsulate(kp.Private, ct)
		decapDurations[i] = time.Since(decapStart)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: decapsulate failed: %v\n", err)
			os.Exit(1)
		}
		if !primitives.ConstantTimeEqual(ss, ss2) {
			fmt.Fprintln(os.Stderr, "Error: shared secret mismatch")
			os.Exit(1)
		}

		step := count / 10
		if step == 0 {
			step = 1
		}
		if (i+1)%step == 0 || i == count-1 {
			fmt.Printf("Progress: %d/%d (%.0f%%)\r", i+1, count, float64(i+1)/float64(count)*100)
		}
	}
	fmt.Println()
	totalTime := time.Since(start)

	printKEMResults(count, totalTime, encapDurations, decapDurations)
}

func printKEMResults(count int, totalTime time.Duration, encap, decap []time.Duration) {
	var encapSum, decapSum time.Duration
	for i := range encap {
		encapSum += encap[i]
		decapSum += decap[i]
	}
	encapAvg := encapSum / time.Duration(count)
	decapAvg := decapSum / time.Duration(count)

	fmt.Println("\nResults:")
	fmt.Printf("  Iterations: %d\n", count)
	fmt.Printf("  Total time: %v\n", totalTime)
	fmt.Println()
	fmt.Println("KEM Performance:")
	fmt.Printf("  Encapsulate avg: %v\n", encapAvg)
	fmt.Printf("  Decapsulate avg: %v\n", decapAvg)
	fmt.Printf("  Throughput: %.2f cycles/sec\n", float64(count)/totalTime.Seconds())
}

func benchThroughput(totalBytes int64, chunkSize int) {
	fmt.Printf("Benchmarking Chunk Encrypt/Decrypt Throughput\n")
	fmt.Println(strings.Repeat("─", 60))
	fmt.Printf("Target: %s in %s chunks\n\n", formatSize(totalBytes), formatSize(int64(chunkSize)))

	cek := make([]byte, 32)
	if _, err := rand.Read(cek); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	aead, err := primitives.NewAEAD(cek)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to build AEAD: %v\n", err)
		os.Exit(1)
	}

	noncePrefix := make([]byte, primitives.NoncePrefixSize)
	if _, err := rand.Read(noncePrefix); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	chunk := make([]byte, chunkSize)
	if _, err := rand.Read(chunk); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	chunkCount := int(totalBytes / int64(chunkSize))
	if chunkCount == 0 {
		chunkCount = 1
	}

	var encrypted int64
	encryptStart := time.Now()
	ciphertexts := make([][]byte, chunkCount)
	for i := 0; i < chunkCount; i++ {
		nonce := primitives.ChunkNonce(noncePrefix, uint32(i))
		ct, err := aead.Seal(nonce, chunk, nil)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: seal failed: %v\n", err)
			os.Exit(1)
		}
		ciphertexts[i] = ct
		encrypted += int64(len(chunk))
	}
	encryptDuration := time.Since(encryptStart)

	var decrypted int64
	decryptStart := time.Now()
	for i := 0; i < chunkCount; i++ {
		nonce := primitives.ChunkNonce(noncePrefix, uint32(i))
		pt, err := aead.Open(nonce, ciphertexts[i], nil)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: open failed: %v\n", err)
			os.Exit(1)
		}
		decrypted += int64(len(pt))
	}
	decryptDuration := time.Since(decryptStart)

	printThroughputResults(encrypted, decrypted, encryptDuration, decryptDuration)
}

func printThroughputResults(encrypted, decrypted int64, encryptDuration, decryptDuration time.Duration) {
	fmt.Println()
	fmt.Println("Results:")
	fmt.Printf("  Data encrypted: %s\n", formatSize(encrypted))
	fmt.Printf("  Data decrypted: %s\n", formatSize(decrypted))
	fmt.Printf("  Encrypt duration: %v\n", encryptDuration)
	fmt.Printf("  Decrypt duration: %v\n", decryptDuration)
	fmt.Println()

	if encryptDuration > 0 {
		mbps := float64(encrypted) / encryptDuration.Seconds() / 1024 / 1024
		fmt.Printf("Encrypt Throughput: %.2f MB/s\n", mbps)
	}
	if decryptDuration > 0 {
		mbps := float64(decrypted) / decryptDuration.Seconds() / 1024 / 1024
		fmt.Printf("Decrypt Throughput: %.2f MB/s\n", mbps)
	}
}
