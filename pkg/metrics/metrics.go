// Package metrics provides observability primitives for the transfer
// core.
//
// The package includes:
//   - A Collector of atomic counters and gauges, and a Histogram type
//   - Prometheus-compatible metrics export
//   - OpenTelemetry tracing support
//   - Structured logging with levels
//   - Health check functionality
package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Collector aggregates metrics from the upload and download engines.
type Collector struct {
	// Transfer lifecycle
	uploadsActive   atomic.Uint64
	uploadsTotal    atomic.Uint64
	uploadsFailed   atomic.Uint64
	downloadsActive atomic.Uint64
	downloadsTotal  atomic.Uint64
	downloadsFailed atomic.Uint64

	// Throughput
	bytesUploaded    atomic.Uint64
	bytesDownloaded  atomic.Uint64
	chunksUploaded   atomic.Uint64
	chunksDownloaded atomic.Uint64

	// Retry and resilience
	chunkRetries         atomic.Uint64
	chunkPutsRejected    atomic.Uint64
	objectStoreThrottled atomic.Uint64

	// Integrity and crypto failures
	integrityFailures   atomic.Uint64
	signatureFailures   atomic.Uint64
	kemFailures         atomic.Uint64
	aeadFailures        atomic.Uint64
	sizeReconciliations atomic.Uint64

	// Compression
	bytesSavedByCompression atomic.Uint64

	// Share lifecycle
	sharesCreated  atomic.Uint64
	sharesAccepted atomic.Uint64
	sharesDeclined atomic.Uint64

	// Performance histograms
	chunkEncryptLatency *Histogram
	chunkDecryptLatency *Histogram
	chunkFetchLatency   *Histogram
	chunkPutLatency     *Histogram

	// Creation time for uptime tracking
	createdAt time.Time

	// Labels for this collector instance
	labels Labels
}

// Labels represents key-value pairs for metric labeling.
type Labels map[string]string

// NewCollector creates a new metrics collector.
func NewCollector(labels Labels) *Collector {
	if labels == nil {
		labels = make(Labels)
	}

	return &Collector{
		chunkEncryptLatency: NewHistogram(ChunkCryptoLatencyBuckets),
		chunkDecryptLatency: NewHistogram(ChunkCryptoLatencyBuckets),
		chunkFetchLatency:   NewHistogram(ChunkTransportLatencyBuckets),
		chunkPutLatency:     NewHistogram(ChunkTransportLatencyBuckets),
		createdAt:           time.Now(),
		labels:              labels,
	}
}

// Default bucket configurations for histograms.
var (
	// ChunkCryptoLatencyBuckets bounds per-chunk encrypt/decrypt duration,
	// in microseconds.
	ChunkCryptoLatencyBuckets = []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 5000}

	// ChunkTransportLatencyBuckets bounds per-chunk PUT/GET duration, in
	// milliseconds.
	ChunkTransportLatencyBuckets = []float64{10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000}
)

// --- Transfer Lifecycle ---

// UploadStarted increments the active and total upload counters.
func (c *Collector) UploadStarted() {
	c.uploadsActive.Add(1)
	c.uploadsTotal.Add(1)
}

// UploadEnded decrements the active upload counter.
func (c *Collector) UploadEnded() {
	decrementClamped(&c.uploadsActive)
}

// UploadFailed records a failed upload.
func (c *Collector) UploadFailed() {
	c.uploadsFailed.Add(1)
}

// DownloadStarted increments the active and total download counters.
func (c *Collector) DownloadStarted() {
	c.downloadsActive.Add(1)
	c.downloadsTotal.Add(1)
}

// DownloadEnded decrements the active download counter.
func (c *Collector) DownloadEnded() {
	decrementClamped(&c.downloadsActive)
}

// DownloadFailed records a failed download.
func (c *Collector) DownloadFailed() {
	c.downloadsFailed.Add(1)
}

func decrementClamped(v *atomic.Uint64) {
	for {
		current := v.Load()
		if current == 0 {
			return
		}
		if v.CompareAndSwap(current, current-1) {
			return
		}
	}
}

// --- Throughput ---

// RecordBytesUploaded adds to the bytes uploaded counter.
func (c *Collector) RecordBytesUploaded(n uint64) {
	c.bytesUploaded.Add(n)
}

// RecordBytesDownloaded adds to the bytes downloaded counter.
func (c *Collector) RecordBytesDownloaded(n uint64) {
	c.bytesDownloaded.Add(n)
}

// RecordChunkUploaded increments the chunks uploaded counter.
func (c *Collector) RecordChunkUploaded() {
	c.chunksUploaded.Add(1)
}

// RecordChunkDownloaded increments the chunks downloaded counter.
func (c *Collector) RecordChunkDownloaded() {
	c.chunksDownloaded.Add(1)
}

// RecordCompressionSavings adds the bytes saved by compressing a chunk,
// i.e. originalSize minus compressedSize.
func (c *Collector) RecordCompressionSavings(n uint64) {
	c.bytesSavedByCompression.Add(n)
}

// --- Resilience ---

// RecordChunkRetry increments the chunk PUT/GET retry counter.
func (c *Collector) RecordChunkRetry() {
	c.chunkRetries.Add(1)
}

// RecordChunkPutRejected increments the fatal, non-retryable PUT
// rejection counter.
func (c *Collector) RecordChunkPutRejected() {
	c.chunkPutsRejected.Add(1)
}

// RecordSizeReconciliation increments the counter for a chunk whose
// received length differed from its manifest-recorded size but was
// still accepted under the slack rules.
func (c *Collector) RecordSizeReconciliation() {
	c.sizeReconciliations.Add(1)
}

// RecordObjectStoreThrottled increments the counter for a request delayed
// by the client-side object store rate limiter.
func (c *Collector) RecordObjectStoreThrottled() {
	c.objectStoreThrottled.Add(1)
}

// --- Integrity and Crypto Failures ---

// RecordIntegrityFailure increments the whole-file or per-chunk content
// hash mismatch counter.
func (c *Collector) RecordIntegrityFailure() {
	c.integrityFailures.Add(1)
}

// RecordSignatureFailure increments the manifest signature verification
// failure counter.
func (c *Collector) RecordSignatureFailure() {
	c.signatureFailures.Add(1)
}

// RecordKemFailure increments the KEM decapsulation failure counter.
func (c *Collector) RecordKemFailure() {
	c.kemFailures.Add(1)
}

// RecordAeadFailure increments the AEAD authentication failure counter.
func (c *Collector) RecordAeadFailure() {
	c.aeadFailures.Add(1)
}

// --- Share Lifecycle ---

// RecordShareCreated increments the shares created counter.
func (c *Collector) RecordShareCreated() {
	c.sharesCreated.Add(1)
}

// RecordShareAccepted increments the shares accepted counter.
func (c *Collector) RecordShareAccepted() {
	c.sharesAccepted.Add(1)
}

// RecordShareDeclined increments the shares declined counter.
func (c *Collector) RecordShareDeclined() {
	c.sharesDeclined.Add(1)
}

// --- Performance ---

// RecordChunkEncryptLatency records one chunk's encrypt (compress and
// seal) duration.
func (c *Collector) RecordChunkEncryptLatency(d time.Duration) {
	c.chunkEncryptLatency.Observe(float64(d.Microseconds()))
}

// RecordChunkDecryptLatency records one chunk's decrypt (open and
// decompress) duration.
func (c *Collector) RecordChunkDecryptLatency(d time.Duration) {
	c.chunkDecryptLatency.Observe(float64(d.Microseconds()))
}

// RecordChunkFetchLatency records one chunk's object-store GET duration.
func (c *Collector) RecordChunkFetchLatency(d time.Duration) {
	c.chunkFetchLatency.Observe(float64(d.Milliseconds()))
}

// RecordChunkPutLatency records one chunk's object-store PUT duration.
func (c *Collector) RecordChunkPutLatency(d time.Duration) {
	c.chunkPutLatency.Observe(float64(d.Milliseconds()))
}

// --- Snapshot ---

// Snapshot is a point-in-time copy of all metrics.
type Snapshot struct {
	// Timestamp of the snapshot
	Timestamp time.Time

	// Uptime since collector creation
	Uptime time.Duration

	// Transfer lifecycle
	UploadsActive   uint64
	UploadsTotal    uint64
	UploadsFailed   uint64
	DownloadsActive uint64
	DownloadsTotal  uint64
	DownloadsFailed uint64

	// Throughput
	BytesUploaded    uint64
	BytesDownloaded  uint64
	ChunksUploaded   uint64
	ChunksDownloaded uint64

	// Resilience
	ChunkRetries         uint64
	ChunkPutsRejected    uint64
	ObjectStoreThrottled uint64

	// Integrity and crypto failures
	IntegrityFailures   uint64
	SignatureFailures   uint64
	KemFailures         uint64
	AeadFailures        uint64
	SizeReconciliations uint64

	// Compression
	BytesSavedByCompression uint64

	// Share lifecycle
	SharesCreated  uint64
	SharesAccepted uint64
	SharesDeclined uint64

	// Histogram summaries
	ChunkEncryptLatency HistogramSummary
	ChunkDecryptLatency HistogramSummary
	ChunkFetchLatency   HistogramSummary
	ChunkPutLatency     HistogramSummary

	// Labels
	Labels Labels
}

// Snapshot returns a point-in-time snapshot of all metrics.
func (c *Collector) Snapshot() Snapshot {
	return Snapshot{
		Timestamp:               time.Now(),
		Uptime:                  time.Since(c.createdAt),
		UploadsActive:           c.uploadsActive.Load(),
		UploadsTotal:            c.uploadsTotal.Load(),
		UploadsFailed:           c.uploadsFailed.Load(),
		DownloadsActive:         c.downloadsActive.Load(),
		DownloadsTotal:          c.downloadsTotal.Load(),
		DownloadsFailed:         c.downloadsFailed.Load(),
		BytesUploaded:           c.bytesUploaded.Load(),
		BytesDownloaded:         c.bytesDownloaded.Load(),
		ChunksUploaded:          c.chunksUploaded.Load(),
		ChunksDownloaded:        c.chunksDownloaded.Load(),
		ChunkRetries:            c.chunkRetries.Load(),
		ChunkPutsRejected:       c.chunkPutsRejected.Load(),
		ObjectStoreThrottled:    c.objectStoreThrottled.Load(),
		IntegrityFailures:       c.integrityFailures.Load(),
		SignatureFailures:       c.signatureFailures.Load(),
		KemFailures:             c.kemFailures.Load(),
		AeadFailures:            c.aeadFailures.Load(),
		SizeReconciliations:     c.sizeReconciliations.Load(),
		BytesSavedByCompression: c.bytesSavedByCompression.Load(),
		SharesCreated:           c.sharesCreated.Load(),
		SharesAccepted:          c.sharesAccepted.Load(),
		SharesDeclined:          c.sharesDeclined.Load(),
		ChunkEncryptLatency:     c.chunkEncryptLatency.Summary(),
		ChunkDecryptLatency:     c.chunkDecryptLatency.Summary(),
		ChunkFetchLatency:       c.chunkFetchLatency.Summary(),
		ChunkPutLatency:         c.chunkPutLatency.Summary(),
		Labels:                  c.labels,
	}
}

// Reset clears all metrics (useful for testing).
func (c *Collector) Reset() {
	c.uploadsActive.Store(0)
	c.uploadsTotal.Store(0)
	c.uploadsFailed.Store(0)
	c.downloadsActive.Store(0)
	c.downloadsTotal.Store(0)
	c.downloadsFailed.Store(0)
	c.bytesUploaded.Store(0)
	c.bytesDownloaded.Store(0)
	c.chunksUploaded.Store(0)
	c.chunksDownloaded.Store(0)
	c.chunkRetries.Store(0)
	c.chunkPutsRejected.Store(0)
	c.objectStoreThrottled.Store(0)
	c.integrityFailures.Store(0)
	c.signatureFailures.Store(0)
	c.kemFailures.Store(0)
	c.aeadFailures.Store(0)
	c.sizeReconciliations.Store(0)
	c.bytesSavedByCompression.Store(0)
	c.sharesCreated.Store(0)
	c.sharesAccepted.Store(0)
	c.sharesDeclined.Store(0)
	c.chunkEncryptLatency.Reset()
	c.chunkDecryptLatency.Reset()
	c.chunkFetchLatency.Reset()
	c.chunkPutLatency.Reset()
	c.createdAt = time.Now()
}

// --- Global Collector ---

var (
	globalCollector     *Collector
	globalCollectorOnce sync.Once
)

// Global returns the global metrics collector.
// Creates one with default settings if not already initialized.
func Global() *Collector {
	globalCollectorOnce.Do(func() {
		globalCollector = NewCollector(Labels{"instance": "default"})
	})
	return globalCollector
}

// SetGlobal sets the global metrics collector.
// Should be called during initialization before any metrics are recorded.
func SetGlobal(c *Collector) {
	globalCollector = c
}
