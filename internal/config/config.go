// Package config holds the enumerated configuration for the transfer core
// (§6): chunk size, concurrency limits, retry budget, progress throttling,
// and compression policy. There is no CLI or environment binding at this
// layer — callers (the browser client, the demo CLI) construct a Config
// and pass it in explicitly.
package config

import (
	"fmt"
	"runtime"

	"github.com/filecore/transfer-core/internal/constants"
)

// CompressionPolicy controls whether the chunker compresses chunks.
type CompressionPolicy uint8

const (
	// CompressionAuto lets the chunker decide per chunk (skip for
	// already-compressed MIME types or tiny chunks).
	CompressionAuto CompressionPolicy = iota
	// CompressionAlways compresses every chunk regardless of MIME type;
	// chunks below the chunker's minimum compressible size are still
	// stored uncompressed.
	CompressionAlways
	// CompressionNever disables compression entirely.
	CompressionNever
)

// String returns a human-readable name for the compression policy.
func (p CompressionPolicy) String() string {
	switch p {
	case CompressionAuto:
		return "auto"
	case CompressionAlways:
		return "always"
	case CompressionNever:
		return "never"
	default:
		return "unknown"
	}
}

// Config holds the tunable parameters of the transfer core.
type Config struct {
	// ChunkSize is the plaintext chunk size in bytes. Default 4 MiB.
	ChunkSize int

	// UploadConcurrency bounds concurrent chunk PUTs. Default 3.
	UploadConcurrency int

	// DownloadConcurrency bounds concurrent chunk GETs. Default 6.
	DownloadConcurrency int

	// WorkerPoolSize is the number of CPU workers for encrypt/decrypt/
	// compress/hash jobs. 0 selects runtime.NumCPU() clamped to [2,8].
	WorkerPoolSize int

	// RetryMax is the per-chunk PUT/GET retry budget on transient
	// transport errors. Default 3.
	RetryMax int

	// ProgressMinIntervalMs throttles progress sink emissions. Default 100.
	ProgressMinIntervalMs int

	// CompressionPolicy controls the chunker's compression behavior.
	CompressionPolicy CompressionPolicy

	// ObjectStoreRPS caps the client-side request rate against the object
	// store's presigned PUT/GET endpoints, smoothing bursts that would
	// otherwise trip the backend's own throttling. 0 means unlimited.
	ObjectStoreRPS float64

	// ObjectStoreBurst is the token bucket burst size when ObjectStoreRPS
	// is non-zero. Default 8.
	ObjectStoreBurst int
}

// Default returns a Config populated with the spec's default values.
func Default() Config {
	return Config{
		ChunkSize:             constants.DefaultChunkSize,
		UploadConcurrency:     constants.DefaultUploadConcurrency,
		DownloadConcurrency:   constants.DefaultDownloadConcurrency,
		WorkerPoolSize:        0,
		RetryMax:              constants.DefaultRetryMax,
		ProgressMinIntervalMs: constants.DefaultProgressMinIntervalMs,
		CompressionPolicy:     CompressionAuto,
		ObjectStoreRPS:        constants.DefaultObjectStoreRPS,
		ObjectStoreBurst:      constants.DefaultObjectStoreBurst,
	}
}

// applyDefaults fills in zero-valued fields with spec defaults, the way
// the pool configuration in this codebase's ancestry normalizes itself
// before validation.
func (c *Config) applyDefaults() {
	if c.ChunkSize == 0 {
		c.ChunkSize = constants.DefaultChunkSize
	}
	if c.UploadConcurrency == 0 {
		c.UploadConcurrency = constants.DefaultUploadConcurrency
	}
	if c.DownloadConcurrency == 0 {
		c.DownloadConcurrency = constants.DefaultDownloadConcurrency
	}
	if c.RetryMax == 0 {
		c.RetryMax = constants.DefaultRetryMax
	}
	if c.ProgressMinIntervalMs == 0 {
		c.ProgressMinIntervalMs = constants.DefaultProgressMinIntervalMs
	}
	if c.ObjectStoreRPS > 0 && c.ObjectStoreBurst == 0 {
		c.ObjectStoreBurst = constants.DefaultObjectStoreBurst
	}
}

// Normalize applies defaults and validates the configuration, returning
// the effective configuration to use. WorkerPoolSize is resolved to a
// concrete core count clamped to [MinWorkerPoolSize, MaxWorkerPoolSize].
func (c Config) Normalize() (Config, error) {
	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return Config{}, err
	}

	if c.WorkerPoolSize == 0 {
		c.WorkerPoolSize = clamp(runtime.NumCPU(), constants.MinWorkerPoolSize, constants.MaxWorkerPoolSize)
	}

	return c, nil
}

// Validate checks the configuration for internally inconsistent values.
func (c Config) Validate() error {
	if c.ChunkSize < 0 {
		return fmt.Errorf("config: ChunkSize cannot be negative")
	}
	if c.UploadConcurrency < 0 {
		return fmt.Errorf("config: UploadConcurrency cannot be negative")
	}
	if c.DownloadConcurrency < 0 {
		return fmt.Errorf("config: DownloadConcurrency cannot be negative")
	}
	if c.WorkerPoolSize < 0 {
		return fmt.Errorf("config: WorkerPoolSize cannot be negative")
	}
	if c.WorkerPoolSize > constants.MaxWorkerPoolSize {
		return fmt.Errorf("config: WorkerPoolSize cannot exceed %d", constants.MaxWorkerPoolSize)
	}
	if c.RetryMax < 0 {
		return fmt.Errorf("config: RetryMax cannot be negative")
	}
	if c.ProgressMinIntervalMs < 0 {
		return fmt.Errorf("config: ProgressMinIntervalMs cannot be negative")
	}
	if c.ObjectStoreRPS < 0 {
		return fmt.Errorf("config: ObjectStoreRPS cannot be negative")
	}
	if c.ObjectStoreBurst < 0 {
		return fmt.Errorf("config: ObjectStoreBurst cannot be negative")
	}
	return nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
