package chunker

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"io"

	"github.com/klauspost/compress/zstd"

	"github.com/filecore/transfer-core/internal/constants"
	"github.com/filecore/transfer-core/internal/xerrors"
)

// Compress encodes plaintext under alg, returning the compressed bytes.
// CompressionNone is a no-op passthrough.
func Compress(alg constants.CompressionAlgorithm, plaintext []byte) ([]byte, error) {
	switch alg {
	case constants.CompressionNone:
		return plaintext, nil
	case constants.CompressionZstd:
		return compressZstd(plaintext)
	case constants.CompressionGzip:
		return compressGzip(plaintext)
	case constants.CompressionDeflate:
		return compressDeflate(plaintext)
	default:
		return nil, xerrors.New("chunker.compress", xerrors.ErrUnsupportedCompression, xerrors.ErrUnsupportedCompression)
	}
}

// Decompress reverses Compress. An unrecognized algorithm tag is a typed
// UnsupportedCompression error, never a silent passthrough (§9).
func Decompress(alg constants.CompressionAlgorithm, compressed []byte) ([]byte, error) {
	switch alg {
	case constants.CompressionNone:
		return compressed, nil
	case constants.CompressionZstd:
		return decompressZstd(compressed)
	case constants.CompressionGzip:
		return decompressGzip(compressed)
	case constants.CompressionDeflate:
		return decompressDeflate(compressed)
	default:
		return nil, xerrors.New("chunker.decompress", xerrors.ErrUnsupportedCompression, xerrors.ErrUnsupportedCompression)
	}
}

func compressZstd(plaintext []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := zstd.NewWriter(&buf, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, xerrors.New("chunker.compress.zstd", xerrors.ErrInternal, err)
	}
	if _, err := w.Write(plaintext); err != nil {
		w.Close()
		return nil, xerrors.New("chunker.compress.zstd", xerrors.ErrInternal, err)
	}
	if err := w.Close(); err != nil {
		return nil, xerrors.New("chunker.compress.zstd", xerrors.ErrInternal, err)
	}
	return buf.Bytes(), nil
}

func decompressZstd(compressed []byte) ([]byte, error) {
	r, err := zstd.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, xerrors.New("chunker.decompress.zstd", xerrors.ErrMalformedEncoding, err)
	}
	defer r.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, xerrors.New("chunker.decompress.zstd", xerrors.ErrMalformedEncoding, err)
	}
	return out, nil
}

func compressGzip(plaintext []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write(plaintext); err != nil {
		w.Close()
		return nil, xerrors.New("chunker.compress.gzip", xerrors.ErrInternal, err)
	}
	if err := w.Close(); err != nil {
		return nil, xerrors.New("chunker.compress.gzip", xerrors.ErrInternal, err)
	}
	return buf.Bytes(), nil
}

func decompressGzip(compressed []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, xerrors.New("chunker.decompress.gzip", xerrors.ErrMalformedEncoding, err)
	}
	defer r.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, xerrors.New("chunker.decompress.gzip", xerrors.ErrMalformedEncoding, err)
	}
	return out, nil
}

func compressDeflate(plaintext []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, flate.DefaultCompression)
	if err != nil {
		return nil, xerrors.New("chunker.compress.deflate", xerrors.ErrInternal, err)
	}
	if _, err := w.Write(plaintext); err != nil {
		w.Close()
		return nil, xerrors.New("chunker.compress.deflate", xerrors.ErrInternal, err)
	}
	if err := w.Close(); err != nil {
		return nil, xerrors.New("chunker.compress.deflate", xerrors.ErrInternal, err)
	}
	return buf.Bytes(), nil
}

func decompressDeflate(compressed []byte) ([]byte, error) {
	r := flate.NewReader(bytes.NewReader(compressed))
	defer r.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, xerrors.New("chunker.decompress.deflate", xerrors.ErrMalformedEncoding, err)
	}
	return out, nil
}
