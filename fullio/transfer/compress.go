package transfer

import (
	"bytes"
	"errors"
	"io"
	"sync"

	"github.com/pierrec/lz4/v4"
)

var (
	ErrCompressionFailed   = errors.New("transfer: compression failed")
	ErrDecompressionFailed = errors.New("transfer: decompression failed")
)

// CompressionLevel controls the speed/ratio tradeoff.
type CompressionLevel int

const (
	CompressionOff     CompressionLevel = iota // send chunks as they are
	CompressionFast                            // fastest, lower ratio
	CompressionDefault                         // balanced
	CompressionBest                            // best ratio, slower
)

func (l CompressionLevel) lz4Level() lz4.CompressionLevel {
	switch l {
	case CompressionFast:
		return lz4.Fast
	case CompressionBest:
		return lz4.Level9
	default:
		return lz4.Level4
	}
}

var lz4Writers = sync.Pool{
	New: func() any { return lz4.NewWriter(nil) },
}

var lz4Readers = sync.Pool{
	New: func() any { return lz4.NewReader(nil) },
}

// Compress returns data as an LZ4 frame.
func Compress(data []byte, level CompressionLevel) ([]byte, error) {
	var buf bytes.Buffer
	zw := lz4Writers.Get().(*lz4.Writer)
	defer lz4Writers.Put(zw)

	zw.Reset(&buf)
	if err := zw.Apply(lz4.CompressionLevelOption(level.lz4Level())); err != nil {
		return nil, ErrCompressionFailed
	}
	if _, err := zw.Write(data); err != nil {
		return nil, ErrCompressionFailed
	}
	if err := zw.Close(); err != nil {
		return nil, ErrCompressionFailed
	}
	return buf.Bytes(), nil
}

// Decompress expands an LZ4 frame, refusing output larger than limit bytes.
func Decompress(data []byte, limit int) ([]byte, error) {
	zr := lz4Readers.Get().(*lz4.Reader)
	defer lz4Readers.Put(zr)
	zr.Reset(bytes.NewReader(data))

	var buf bytes.Buffer
	n, err := io.Copy(&buf, io.LimitReader(zr, int64(limit)+1))
	if err != nil || n > int64(limit) {
		return nil, ErrDecompressionFailed
	}
	return buf.Bytes(), nil
}
