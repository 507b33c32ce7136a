package transfer

import (
	"bytes"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/TheusHen/fullio/fullio/basic"
	"github.com/TheusHen/fullio/fullio/protocol"
	"github.com/TheusHen/fullio/fullio/transfer/erasure"
	"github.com/sirupsen/logrus"
)

const (
	// MaxPayloadSize bounds a single bulk payload (1 GiB).
	MaxPayloadSize = 1 << 30
	// MaxChunks bounds the number of chunks announced by a manifest.
	MaxChunks = 1 << 16
)

var (
	ErrPayloadTooLarge      = errors.New("transfer: payload too large")
	ErrChunkTooLarge        = errors.New("transfer: chunk does not fit in a frame")
	ErrInvalidManifest      = errors.New("transfer: invalid manifest")
	ErrUnexpectedFrame      = errors.New("transfer: unexpected frame type")
	ErrChunkCorrupt         = errors.New("transfer: chunk failed integrity check")
	ErrIntegrityCheckFailed = errors.New("transfer: payload digest mismatch")
)

// Config configures senders and receivers.
type Config struct {
	ChunkSize    int              // bytes per chunk (default: 256 KiB)
	Compression  CompressionLevel // LZ4 level, or CompressionOff
	DataShards   int              // Reed-Solomon data shards (0 = erasure off)
	ParityShards int              // Reed-Solomon parity shards
	Logger       logrus.FieldLogger
}

// DefaultConfig returns fast compression, 256 KiB chunks and no erasure
// coding.
func DefaultConfig() Config {
	return Config{
		ChunkSize:   DefaultChunkSize,
		Compression: CompressionFast,
		Logger:      logrus.StandardLogger(),
	}
}

func (cfg *Config) setZerosToDefaults() {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = DefaultChunkSize
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}
}

// Manifest announces a payload before its chunks.
type Manifest struct {
	Size         int    `json:"size"`
	Chunks       int    `json:"chunks"`
	ChunkSize    int    `json:"chunk_size"`
	DataShards   int    `json:"data_shards,omitempty"`
	ParityShards int    `json:"parity_shards,omitempty"`
	Digest       []byte `json:"digest"`
}

func (m Manifest) validate() error {
	switch {
	case m.Size < 0 || m.Size > MaxPayloadSize:
		return fmt.Errorf("%w: size %d", ErrInvalidManifest, m.Size)
	case m.Chunks < 0 || m.Chunks > MaxChunks:
		return fmt.Errorf("%w: %d chunks", ErrInvalidManifest, m.Chunks)
	case m.ChunkSize <= 0 || m.ChunkSize+chunkHeaderSize > protocol.MaxFramePayload:
		return fmt.Errorf("%w: chunk size %d", ErrInvalidManifest, m.ChunkSize)
	case len(m.Digest) != sha256.Size:
		return fmt.Errorf("%w: digest length %d", ErrInvalidManifest, len(m.Digest))
	}
	if m.DataShards > 0 {
		if m.Chunks != m.DataShards+m.ParityShards {
			return fmt.Errorf("%w: %d chunks for %d+%d shards", ErrInvalidManifest, m.Chunks, m.DataShards, m.ParityShards)
		}
		return nil
	}
	if want := (m.Size + m.ChunkSize - 1) / m.ChunkSize; m.Chunks != want {
		return fmt.Errorf("%w: %d chunks, want %d", ErrInvalidManifest, m.Chunks, want)
	}
	return nil
}

// Stats tracks transfer progress.
type Stats struct {
	TotalBytes      atomic.Int64
	CompressedBytes atomic.Int64 // chunk bytes on the wire
	ChunksSent      atomic.Int64
	ChunksReceived  atomic.Int64
	ChunksDiscarded atomic.Int64 // corrupt shards dropped for reconstruction
}

// CompressionRatio returns original bytes over wire bytes.
func (s *Stats) CompressionRatio() float64 {
	wire := s.CompressedBytes.Load()
	if wire == 0 {
		return 1.0
	}
	return float64(s.TotalBytes.Load()) / float64(wire)
}

// Sender writes payloads to one transport, one payload at a time.
type Sender[W basic.Writer] struct {
	h      basic.Handle[W]
	cfg    Config
	codec  *erasure.Codec
	stats  Stats
	logger logrus.FieldLogger
}

// NewSender returns a sender for h. It fails only on an invalid erasure
// layout.
func NewSender[W basic.Writer](h basic.Handle[W], cfg Config) (*Sender[W], error) {
	cfg.setZerosToDefaults()
	s := &Sender[W]{h: h, cfg: cfg, logger: cfg.Logger}
	if cfg.DataShards > 0 || cfg.ParityShards > 0 {
		codec, err := erasure.NewCodec(cfg.DataShards, cfg.ParityShards)
		if err != nil {
			return nil, err
		}
		s.codec = codec
	}
	return s, nil
}

// Stats returns the sender's counters.
func (s *Sender[W]) Stats() *Stats { return &s.stats }

// Send writes the manifest and every chunk of data, then reports the
// manifest. The frames are written strictly one after another.
func (s *Sender[W]) Send(data []byte, cb func(Manifest, error)) {
	frames, m, err := s.frames(data)
	if err != nil {
		w, ok := s.h.Lock()
		if !ok {
			return
		}
		w.DeferWriteCallback(0, err, func(int, error) { cb(Manifest{}, err) })
		return
	}
	s.logger.WithFields(logrus.Fields{
		"size":   m.Size,
		"chunks": m.Chunks,
	}).Debug("sending payload")
	s.sendFrom(frames, 0, m, cb)
}

func (s *Sender[W]) sendFrom(frames []protocol.Frame, i int, m Manifest, cb func(Manifest, error)) {
	if i == len(frames) {
		cb(m, nil)
		return
	}
	protocol.WriteFrame(s.h, frames[i], func(err error) {
		if err != nil {
			cb(Manifest{}, fmt.Errorf("transfer: write frame %d: %w", i, err))
			return
		}
		if frames[i].Type == protocol.MessageTypeChunk {
			s.stats.ChunksSent.Add(1)
		}
		s.sendFrom(frames, i+1, m, cb)
	})
}

func (s *Sender[W]) frames(data []byte) ([]protocol.Frame, Manifest, error) {
	if len(data) > MaxPayloadSize {
		return nil, Manifest{}, ErrPayloadTooLarge
	}
	digest := sha256.Sum256(data)
	m := Manifest{Size: len(data), ChunkSize: s.cfg.ChunkSize, Digest: digest[:]}

	var chunks []Chunk
	if s.codec != nil && len(data) > 0 {
		shards, err := s.codec.Encode(data)
		if err != nil {
			return nil, Manifest{}, err
		}
		for i, shard := range shards {
			chunks = append(chunks, newChunk(i, shard))
		}
		m.ChunkSize = len(shards[0])
		m.DataShards, m.ParityShards = s.codec.DataShards(), s.codec.ParityShards()
	} else {
		chunks = splitChunks(data, s.cfg.ChunkSize)
	}
	m.Chunks = len(chunks)
	if m.ChunkSize+chunkHeaderSize > protocol.MaxFramePayload {
		return nil, Manifest{}, fmt.Errorf("%w: %d bytes", ErrChunkTooLarge, m.ChunkSize)
	}
	if m.Chunks > MaxChunks {
		return nil, Manifest{}, ErrPayloadTooLarge
	}

	payload, err := json.Marshal(m)
	if err != nil {
		return nil, Manifest{}, err
	}
	frames := make([]protocol.Frame, 0, 1+len(chunks))
	frames = append(frames, protocol.Frame{Type: protocol.MessageTypeManifest, Payload: payload})

	var wire int64
	for _, c := range chunks {
		c = s.compress(c)
		wire += int64(len(c.Data))
		frames = append(frames, protocol.Frame{Type: protocol.MessageTypeChunk, Payload: encodeChunk(c)})
	}
	s.stats.TotalBytes.Add(int64(len(data)))
	s.stats.CompressedBytes.Add(wire)
	return frames, m, nil
}

func (s *Sender[W]) compress(c Chunk) Chunk {
	if s.cfg.Compression == CompressionOff {
		return c
	}
	z, err := Compress(c.Data, s.cfg.Compression)
	if err != nil || len(z) >= len(c.Data) {
		return c
	}
	c.Data, c.Compressed = z, true
	return c
}

// Receiver reads payloads written by a Sender.
type Receiver[R basic.Reader] struct {
	h      basic.Handle[R]
	stats  Stats
	logger logrus.FieldLogger
}

// NewReceiver returns a receiver for h. Only cfg.Logger is consulted; the
// layout comes from each manifest.
func NewReceiver[R basic.Reader](h basic.Handle[R], cfg Config) *Receiver[R] {
	cfg.setZerosToDefaults()
	return &Receiver[R]{h: h, logger: cfg.Logger}
}

// Stats returns the receiver's counters.
func (r *Receiver[R]) Stats() *Stats { return &r.stats }

// Receive reads one manifest and its chunks and reports the reassembled,
// digest-checked payload.
func (r *Receiver[R]) Receive(cb func([]byte, error)) {
	protocol.ReadFrame(r.h, func(f protocol.Frame, err error) {
		if err != nil {
			cb(nil, err)
			return
		}
		if f.Type != protocol.MessageTypeManifest {
			cb(nil, fmt.Errorf("%w: %v", ErrUnexpectedFrame, f.Type))
			return
		}
		var m Manifest
		if err := json.Unmarshal(f.Payload, &m); err != nil {
			cb(nil, fmt.Errorf("%w: %v", ErrInvalidManifest, err))
			return
		}
		a, err := newAssembly(m)
		if err != nil {
			cb(nil, err)
			return
		}
		r.receiveFrom(a, 0, cb)
	})
}

func (r *Receiver[R]) receiveFrom(a *assembly, i int, cb func([]byte, error)) {
	if i == a.m.Chunks {
		payload, err := a.payload()
		if err == nil {
			r.stats.TotalBytes.Add(int64(len(payload)))
		}
		cb(payload, err)
		return
	}
	protocol.ReadFrame(r.h, func(f protocol.Frame, err error) {
		if err != nil {
			cb(nil, fmt.Errorf("transfer: read chunk %d: %w", i, err))
			return
		}
		if f.Type != protocol.MessageTypeChunk {
			cb(nil, fmt.Errorf("%w: %v", ErrUnexpectedFrame, f.Type))
			return
		}
		if err := r.accept(a, f.Payload); err != nil {
			cb(nil, err)
			return
		}
		r.stats.CompressedBytes.Add(int64(len(f.Payload) - chunkHeaderSize))
		r.stats.ChunksReceived.Add(1)
		r.receiveFrom(a, i+1, cb)
	})
}

func (r *Receiver[R]) accept(a *assembly, b []byte) error {
	c, err := decodeChunk(b)
	if err != nil {
		return err
	}
	if c.Index < 0 || c.Index >= a.m.Chunks || a.seen[c.Index] {
		return fmt.Errorf("%w: index %d", ErrMalformedChunk, c.Index)
	}
	a.seen[c.Index] = true

	data, err := a.open(c)
	if err == nil {
		a.chunks[c.Index] = data
		return nil
	}
	if a.codec == nil {
		return err
	}
	r.stats.ChunksDiscarded.Add(1)
	r.logger.WithFields(logrus.Fields{
		"index": c.Index,
		"error": err,
	}).Warn("discarding corrupt shard")
	return nil
}

// assembly collects the chunks of one payload.
type assembly struct {
	m      Manifest
	codec  *erasure.Codec
	chunks [][]byte
	seen   []bool
}

func newAssembly(m Manifest) (*assembly, error) {
	if err := m.validate(); err != nil {
		return nil, err
	}
	a := &assembly{m: m, chunks: make([][]byte, m.Chunks), seen: make([]bool, m.Chunks)}
	if m.DataShards > 0 {
		codec, err := erasure.NewCodec(m.DataShards, m.ParityShards)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidManifest, err)
		}
		a.codec = codec
	}
	return a, nil
}

func (a *assembly) open(c Chunk) ([]byte, error) {
	data := c.Data
	if c.Compressed {
		var err error
		if data, err = Decompress(c.Data, a.m.ChunkSize); err != nil {
			return nil, fmt.Errorf("%w: chunk %d: %v", ErrChunkCorrupt, c.Index, err)
		}
	}
	if len(data) > a.m.ChunkSize || sha256.Sum256(data) != c.Hash {
		return nil, fmt.Errorf("%w: chunk %d", ErrChunkCorrupt, c.Index)
	}
	return data, nil
}

func (a *assembly) payload() ([]byte, error) {
	var payload []byte
	if a.codec != nil {
		var err error
		if payload, err = a.codec.Decode(a.chunks, a.m.Size); err != nil {
			return nil, err
		}
	} else {
		payload = bytes.Join(a.chunks, nil)
	}
	if len(payload) != a.m.Size {
		return nil, ErrIntegrityCheckFailed
	}
	if digest := sha256.Sum256(payload); !bytes.Equal(digest[:], a.m.Digest) {
		return nil, ErrIntegrityCheckFailed
	}
	return payload, nil
}
