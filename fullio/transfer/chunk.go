package transfer

import (
	"crypto/sha256"
	"encoding/binary"
	"errors"
)

// DefaultChunkSize is the chunk size used when Config.ChunkSize is zero.
const DefaultChunkSize = 256 * 1024

const (
	chunkHeaderSize = 4 + 1 + sha256.Size
	flagCompressed  = 1 << 0
)

var ErrMalformedChunk = errors.New("transfer: malformed chunk frame")

// Chunk is one piece of a payload: a fixed-size slice, or an erasure shard.
type Chunk struct {
	Index      int
	Data       []byte
	Hash       [sha256.Size]byte // of the uncompressed data
	Compressed bool
}

// splitChunks cuts data into chunkSize pieces. The pieces alias data.
func splitChunks(data []byte, chunkSize int) []Chunk {
	chunks := make([]Chunk, 0, (len(data)+chunkSize-1)/chunkSize)
	for off := 0; off < len(data); off += chunkSize {
		end := min(off+chunkSize, len(data))
		chunks = append(chunks, newChunk(len(chunks), data[off:end]))
	}
	return chunks
}

func newChunk(index int, data []byte) Chunk {
	return Chunk{Index: index, Data: data, Hash: sha256.Sum256(data)}
}

// encodeChunk lays a chunk out as
//
//	4 bytes: index (big endian)
//	1 byte: flags
//	32 bytes: SHA-256 of the uncompressed data
//	N bytes: data, compressed if the flag is set
func encodeChunk(c Chunk) []byte {
	buf := make([]byte, chunkHeaderSize+len(c.Data))
	binary.BigEndian.PutUint32(buf[0:4], uint32(c.Index))
	if c.Compressed {
		buf[4] |= flagCompressed
	}
	copy(buf[5:chunkHeaderSize], c.Hash[:])
	copy(buf[chunkHeaderSize:], c.Data)
	return buf
}

func decodeChunk(b []byte) (Chunk, error) {
	if len(b) < chunkHeaderSize {
		return Chunk{}, ErrMalformedChunk
	}
	c := Chunk{
		Index:      int(binary.BigEndian.Uint32(b[0:4])),
		Compressed: b[4]&flagCompressed != 0,
		Data:       b[chunkHeaderSize:],
	}
	copy(c.Hash[:], b[5:chunkHeaderSize])
	return c, nil
}
