package erasure

import (
	"bytes"
	"errors"

	"github.com/klauspost/reedsolomon"
)

var (
	ErrTooManyLost   = errors.New("erasure: too many shards lost, cannot recover")
	ErrInvalidConfig = errors.New("erasure: invalid data/parity configuration")
	ErrShardCount    = errors.New("erasure: wrong number of shards")
)

// Codec encodes payloads into data and parity shards and rebuilds them.
type Codec struct {
	enc    reedsolomon.Encoder
	data   int
	parity int
}

// NewCodec returns a codec for the given layout. Both counts must be
// positive.
func NewCodec(dataShards, parityShards int) (*Codec, error) {
	if dataShards <= 0 || parityShards <= 0 {
		return nil, ErrInvalidConfig
	}
	enc, err := reedsolomon.New(dataShards, parityShards)
	if err != nil {
		return nil, err
	}
	return &Codec{enc: enc, data: dataShards, parity: parityShards}, nil
}

func (c *Codec) DataShards() int   { return c.data }
func (c *Codec) ParityShards() int { return c.parity }
func (c *Codec) TotalShards() int  { return c.data + c.parity }

// ShardSize is the size of every shard for a payload of dataSize bytes.
func (c *Codec) ShardSize(dataSize int) int {
	return (dataSize + c.data - 1) / c.data
}

// Encode splits payload into TotalShards shards, the last ParityShards of
// which are parity. An empty payload cannot be encoded. The data shards may
// alias payload, which is never written to.
func (c *Codec) Encode(payload []byte) ([][]byte, error) {
	shards, err := c.enc.Split(payload[:len(payload):len(payload)])
	if err != nil {
		return nil, err
	}
	if err := c.enc.Encode(shards); err != nil {
		return nil, err
	}
	return shards, nil
}

// Decode rebuilds missing (nil) data shards in place and returns the first
// size bytes of the payload.
func (c *Codec) Decode(shards [][]byte, size int) ([]byte, error) {
	if len(shards) != c.TotalShards() {
		return nil, ErrShardCount
	}
	if err := c.enc.ReconstructData(shards); err != nil {
		if errors.Is(err, reedsolomon.ErrTooFewShards) {
			return nil, ErrTooManyLost
		}
		return nil, err
	}
	var buf bytes.Buffer
	buf.Grow(size)
	if err := c.enc.Join(&buf, shards, size); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
