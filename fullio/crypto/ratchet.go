package crypto

import (
	"encoding/binary"
	"errors"
)

// RekeyInterval is the number of records sealed under one key before the
// direction's chain is stepped.
const RekeyInterval = 1 << 16

const (
	chainLabel    = "fullio-record-chain"
	maxGeneration = 1 << 32
)

var (
	ErrRatchetExhausted = errors.New("crypto: key chain exhausted")
	ErrInvalidChainKey  = errors.New("crypto: chain key must be 32 bytes")
)

// Chain is a one-way key ratchet. Each Step derives a record key and
// replaces the chain key, so keys from earlier steps cannot be recomputed
// from the current state. A Chain is not safe for concurrent use.
type Chain struct {
	key        [32]byte
	generation uint64
}

func NewChain(initial []byte) (*Chain, error) {
	if len(initial) != 32 {
		return nil, ErrInvalidChainKey
	}
	c := &Chain{}
	copy(c.key[:], initial)
	return c, nil
}

// Step returns the next record key.
func (c *Chain) Step() ([]byte, error) {
	if c.generation >= maxGeneration {
		return nil, ErrRatchetExhausted
	}
	info := make([]byte, 0, len(chainLabel)+8)
	info = append(info, chainLabel...)
	info = binary.BigEndian.AppendUint64(info, c.generation)

	material, err := DeriveKey(c.key[:], nil, info, 64)
	if err != nil {
		return nil, err
	}
	copy(c.key[:], material[32:])
	clear(material[32:])
	c.generation++
	return material[:32], nil
}

// Generation is the number of keys derived so far.
func (c *Chain) Generation() uint64 { return c.generation }

// nextAEAD steps c and keys a fresh AEAD with the result.
func nextAEAD(c *Chain) (*AEAD, error) {
	key, err := c.Step()
	if err != nil {
		return nil, err
	}
	return NewAEAD(key)
}
