package crypto

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"io"
	"sync/atomic"

	"golang.org/x/crypto/chacha20poly1305"
)

var (
	ErrCiphertextTooShort = errors.New("crypto: ciphertext too short")
	ErrDecryptionFailed   = errors.New("crypto: decryption failed")
	ErrReplayedRecord     = errors.New("crypto: record sequence did not advance")
)

// AEAD wraps ChaCha20-Poly1305 for one direction of a channel. Nonces are a
// random 4-byte prefix followed by a 64-bit record sequence number.
type AEAD struct {
	aead    cipher.AEAD
	prefix  [4]byte
	seq     atomic.Uint64
	lastSeq uint64 // highest sequence opened
}

// NewAEAD returns an AEAD keyed with a 32-byte key.
func NewAEAD(key []byte) (*AEAD, error) {
	if len(key) != chacha20poly1305.KeySize {
		return nil, errors.New("crypto: invalid key size for ChaCha20-Poly1305")
	}
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, err
	}
	a := &AEAD{aead: aead}
	if _, err := io.ReadFull(rand.Reader, a.prefix[:]); err != nil {
		return nil, err
	}
	return a, nil
}

// Seal appends nonce || ciphertext || tag to dst.
func (a *AEAD) Seal(dst, plaintext, additionalData []byte) []byte {
	var nonce [chacha20poly1305.NonceSize]byte
	copy(nonce[:4], a.prefix[:])
	binary.BigEndian.PutUint64(nonce[4:], a.seq.Add(1))
	dst = append(dst, nonce[:]...)
	return a.aead.Seal(dst, nonce[:], plaintext, additionalData)
}

// Open authenticates and decrypts a sealed record, appending the plaintext to
// dst. Records must arrive in the order they were sealed.
func (a *AEAD) Open(dst, sealed, additionalData []byte) ([]byte, error) {
	if len(sealed) < a.Overhead() {
		return nil, ErrCiphertextTooShort
	}
	nonce := sealed[:chacha20poly1305.NonceSize]
	seq := binary.BigEndian.Uint64(nonce[4:])
	if seq <= a.lastSeq {
		return nil, ErrReplayedRecord
	}
	out, err := a.aead.Open(dst, nonce, sealed[chacha20poly1305.NonceSize:], additionalData)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	a.lastSeq = seq
	return out, nil
}

// Overhead is the number of bytes Seal adds to a plaintext.
func (a *AEAD) Overhead() int {
	return chacha20poly1305.NonceSize + a.aead.Overhead()
}
