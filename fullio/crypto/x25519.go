package crypto

import (
	"crypto/rand"
	"errors"
	"io"

	"golang.org/x/crypto/curve25519"
)

var ErrInvalidPublicKey = errors.New("crypto: invalid X25519 public key")

// KeyPair is an ephemeral X25519 keypair.
type KeyPair struct {
	Public  [curve25519.PointSize]byte
	Private [curve25519.ScalarSize]byte
}

// GenerateKeyPair returns a fresh ephemeral keypair.
func GenerateKeyPair() (KeyPair, error) {
	var kp KeyPair
	if _, err := io.ReadFull(rand.Reader, kp.Private[:]); err != nil {
		return KeyPair{}, err
	}
	pub, err := curve25519.X25519(kp.Private[:], curve25519.Basepoint)
	if err != nil {
		return KeyPair{}, err
	}
	copy(kp.Public[:], pub)
	return kp, nil
}

// SharedSecret computes the raw X25519 shared secret with the peer. The
// result must go through DeriveSessionKeys before use.
func (kp KeyPair) SharedSecret(peer [curve25519.PointSize]byte) ([]byte, error) {
	var zero [curve25519.PointSize]byte
	if peer == zero {
		return nil, ErrInvalidPublicKey
	}
	shared, err := curve25519.X25519(kp.Private[:], peer[:])
	if err != nil {
		// low-order point
		return nil, ErrInvalidPublicKey
	}
	return shared, nil
}
