package crypto

import (
	"crypto/sha256"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

const sessionKeysLabel = "fullio-channel-keys"

// DeriveKey expands secret into length bytes with HKDF-SHA256.
func DeriveKey(secret, salt, info []byte, length int) ([]byte, error) {
	key := make([]byte, length)
	if _, err := io.ReadFull(hkdf.New(sha256.New, secret, salt, info), key); err != nil {
		return nil, err
	}
	return key, nil
}

// DeriveSessionKeys derives the initiator-to-responder and
// responder-to-initiator keys, bound to both public keys.
func DeriveSessionKeys(shared []byte, initiatorPub, responderPub [32]byte) (toResponder, toInitiator []byte, err error) {
	info := make([]byte, 0, len(sessionKeysLabel)+64)
	info = append(info, sessionKeysLabel...)
	info = append(info, initiatorPub[:]...)
	info = append(info, responderPub[:]...)

	material, err := DeriveKey(shared, nil, info, 2*chacha20poly1305.KeySize)
	if err != nil {
		return nil, nil, err
	}
	return material[:chacha20poly1305.KeySize], material[chacha20poly1305.KeySize:], nil
}
