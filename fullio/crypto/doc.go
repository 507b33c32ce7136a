// Package crypto provides an encrypted partial-transfer transport built on
// the full-transfer primitives.
//
// Design:
//   - Ephemeral X25519 key exchange per connection
//   - HKDF-SHA256 derives one key per direction
//   - ChaCha20-Poly1305 (RFC 8439) seals length-prefixed records
//   - Record sequence numbers must strictly increase, so replays are rejected
//   - Each direction steps a one-way key chain every RekeyInterval records
package crypto
