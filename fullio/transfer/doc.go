// Package transfer moves large payloads over a partial-transfer transport.
//
// A payload is announced by a MANIFEST frame and then sent as CHUNK frames:
//   - Fixed-size chunks, each with its own SHA-256
//   - LZ4 compression, kept only when it shrinks the chunk
//   - Optional Reed-Solomon shards in place of chunks, so corrupted shards
//     can be rebuilt on the receiving side
//   - A SHA-256 digest of the whole payload, checked after reassembly
package transfer
