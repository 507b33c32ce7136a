// Package erasure wraps Reed-Solomon coding so a bulk transfer can rebuild
// shards that arrive corrupted.
//
// A payload is split into DataShards equal shards plus ParityShards parity
// shards; any ParityShards of them may be lost and the payload is still
// recoverable.
package erasure
