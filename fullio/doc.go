// Package fullio builds complete reads and writes on top of transports that
// only move part of a buffer per operation.
//
// The core lives in fullio/basic: Read and Write keep issuing partial
// operations until the whole buffer has moved, reporting exactly once. The
// transport is held by a weak handle, so an operation whose transport has
// gone away ends silently. The rest of the module layers framing
// (fullio/protocol), an encrypted channel (fullio/crypto) and chunked bulk
// payloads (fullio/transfer) on that core, and this package connects it all
// to QUIC streams.
package fullio
