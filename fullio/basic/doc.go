// Package basic provides full-buffer reads and writes on top of transports
// that only promise partial transfers.
//
// A transport implements Reader and/or Writer: each ReadSome/WriteSome call
// moves between 1 and n bytes, or fails, and reports the outcome through a
// callback that usually runs later on the transport's own scheduler. Read and
// Write keep issuing partial calls on the unfilled suffix of the caller's
// buffer until it is exhausted, then report exactly once.
//
// Transports are referenced through a Handle. When the handle expires while an
// operation is pending, the operation stops at its next resumption point and
// its callback never fires.
//
// A transport that reports zero bytes for a non-empty request, or more bytes
// than requested, is broken. Read and Write panic with a *ContractViolation in
// that case instead of returning an error.
package basic
