package basic

// ReadCallback receives the outcome of a partial read: the number of bytes
// placed at the start of the destination, or an error.
type ReadCallback func(n int, err error)

// Reader is a partial-transfer byte source.
type Reader interface {
	// ReadSome reads between 1 and n bytes into out[:n] and reports through
	// cb exactly once. An orderly close is reported as an error, never as a
	// zero count.
	ReadSome(out []byte, n int, cb ReadCallback)

	// DeferReadCallback schedules cb(n, err) on the transport's scheduler.
	// It never calls cb before returning.
	DeferReadCallback(n int, err error, cb ReadCallback)
}
