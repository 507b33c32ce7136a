package basic

// WriteCallback receives the outcome of a partial write: the number of bytes
// taken from the start of the source, or an error.
type WriteCallback func(n int, err error)

// Writer is a partial-transfer byte sink.
type Writer interface {
	// WriteSome writes between 1 and n bytes from in[:n] and reports through
	// cb exactly once.
	WriteSome(in []byte, n int, cb WriteCallback)

	// DeferWriteCallback schedules cb(n, err) on the transport's scheduler.
	// It never calls cb before returning.
	DeferWriteCallback(n int, err error, cb WriteCallback)
}

// ReadWriter groups the Reader and Writer halves of a duplex transport.
type ReadWriter interface {
	Reader
	Writer
}
