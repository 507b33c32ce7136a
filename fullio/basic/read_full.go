package basic

// Read reads exactly len(out) bytes from the transport behind h and reports
// once through cb. An empty out succeeds through the transport's deferred
// callback, so cb never runs before Read returns in that case.
//
// If h expires while the read is pending, cb is never called.
func Read[R Reader](h Handle[R], out []byte, cb func(error)) {
	ReadCounted(h, out, func(_ int, err error) { cb(err) })
}

// ReadCounted is Read with a ReadCallback: it reports (len(out), nil) on
// success and (0, err) on failure.
func ReadCounted[R Reader](h Handle[R], out []byte, cb ReadCallback) {
	startFull(opRead, h, out, readSome[R], deferRead[R], cb)
}

func readSome[R Reader](r R, p []byte, k func(int, error)) {
	r.ReadSome(p, len(p), k)
}

func deferRead[R Reader](r R, k func(int, error)) {
	r.DeferReadCallback(0, nil, k)
}
