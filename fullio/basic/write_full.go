package basic

// Write writes all of in to the transport behind h and reports once through
// cb. An empty in succeeds through the transport's deferred callback.
//
// If h expires while the write is pending, cb is never called.
func Write[W Writer](h Handle[W], in []byte, cb func(error)) {
	WriteCounted(h, in, func(_ int, err error) { cb(err) })
}

// WriteCounted is Write with a WriteCallback: it reports (len(in), nil) on
// success and (0, err) on failure.
func WriteCounted[W Writer](h Handle[W], in []byte, cb WriteCallback) {
	startFull(opWrite, h, in, writeSome[W], deferWrite[W], cb)
}

func writeSome[W Writer](w W, p []byte, k func(int, error)) {
	w.WriteSome(p, len(p), k)
}

func deferWrite[W Writer](w W, k func(int, error)) {
	w.DeferWriteCallback(0, nil, k)
}
