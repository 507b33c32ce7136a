package basic

import (
	"runtime"
)

// scheduler is a manual event loop: posted continuations run on drain.
type scheduler struct {
	queue []func()
}

func (s *scheduler) post(fn func()) { s.queue = append(s.queue, fn) }

func (s *scheduler) drain() int {
	ran := 0
	for len(s.queue) > 0 {
		fn := s.queue[0]
		s.queue = s.queue[1:]
		fn()
		ran++
	}
	return ran
}

type outcome struct {
	n   int
	err error
}

// fakeTransport replays scripted outcomes. Reads copy from src, writes append
// to dst. Completions are posted to sched unless sync is set, or parked in
// pending when hold is set.
type fakeTransport struct {
	sched  *scheduler
	script []outcome
	each   int // when script runs out, transfer min(each, n) bytes
	sync   bool
	hold   bool

	src     []byte
	srcPos  int
	dst     []byte
	asked   []int
	pending func(int, error)
	defers  int

	pcs      [128]uintptr
	maxDepth int
}

func (f *fakeTransport) next(n int) outcome {
	f.asked = append(f.asked, n)
	if len(f.script) > 0 {
		o := f.script[0]
		f.script = f.script[1:]
		return o
	}
	if f.each > 0 && f.each < n {
		return outcome{n: f.each}
	}
	return outcome{n: n}
}

func (f *fakeTransport) deliver(o outcome, cb func(int, error)) {
	if d := runtime.Callers(0, f.pcs[:]); d > f.maxDepth {
		f.maxDepth = d
	}
	switch {
	case f.hold:
		f.pending = cb
	case f.sync:
		cb(o.n, o.err)
	default:
		f.sched.post(func() { cb(o.n, o.err) })
	}
}

func (f *fakeTransport) ReadSome(out []byte, n int, cb ReadCallback) {
	o := f.next(n)
	if o.err == nil && o.n > 0 {
		c := copy(out[:min(o.n, n)], f.src[f.srcPos:])
		f.srcPos += c
	}
	f.deliver(o, cb)
}

func (f *fakeTransport) DeferReadCallback(n int, err error, cb ReadCallback) {
	f.defers++
	f.sched.post(func() { cb(n, err) })
}

func (f *fakeTransport) WriteSome(in []byte, n int, cb WriteCallback) {
	o := f.next(n)
	if o.err == nil && o.n > 0 {
		f.dst = append(f.dst, in[:min(o.n, n)]...)
	}
	f.deliver(o, cb)
}

func (f *fakeTransport) DeferWriteCallback(n int, err error, cb WriteCallback) {
	f.defers++
	f.sched.post(func() { cb(n, err) })
}

type result struct {
	calls int
	n     int
	err   error
}

func (r *result) counted(n int, err error) {
	r.calls++
	r.n, r.err = n, err
}

func (r *result) plain(err error) {
	r.calls++
	r.err = err
}

func pattern(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i*7 + 1)
	}
	return b
}
