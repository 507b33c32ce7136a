package basic

import (
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

const (
	opRead  = "read"
	opWrite = "write"
)

var logger logrus.FieldLogger = logrus.StandardLogger()

// SetLogger replaces the logger used to report dropped completions and
// contract violations. A nil logger restores the logrus standard logger.
func SetLogger(l logrus.FieldLogger) {
	if l == nil {
		l = logrus.StandardLogger()
	}
	logger = l
}

// Step states. A completion that arrives while its partial call is still on
// the stack moves the op to stepResumed and lets run issue the next call,
// so synchronous transports do not grow the stack.
const (
	stepIdle uint32 = iota
	stepIssuing
	stepResumed
)

// fullOp drives partial transfers on one buffer until it is exhausted.
type fullOp[T any] struct {
	op     string
	handle Handle[T]
	issue  func(t T, p []byte, k func(int, error))
	rest   []byte
	total  int
	done   func(n int, err error)
	state  atomic.Uint32
}

func startFull[T any](op string, h Handle[T], p []byte,
	issue func(T, []byte, func(int, error)),
	deferred func(T, func(int, error)),
	done func(int, error),
) {
	t, ok := h.Lock()
	if !ok {
		logger.WithField("op", op).Debug("transport released before start")
		return
	}
	if len(p) == 0 {
		deferred(t, func(int, error) { done(0, nil) })
		return
	}
	f := &fullOp[T]{
		op:     op,
		handle: h,
		issue:  issue,
		rest:   p,
		total:  len(p),
		done:   done,
	}
	f.run(t)
}

func (f *fullOp[T]) run(t T) {
	for {
		f.state.Store(stepIssuing)
		f.issue(t, f.rest, f.complete)
		if f.state.CompareAndSwap(stepIssuing, stepIdle) {
			// Still pending, or already finished inside issue.
			return
		}
		var ok bool
		if t, ok = f.handle.Lock(); !ok {
			f.drop()
			return
		}
	}
}

func (f *fullOp[T]) complete(n int, err error) {
	if !f.handle.Alive() {
		f.drop()
		return
	}
	if err != nil {
		f.finish(0, err)
		return
	}
	if n <= 0 || n > len(f.rest) {
		f.violate(n)
	}
	if n == len(f.rest) {
		f.finish(f.total, nil)
		return
	}
	f.rest = f.rest[n:]
	if f.state.CompareAndSwap(stepIssuing, stepResumed) {
		return
	}
	t, ok := f.handle.Lock()
	if !ok {
		f.drop()
		return
	}
	f.run(t)
}

func (f *fullOp[T]) finish(n int, err error) {
	done := f.done
	f.rest, f.done = nil, nil
	done(n, err)
}

func (f *fullOp[T]) drop() {
	logger.WithFields(logrus.Fields{
		"op":        f.op,
		"remaining": len(f.rest),
	}).Debug("transport released, dropping completion")
	f.rest, f.done = nil, nil
}

func (f *fullOp[T]) violate(n int) {
	v := &ContractViolation{Op: f.op, Requested: len(f.rest), Reported: n}
	logger.WithFields(logrus.Fields{
		"op":        f.op,
		"requested": v.Requested,
		"reported":  v.Reported,
	}).Error(v.Error())
	panic(v)
}
