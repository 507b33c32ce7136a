// Package stream adapts blocking byte streams (net.Conn, QUIC streams, pipes)
// into partial-transfer transports whose completions run on a loop.Loop.
package stream

import (
	"errors"
	"io"
	"sync"
	"sync/atomic"

	"github.com/TheusHen/fullio/fullio/basic"
	"github.com/TheusHen/fullio/fullio/loop"
	"github.com/sirupsen/logrus"
)

var (
	ErrReadInFlight  = errors.New("stream: read already in flight")
	ErrWriteInFlight = errors.New("stream: write already in flight")
)

// maxEmptyReads bounds how often a Read returning (0, nil) is retried before
// the stream is treated as broken.
const maxEmptyReads = 100

// Option configures a Stream.
type Option func(*Stream)

// WithLogger sets the logger used for dropped completions and close errors.
func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Stream) {
		if l != nil {
			s.logger = l
		}
	}
}

// Stream is a basic.ReadWriter over an io.ReadWriteCloser. Each ReadSome and
// WriteSome performs one blocking call on its own goroutine and posts the
// outcome to the loop. At most one read and one write may be in flight.
type Stream struct {
	loop   *loop.Loop
	rwc    io.ReadWriteCloser
	logger logrus.FieldLogger

	reading atomic.Bool
	writing atomic.Bool

	mu       sync.Mutex
	readErr  error // reported by the next ReadSome
	writeErr error // reported by the next WriteSome

	closeOnce sync.Once
	closeErr  error
}

var _ basic.ReadWriter = (*Stream)(nil)

// New wraps rwc. Completions run on l.
func New(l *loop.Loop, rwc io.ReadWriteCloser, opts ...Option) *Stream {
	s := &Stream{
		loop:   l,
		rwc:    rwc,
		logger: logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Stream) ReadSome(out []byte, n int, cb basic.ReadCallback) {
	if n > len(out) {
		n = len(out)
	}
	if !s.reading.CompareAndSwap(false, true) {
		s.post(opRead, func() { cb(0, ErrReadInFlight) })
		return
	}
	if err := s.takeErr(&s.readErr); err != nil {
		s.post(opRead, func() {
			s.reading.Store(false)
			cb(0, err)
		})
		return
	}

	go func() {
		got, err := s.readSome(out[:n])
		if got > 0 && err != nil {
			s.keepErr(&s.readErr, err)
			err = nil
		}
		s.post(opRead, func() {
			s.reading.Store(false)
			cb(got, err)
		})
	}()
}

func (s *Stream) readSome(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	for i := 0; i < maxEmptyReads; i++ {
		n, err := s.rwc.Read(p)
		if n > 0 || err != nil {
			return n, err
		}
	}
	return 0, io.ErrNoProgress
}

func (s *Stream) WriteSome(in []byte, n int, cb basic.WriteCallback) {
	if n > len(in) {
		n = len(in)
	}
	if !s.writing.CompareAndSwap(false, true) {
		s.post(opWrite, func() { cb(0, ErrWriteInFlight) })
		return
	}
	if err := s.takeErr(&s.writeErr); err != nil {
		s.post(opWrite, func() {
			s.writing.Store(false)
			cb(0, err)
		})
		return
	}

	go func() {
		got, err := s.rwc.Write(in[:n])
		switch {
		case got > 0 && err != nil:
			s.keepErr(&s.writeErr, err)
			err = nil
		case got == 0 && err == nil && n > 0:
			err = io.ErrShortWrite
		}
		s.post(opWrite, func() {
			s.writing.Store(false)
			cb(got, err)
		})
	}()
}

func (s *Stream) DeferReadCallback(n int, err error, cb basic.ReadCallback) {
	s.post(opRead, func() { cb(n, err) })
}

func (s *Stream) DeferWriteCallback(n int, err error, cb basic.WriteCallback) {
	s.post(opWrite, func() { cb(n, err) })
}

// Close closes the wrapped stream. Calls in flight fail with the stream's
// own error.
func (s *Stream) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.rwc.Close()
		if s.closeErr != nil {
			s.logger.WithError(s.closeErr).Debug("stream close")
		}
	})
	return s.closeErr
}

const (
	opRead  = "read"
	opWrite = "write"
)

func (s *Stream) post(op string, fn func()) {
	if err := s.loop.Post(fn); err != nil {
		s.logger.WithField("op", op).WithError(err).Debug("dropping stream completion")
	}
}

func (s *Stream) takeErr(slot *error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := *slot
	*slot = nil
	return err
}

func (s *Stream) keepErr(slot *error, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	*slot = err
}
