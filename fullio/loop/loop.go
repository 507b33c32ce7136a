// Package loop provides the single-goroutine scheduler on which transport
// completions run.
package loop

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

var (
	ErrClosed  = errors.New("loop: closed")
	ErrRunning = errors.New("loop: already running")
)

// Options parameterise a Loop.
type Options struct {
	QueueSize int                // initial capacity of the task queue
	Logger    logrus.FieldLogger // defaults to the logrus standard logger
}

// DefaultOptions returns the options used when a field is left zero.
func DefaultOptions() Options {
	return Options{
		QueueSize: 64,
		Logger:    logrus.StandardLogger(),
	}
}

func (opts *Options) setZerosToDefaults() {
	def := DefaultOptions()
	if opts.QueueSize <= 0 {
		opts.QueueSize = def.QueueSize
	}
	if opts.Logger == nil {
		opts.Logger = def.Logger
	}
}

// Loop runs posted tasks one at a time, in the order they were posted. Post
// is safe for concurrent use; tasks never run concurrently with each other.
type Loop struct {
	logger  logrus.FieldLogger
	running atomic.Bool

	mu     sync.Mutex
	queue  []func()
	closed bool
	wake   chan struct{}
	done   chan struct{}
}

// New returns a loop that does nothing until Run is called.
func New(opts Options) *Loop {
	opts.setZerosToDefaults()
	return &Loop{
		logger: opts.Logger,
		queue:  make([]func(), 0, opts.QueueSize),
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

// Post enqueues fn. It never blocks and never runs fn before returning, even
// when called from inside a task.
func (l *Loop) Post(fn func()) error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return ErrClosed
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return nil
}

// Run executes tasks on the calling goroutine until ctx is done or Close is
// called. It returns ctx.Err() in the first case and nil in the second.
// Only one Run may be active at a time; a concurrent call returns
// ErrRunning.
func (l *Loop) Run(ctx context.Context) error {
	if !l.running.CompareAndSwap(false, true) {
		return ErrRunning
	}
	defer l.running.Store(false)
	for {
		for {
			fn, ok := l.pop()
			if !ok {
				break
			}
			fn()
			select {
			case <-l.done:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
		}

		select {
		case <-l.wake:
		case <-l.done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (l *Loop) pop() (func(), bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed || len(l.queue) == 0 {
		return nil, false
	}
	fn := l.queue[0]
	l.queue[0] = nil
	l.queue = l.queue[1:]
	return fn, true
}

// Len returns the number of tasks waiting to run.
func (l *Loop) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.queue)
}

// Close stops the loop and discards pending tasks. It is idempotent.
func (l *Loop) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	if n := len(l.queue); n > 0 {
		l.logger.WithField("pending", n).Debug("loop closed with pending tasks")
	}
	l.queue = nil
	close(l.done)
	return nil
}

// Done is closed once Close has been called.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}
