package sender

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/roadrunner-server/errors"

	"github.com/crimson-sun/runlog/internal/collector"
	"github.com/crimson-sun/runlog/internal/output"
)

const (
	defaultBufferSize   = 1024
	defaultDrainTimeout = 5 * time.Second
)

var (
	// ErrClosed is returned by Send and Flush after Close.
	ErrClosed = errors.Str("send queue closed")
	// ErrDrainTimeout is returned by Close when queued sends outlive the
	// drain timeout.
	ErrDrainTimeout = errors.Str("send queue drain timed out")
)

// Option configures a Queue.
type Option func(*Queue)

// WithBufferSize sets the queue capacity. Default: 1024.
func WithBufferSize(n int) Option {
	return func(q *Queue) { q.bufSize = n }
}

// WithOnError sets the callback for failures on the queued path, both
// envelope builds and inner writes. Default: logs a warning via slog.
func WithOnError(f func(error)) Option {
	return func(q *Queue) { q.errFunc = f }
}

// WithDrainTimeout bounds how long Close waits for queued sends. Default: 5s.
func WithDrainTimeout(d time.Duration) Option {
	return func(q *Queue) { q.drainTimeout = d }
}

type task struct {
	build collector.BuildFunc
	wait  time.Duration
	flush chan struct{} // set for Flush markers only
}

// Queue is the ordered sending mechanism. Queued sends are delivered by a
// single goroutine in submission order; each one waits its hint, builds
// its envelope and writes it to the inner output. Sends with noQueue set
// build and write on the caller's goroutine.
type Queue struct {
	inner        output.Output
	ch           chan task
	done         chan struct{}
	errFunc      func(error)
	bufSize      int
	drainTimeout time.Duration

	mu        sync.RWMutex
	closed    bool
	closeOnce sync.Once
}

// New wraps inner in a Queue. The drain goroutine starts immediately.
func New(inner output.Output, opts ...Option) *Queue {
	q := &Queue{
		inner:        inner,
		bufSize:      defaultBufferSize,
		drainTimeout: defaultDrainTimeout,
		errFunc:      func(err error) { slog.Warn("log send failed", "error", err) },
	}
	for _, opt := range opts {
		opt(q)
	}
	q.ch = make(chan task, q.bufSize)
	q.done = make(chan struct{})
	go q.drain()
	return q
}

// Send submits build for delivery. Queued sends block while the queue is
// full and always return nil; their failures go to the error callback.
// With noQueue the envelope is built and written immediately and any
// failure is returned.
func (q *Queue) Send(build collector.BuildFunc, noQueue bool, wait time.Duration) error {
	const op = errors.Op("sender_send")

	if noQueue {
		if q.isClosed() {
			return fmt.Errorf("%s: %w", op, ErrClosed)
		}
		env, err := build()
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		if err := q.inner.Write(context.Background(), env); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		return nil
	}

	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return fmt.Errorf("%s: %w", op, ErrClosed)
	}
	q.ch <- task{build: build, wait: wait}
	return nil
}

// Flush blocks until every send queued before the call has been delivered.
func (q *Queue) Flush(ctx context.Context) error {
	const op = errors.Op("sender_flush")

	marker := make(chan struct{})
	q.mu.RLock()
	if q.closed {
		q.mu.RUnlock()
		return fmt.Errorf("%s: %w", op, ErrClosed)
	}
	select {
	case q.ch <- task{flush: marker}:
		q.mu.RUnlock()
	case <-ctx.Done():
		q.mu.RUnlock()
		return ctx.Err()
	}

	select {
	case <-marker:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting sends, waits for queued ones, then closes the inner
// output. If the drain timeout passes first, Close returns ErrDrainTimeout
// and the inner output is closed once the drain goroutine finishes.
func (q *Queue) Close() error {
	const op = errors.Op("sender_close")

	var err error
	q.closeOnce.Do(func() {
		q.mu.Lock()
		q.closed = true
		close(q.ch)
		q.mu.Unlock()

		select {
		case <-q.done:
			err = q.inner.Close()
		case <-time.After(q.drainTimeout):
			slog.Warn("send queue drain timed out, closing output in background")
			go func() {
				<-q.done
				if cerr := q.inner.Close(); cerr != nil {
					q.errFunc(cerr)
				}
			}()
			err = fmt.Errorf("%s: %w", op, ErrDrainTimeout)
		}
	})
	return err
}

func (q *Queue) isClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}

// drain delivers queued sends in order.
func (q *Queue) drain() {
	defer close(q.done)
	for t := range q.ch {
		if t.flush != nil {
			close(t.flush)
			continue
		}
		if t.wait > 0 {
			time.Sleep(t.wait)
		}
		env, err := t.build()
		if err != nil {
			q.errFunc(err)
			continue
		}
		if err := q.inner.Write(context.Background(), env); err != nil {
			q.errFunc(err)
		}
	}
}
