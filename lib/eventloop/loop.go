// Package eventloop runs callbacks one at a time on a single goroutine.
//
// DOM dispatch and handler invocations are posted here so page state is
// only touched from one goroutine, while network calls run elsewhere and
// post their completions back.
package eventloop

import (
	"context"
	"sync"
)

// Loop is a FIFO callback queue.
type Loop struct {
	mu      sync.Mutex
	queue   []func()
	wake    chan struct{}
	pending sync.WaitGroup
	closed  bool
}

// New creates an idle loop. Call Run, or drive it manually with Drain.
func New() *Loop {
	return &Loop{wake: make(chan struct{}, 1)}
}

// Post enqueues fn. It returns false once the loop is closed.
func (l *Loop) Post(fn func()) bool {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return false
	}
	l.queue = append(l.queue, fn)
	l.pending.Add(1)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return true
}

// Go runs work on a new goroutine and tracks it, so Wait also waits for
// background work that will post back.
func (l *Loop) Go(work func()) {
	l.pending.Add(1)
	go func() {
		defer l.pending.Done()
		work()
	}()
}

// Run executes callbacks until ctx is done or Close is called.
func (l *Loop) Run(ctx context.Context) {
	for {
		l.Drain()
		l.mu.Lock()
		closed := l.closed
		l.mu.Unlock()
		if closed {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-l.wake:
		}
	}
}

// Drain runs queued callbacks, including ones they enqueue, until the
// queue is empty. It returns the number of callbacks run.
func (l *Loop) Drain() int {
	n := 0
	for {
		l.mu.Lock()
		if len(l.queue) == 0 {
			l.mu.Unlock()
			return n
		}
		fn := l.queue[0]
		l.queue[0] = nil
		l.queue = l.queue[1:]
		l.mu.Unlock()

		func() {
			defer l.pending.Done()
			fn()
		}()
		n++
	}
}

// Settle drains the queue until no tracked background work or callbacks
// remain. It is meant for tests and command-line tools that drive the loop
// from the calling goroutine.
func (l *Loop) Settle(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		l.pending.Wait()
		close(done)
	}()
	for {
		l.Drain()
		select {
		case <-done:
			l.Drain()
			return nil
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wake:
		}
	}
}

// Close stops Run after the current queue is drained and rejects new
// posts.
func (l *Loop) Close() {
	l.mu.Lock()
	l.closed = true
	l.mu.Unlock()
	select {
	case l.wake <- struct{}{}:
	default:
	}
}
