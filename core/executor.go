package core

import (
	"context"
	"errors"
	"sync"

	"github.com/0xRadioAc7iv/minkdb/internal/protocol"
)

var ErrExecutorClosed = errors.New("executor closed")

type request struct {
	fn   func(*Store)
	done chan struct{}
}

// Executor is the single owner of a Store. Any number of goroutines may
// submit work; it runs on one goroutine, one request at a time, each to
// completion before the next one starts.
type Executor struct {
	store    *Store
	requests chan request
	quit     chan struct{}
	stopped  chan struct{}
	once     sync.Once
}

func NewExecutor(store *Store) *Executor {
	e := &Executor{
		store:    store,
		requests: make(chan request),
		quit:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
	go e.run()
	return e
}

func (e *Executor) run() {
	defer close(e.stopped)

	for {
		select {
		case req := <-e.requests:
			req.fn(e.store)
			close(req.done)
		case <-e.quit:
			return
		}
	}
}

// Do runs fn on the owner goroutine and waits for it. Once fn has been
// accepted it always runs to completion, even if ctx is cancelled.
func (e *Executor) Do(ctx context.Context, fn func(*Store)) error {
	req := request{fn: fn, done: make(chan struct{})}

	select {
	case e.requests <- req:
	case <-ctx.Done():
		return ctx.Err()
	case <-e.quit:
		return ErrExecutorClosed
	}

	<-req.done
	return nil
}

// Submit executes command on the owner goroutine.
func (e *Executor) Submit(ctx context.Context, command *protocol.Command) (protocol.Response, error) {
	var resp protocol.Response
	err := e.Do(ctx, func(s *Store) {
		resp = s.Execute(command)
	})
	return resp, err
}

// Close stops accepting work and waits for the running request, if any.
// It does not close the Store.
func (e *Executor) Close() {
	e.once.Do(func() {
		close(e.quit)
	})
	<-e.stopped
}
