// Package async bridges callback-style completion into a value that can be awaited exactly once.
package async

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/Gobusters/ectologger"
)

// ErrNilFailure is delivered when OnFailure is invoked without an error.
var ErrNilFailure = errors.New("async: failure reported without an error")

// Listener receives the outcome of a callback-style operation.
type Listener[T any] interface {
	OnResponse(value T)
	OnFailure(err error)
}

// Promise is a Listener whose first callback fulfills it. Later callbacks are logged and ignored.
type Promise[T any] struct {
	once    sync.Once
	done    chan struct{}
	value   T
	err     error
	ignored atomic.Int32
	logger  ectologger.Logger
	name    string
}

// NewPromise creates an unfulfilled promise. name is only used in log output.
func NewPromise[T any](name string, logger ectologger.Logger) *Promise[T] {
	return &Promise[T]{
		done:   make(chan struct{}),
		logger: logger,
		name:   name,
	}
}

// OnResponse fulfills the promise with value.
func (p *Promise[T]) OnResponse(value T) {
	p.settle(value, nil)
}

// OnFailure rejects the promise with err.
func (p *Promise[T]) OnFailure(err error) {
	if err == nil {
		err = ErrNilFailure
	}
	var zero T
	p.settle(zero, err)
}

func (p *Promise[T]) settle(value T, err error) {
	fulfilled := false
	p.once.Do(func() {
		p.value = value
		p.err = err
		fulfilled = true
		close(p.done)
	})
	if fulfilled {
		return
	}

	p.ignored.Add(1)
	if p.logger != nil {
		p.logger.WithFields(map[string]any{
			"promise": p.name,
			"failure": err != nil,
		}).Warn("Ignoring callback for already settled promise")
	}
}

// Done is closed once the promise has settled.
func (p *Promise[T]) Done() <-chan struct{} {
	return p.done
}

// Await blocks until the promise settles or ctx is done.
func (p *Promise[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-p.done:
		return p.value, p.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Ignored returns how many callbacks arrived after the promise had settled.
func (p *Promise[T]) Ignored() int {
	return int(p.ignored.Load())
}

// FromCallback starts register with a fresh promise as its listener and returns the promise.
func FromCallback[T any](name string, logger ectologger.Logger, register func(l Listener[T])) *Promise[T] {
	p := NewPromise[T](name, logger)
	register(p)
	return p
}
