package client

import (
	"context"
	"errors"
	"sync"
)

// ErrSuperseded is returned by Latest.Do when a newer call started before this one
// finished.
var ErrSuperseded = errors.New("superseded by a newer request")

// Latest keeps the result of the most recent fetch. Each Do cancels the fetch still in
// flight and a late response from an older fetch is dropped. The zero value is ready
// to use.
type Latest[T any] struct {
	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
	value  T
	ok     bool
}

func (l *Latest[T]) Do(ctx context.Context, fetch func(context.Context) (T, error)) (T, error) {
	var zero T

	l.mu.Lock()
	if l.cancel != nil {
		l.cancel()
	}
	l.gen++
	gen := l.gen
	ctx, cancel := context.WithCancel(ctx)
	l.cancel = cancel
	l.mu.Unlock()

	v, err := fetch(ctx)

	l.mu.Lock()
	defer l.mu.Unlock()
	cancel()
	if gen != l.gen {
		return zero, ErrSuperseded
	}
	l.cancel = nil
	if err != nil {
		return zero, err
	}
	l.value, l.ok = v, true
	return v, nil
}

// Value returns the last result stored by Do.
func (l *Latest[T]) Value() (T, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.value, l.ok
}
