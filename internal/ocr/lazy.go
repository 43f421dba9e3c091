package ocr

import (
	"context"
	"sync"
)

// Lazy holds a handle that is built on first use. Both the handle and an
// initialization failure are cached; concurrent callers wait for the first.
type Lazy[T any] struct {
	once sync.Once
	init func(context.Context) (T, error)
	val  T
	err  error
}

func NewLazy[T any](init func(context.Context) (T, error)) *Lazy[T] {
	return &Lazy[T]{init: init}
}

// Get returns the handle. Cancellation of the first caller's ctx does not
// poison the cached result.
func (l *Lazy[T]) Get(ctx context.Context) (T, error) {
	l.once.Do(func() {
		l.val, l.err = l.init(context.WithoutCancel(ctx))
	})
	return l.val, l.err
}
