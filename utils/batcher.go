package utils

import "context"

type Batcher[T any] interface {
	Add(context.Context, T) error
	Flush(context.Context) error
	Flushed() int
}

type batcher[T any] struct {
	limit   int
	buf     []T
	flushed int
	flushFn func(context.Context, []T) error
}

// NewBatcher buffers items and hands them to flushFn once limit items have been added
func NewBatcher[T any](limit int, flushFn func(context.Context, []T) error) Batcher[T] {
	return &batcher[T]{
		limit:   limit,
		flushFn: flushFn,
		buf:     make([]T, 0, limit),
	}
}

func (bat *batcher[T]) Add(ctx context.Context, t T) error {
	bat.buf = append(bat.buf, t)
	if len(bat.buf) >= bat.limit {
		return bat.Flush(ctx)
	}

	return nil
}

func (bat *batcher[T]) Flush(ctx context.Context) error {
	if len(bat.buf) == 0 {
		return nil
	}

	if err := bat.flushFn(ctx, bat.buf); err != nil {
		return err
	}

	bat.flushed += len(bat.buf)
	bat.buf = bat.buf[:0]
	return nil
}

// Flushed returns how many items have been handed to flushFn successfully
func (bat *batcher[T]) Flushed() int {
	return bat.flushed
}
