package utils

import "context"

type Pager[T any] interface {
	Next(context.Context) (T, bool, error)
}

type pager[T any] struct {
	buf        []T
	pageSize   int
	currPage   int
	currIdx    int
	lastPage   bool
	done       bool
	nextPageFn func(ctx context.Context, currPage int, buf []T) ([]T, error)
}

// NewPager iterates over pages returned by nextFn one element at a time. Iteration ends on an
// empty page or, when pageSize is positive, after the first page shorter than pageSize
func NewPager[T any](pageSize int, nextFn func(ctx context.Context, currPage int, buf []T) ([]T, error)) Pager[T] {
	return &pager[T]{
		pageSize:   pageSize,
		nextPageFn: nextFn,
		buf:        []T{},
	}
}

func (p *pager[T]) Next(ctx context.Context) (T, bool, error) {
	if p.done {
		return *new(T), false, nil
	}

	if p.currIdx > len(p.buf)-1 {
		if p.lastPage {
			p.done = true
			return *new(T), false, nil
		}

		b, err := p.nextPageFn(ctx, p.currPage, p.buf)
		if err != nil {
			return *new(T), false, err
		} else if len(b) == 0 {
			p.done = true
			return *new(T), false, nil
		}

		p.buf = b
		p.currIdx = 0
		p.currPage++
		p.lastPage = p.pageSize > 0 && len(b) < p.pageSize
	}

	t := p.buf[p.currIdx]
	p.currIdx++

	return t, true, nil
}
