package pagination

import (
	"context"
	"errors"
	"sync"
)

var (
	ErrInvalidPageSize  = errors.New("pagination: page size must be greater than 0")
	ErrInvalidThreshold = errors.New("pagination: threshold must be between 0 and the page size")
	ErrNilLoader        = errors.New("pagination: loader must not be nil")
)

// LoadFunc fetches the page at the zero based index, merges it into the list owned by the
// caller and returns that whole list along with the total number of items the backend has
type LoadFunc[T any] func(ctx context.Context, page int) ([]T, int, error)

type Outcome int

const (
	// OutcomeSkipped means no page was requested because a load was already in flight
	// or the prefetch threshold was not reached
	OutcomeSkipped Outcome = iota
	// OutcomeProgress means the page added items to the list
	OutcomeProgress
	// OutcomeEmpty means the page was fetched but added nothing new
	OutcomeEmpty
	// OutcomeFailed means the loader returned an error. No state other than Err changed
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSkipped:
		return "skipped"
	case OutcomeProgress:
		return "progress"
	case OutcomeEmpty:
		return "empty"
	case OutcomeFailed:
		return "failed"
	}

	return "unknown"
}

type Manager[T any] struct {
	pageSize  int
	threshold int
	load      LoadFunc[T]

	mu          sync.Mutex
	currentPage int
	nextPage    int
	loadedCount int
	totalCount  int
	loading     bool
	lastErr     error
}

func New[T any](pageSize, threshold int, load LoadFunc[T]) (*Manager[T], error) {
	if pageSize <= 0 {
		return nil, ErrInvalidPageSize
	}
	if threshold < 0 || threshold > pageSize {
		return nil, ErrInvalidThreshold
	}
	if load == nil {
		return nil, ErrNilLoader
	}

	return &Manager[T]{
		pageSize:  pageSize,
		threshold: threshold,
		load:      load,
	}, nil
}

// LoadData requests a page from the loader. Refreshing always requests page 0, otherwise
// the page after the last one that added items is requested. Calls made while another load
// is in flight return OutcomeSkipped without touching the loader. The cursor only moves once
// the loader succeeds, so a failed refresh leaves the list where it was
func (m *Manager[T]) LoadData(ctx context.Context, refreshing bool) Outcome {
	m.mu.Lock()
	if m.loading {
		m.mu.Unlock()
		return OutcomeSkipped
	}
	m.loading = true
	page := m.nextPage
	if refreshing {
		page = 0
	}
	m.mu.Unlock()

	// The flag has to clear even if the loader panics or the context is cancelled
	defer func() {
		m.mu.Lock()
		m.loading = false
		m.mu.Unlock()
	}()

	items, total, err := m.load(ctx, page)

	m.mu.Lock()
	defer m.mu.Unlock()

	if err != nil {
		m.lastErr = err
		return OutcomeFailed
	}
	m.lastErr = nil

	// Page 0 replaces the list so it is measured against an empty one
	baseline := m.loadedCount
	if page == 0 {
		baseline = 0
	}
	grew := len(items) > baseline
	m.totalCount = total
	m.loadedCount = len(items)

	if refreshing {
		m.currentPage = 0
		m.nextPage = 0
		if !grew {
			return OutcomeEmpty
		}
		m.nextPage = 1
		return OutcomeProgress
	}

	if !grew {
		return OutcomeEmpty
	}
	m.currentPage++
	m.nextPage = page + 1

	return OutcomeProgress
}

// CanLoadMoreData reports whether no load is in flight and the backend has more items
// than the list holds. It is false until the first load reports a total
func (m *Manager[T]) CanLoadMoreData() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.canLoadMore()
}

func (m *Manager[T]) canLoadMore() bool {
	return !m.loading && m.loadedCount < m.totalCount
}

// ShouldPrefetch reports whether the item at index is close enough to the end of the
// loaded list for the next page to be requested
func (m *Manager[T]) ShouldPrefetch(index int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.canLoadMore() && index >= m.loadedCount-m.threshold
}

// LoadMoreIfNeeded loads the next page when the item at index is within the threshold
func (m *Manager[T]) LoadMoreIfNeeded(ctx context.Context, index int) Outcome {
	if !m.ShouldPrefetch(index) {
		return OutcomeSkipped
	}

	return m.LoadData(ctx, false)
}

func (m *Manager[T]) CurrentPage() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.currentPage
}

// NextPage returns the index that the next non refreshing load will request
func (m *Manager[T]) NextPage() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.nextPage
}

func (m *Manager[T]) LoadedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.loadedCount
}

func (m *Manager[T]) TotalCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.totalCount
}

func (m *Manager[T]) IsLoading() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.loading
}

// Err returns the error from the most recent load, or nil if it succeeded
func (m *Manager[T]) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.lastErr
}

func (m *Manager[T]) PageSize() int {
	return m.pageSize
}

func (m *Manager[T]) Threshold() int {
	return m.threshold
}
