package fuzzy

import (
	"container/heap"
	"context"
	"runtime"
	"strings"
	"sync"

	"github.com/dshills/wikisearch/internal/search/bitap"
)

// AsyncMatcher provides parallel fuzzy matching for large item sets.
// It uses worker pools to spread evaluation across CPU cores; all workers
// share one compiled query.
type AsyncMatcher struct {
	matcher    *Matcher
	numWorkers int
}

// NewAsyncMatcher creates an async matcher with the given base matcher.
// If numWorkers is 0, it defaults to runtime.NumCPU().
// Panics if matcher is nil.
func NewAsyncMatcher(matcher *Matcher, numWorkers int) *AsyncMatcher {
	if matcher == nil {
		panic("fuzzy: NewAsyncMatcher called with nil matcher")
	}
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	return &AsyncMatcher{
		matcher:    matcher,
		numWorkers: numWorkers,
	}
}

// Workers returns the size of the worker pool.
func (m *AsyncMatcher) Workers() int {
	return m.numWorkers
}

// MatchAsync performs fuzzy matching asynchronously.
// Returns a channel that receives results in score order (best first).
// The query is compiled before any goroutine starts, so a bad query is
// reported immediately and no channel is returned.
//
// IMPORTANT: The caller MUST either:
//   - Drain the results channel completely, OR
//   - Call the returned cancel function to release resources
//
// Failure to do either may cause goroutine leaks.
func (m *AsyncMatcher) MatchAsync(ctx context.Context, query string, items []Item, limit int) (<-chan Result, context.CancelFunc, error) {
	query = strings.TrimSpace(query)

	var compiled *bitap.Matcher
	if query != "" {
		var err error
		compiled, err = m.matcher.Compile(query)
		if err != nil {
			return nil, nil, err
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	results := make(chan Result, 100)

	go func() {
		defer close(results)

		var collected []Result
		if compiled == nil {
			collected = m.matcher.emptyQueryResults(items, limit)
		} else {
			collected = m.collect(ctx, compiled, items, limit)
		}

		for _, r := range collected {
			select {
			case results <- r:
			case <-ctx.Done():
				return
			}
		}
	}()

	return results, cancel, nil
}

// MatchParallel performs parallel matching and returns all results.
// This is useful when you need all results at once but want parallel processing.
// If ctx is canceled, the results gathered so far are returned.
func (m *AsyncMatcher) MatchParallel(ctx context.Context, query string, items []Item, limit int) ([]Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return m.matcher.emptyQueryResults(items, limit), nil
	}

	compiled, err := m.matcher.Compile(query)
	if err != nil {
		return nil, err
	}
	return m.collect(ctx, compiled, items, limit), nil
}

// collect fans items out to workers in chunks, merges their results, sorts
// them and applies the limit.
func (m *AsyncMatcher) collect(ctx context.Context, compiled *bitap.Matcher, items []Item, limit int) []Result {
	chunkSize := m.chunkSize(len(items))

	// Each worker keeps at most 2x the limit to allow for merging
	workerLimit := limit
	if workerLimit > 0 {
		workerLimit = limit * 2
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	var collected []Result

	for i := 0; i < len(items); i += chunkSize {
		end := i + chunkSize
		if end > len(items) {
			end = len(items)
		}

		wg.Add(1)
		go func(chunk []Item) {
			defer wg.Done()

			select {
			case <-ctx.Done():
				return
			default:
			}

			var local []Result
			if workerLimit > 0 {
				local = matchChunkTopK(ctx, compiled, chunk, workerLimit)
			} else {
				local = matchChunkAll(ctx, compiled, chunk)
			}

			mu.Lock()
			collected = append(collected, local...)
			mu.Unlock()
		}(items[i:end])
	}

	wg.Wait()

	sortResults(collected)
	return applyLimit(collected, limit)
}

// chunkSize picks an adaptive chunk size for n items.
func (m *AsyncMatcher) chunkSize(n int) int {
	chunkSize := (n + m.numWorkers - 1) / m.numWorkers
	minChunkSize := 50
	if n < 1000 {
		minChunkSize = 10
	}
	if chunkSize < minChunkSize {
		chunkSize = minChunkSize
	}
	return chunkSize
}

// matchChunkTopK matches items in a chunk and keeps only the k best results.
func matchChunkTopK(ctx context.Context, compiled *bitap.Matcher, chunk []Item, k int) []Result {
	h := &resultHeap{}
	heap.Init(h)

	for _, item := range chunk {
		select {
		case <-ctx.Done():
			return h.toSlice()
		default:
		}

		r, ok := matchItem(compiled, item)
		if !ok {
			continue
		}
		if h.Len() < k {
			heap.Push(h, r)
		} else if resultLess(r, (*h)[0]) {
			// Replace the worst kept result
			(*h)[0] = r
			heap.Fix(h, 0)
		}
	}

	return h.toSlice()
}

// matchChunkAll matches all items in a chunk (no limit).
func matchChunkAll(ctx context.Context, compiled *bitap.Matcher, chunk []Item) []Result {
	results := make([]Result, 0, len(chunk)/4)

	for _, item := range chunk {
		select {
		case <-ctx.Done():
			return results
		default:
		}

		if r, ok := matchItem(compiled, item); ok {
			results = append(results, r)
		}
	}

	return results
}

// resultHeap is a max-heap under resultLess, so the root is the worst
// result kept (for top-k selection).
type resultHeap []Result

func (h resultHeap) Len() int           { return len(h) }
func (h resultHeap) Less(i, j int) bool { return resultLess(h[j], h[i]) }
func (h resultHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *resultHeap) Push(x any) {
	*h = append(*h, x.(Result)) //nolint:errcheck // heap.Interface requires any; we only push Result
}

func (h *resultHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[0 : n-1]
	return x
}

func (h *resultHeap) toSlice() []Result {
	result := make([]Result, len(*h))
	copy(result, *h)
	return result
}

// StreamingMatcher provides incremental results as the user types.
// Starting a new search cancels the previous one.
type StreamingMatcher struct {
	matcher   *AsyncMatcher
	cancel    context.CancelFunc
	mu        sync.Mutex
	lastQuery string
}

// NewStreamingMatcher creates a streaming matcher backed by an AsyncMatcher
// with numWorkers workers (0 means runtime.NumCPU()).
// Panics if matcher is nil.
func NewStreamingMatcher(matcher *Matcher, numWorkers int) *StreamingMatcher {
	if matcher == nil {
		panic("fuzzy: NewStreamingMatcher called with nil matcher")
	}
	return &StreamingMatcher{
		matcher: NewAsyncMatcher(matcher, numWorkers),
	}
}

// Search starts a new search, canceling any previous search.
// Uses context.Background() internally; use SearchWithContext for custom context.
func (m *StreamingMatcher) Search(query string, items []Item, limit int) (<-chan Result, error) {
	return m.SearchWithContext(context.Background(), query, items, limit)
}

// SearchWithContext starts a new search with a custom context.
// The provided context is used in addition to internal cancellation.
func (m *StreamingMatcher) SearchWithContext(ctx context.Context, query string, items []Item, limit int) (<-chan Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	m.lastQuery = query

	results, cancel, err := m.matcher.MatchAsync(ctx, query, items, limit)
	if err != nil {
		return nil, err
	}
	m.cancel = cancel
	return results, nil
}

// Cancel stops the current search.
func (m *StreamingMatcher) Cancel() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
}

// LastQuery returns the most recent query string.
func (m *StreamingMatcher) LastQuery() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastQuery
}
