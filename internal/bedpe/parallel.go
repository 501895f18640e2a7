package bedpe

import (
	"fmt"
	"runtime"
	"sync"
)

// WorkItem holds one raw row waiting to be normalized.
type WorkItem struct {
	Seq    int
	Line   int
	Fields []string
}

// WorkResult holds the normalized record, or the error, for one row.
type WorkResult struct {
	Seq    int
	Line   int
	Record *Record
	Err    error
}

// ParallelNormalize normalizes work items using a pool of workers.
// Results are sent to the returned channel in arrival order (not sequence order).
// Use OrderedCollect to consume results in sequence-number order.
// If workers is 0, runtime.NumCPU() is used.
func (n *Normalizer) ParallelNormalize(items <-chan WorkItem, workers int) <-chan WorkResult {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	results := make(chan WorkResult, 2*workers)

	var wg sync.WaitGroup
	wg.Add(workers)

	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for item := range items {
				rec, err := n.Normalize(item.Fields)
				if err != nil {
					err = &ParseError{Line: item.Line, Err: err}
				}
				results <- WorkResult{
					Seq:    item.Seq,
					Line:   item.Line,
					Record: rec,
					Err:    err,
				}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	return results
}

// OrderedCollect calls fn for each result in sequence-number order, holding
// back results that arrive ahead of their turn. After fn returns an error no
// further results are passed to fn; the channel is still drained so workers
// can exit, and the error is returned once it closes.
func OrderedCollect(results <-chan WorkResult, fn func(WorkResult) error) error {
	return collectInOrder(results, nil, fn)
}

// collectInOrder is OrderedCollect with a hook that runs once, as soon as fn
// fails, so the producer can stop feeding work.
func collectInOrder(results <-chan WorkResult, onStop func(), fn func(WorkResult) error) error {
	var (
		early  = make(map[int]WorkResult)
		next   int
		failed error
	)

	for res := range results {
		if failed != nil {
			continue
		}
		early[res.Seq] = res

		for failed == nil {
			ready, ok := early[next]
			if !ok {
				break
			}
			delete(early, next)
			next++

			if err := fn(ready); err != nil {
				failed = err
				clear(early)
				if onStop != nil {
					onStop()
				}
			}
		}
	}

	return failed
}

// NormalizeAll reads every row from r, normalizes rows in parallel and calls
// fn with each result in input order. Per-row failures are passed to fn in
// WorkResult.Err; returning an error from fn stops reading and the error is
// returned.
func (n *Normalizer) NormalizeAll(r *Reader, workers int, fn func(WorkResult) error) error {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	items := make(chan WorkItem, 2*workers)
	done := make(chan struct{})
	var readErr error

	go func() {
		defer close(items)
		for seq := 0; ; seq++ {
			select {
			case <-done:
				return
			default:
			}

			fields, line, err := r.NextFields()
			if err != nil {
				readErr = fmt.Errorf("read row: %w", err)
				return
			}
			if fields == nil {
				return
			}

			select {
			case items <- WorkItem{Seq: seq, Line: line, Fields: fields}:
			case <-done:
				return
			}
		}
	}()

	stop := func() { close(done) }
	if err := collectInOrder(n.ParallelNormalize(items, workers), stop, fn); err != nil {
		return err
	}
	return readErr
}
