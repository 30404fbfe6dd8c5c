// Package fileproc provides bounded concurrent processing of work items with
// results delivered in submission order.
package fileproc

import (
	"context"
	"fmt"
	"sync"

	"github.com/sourcegraph/conc/pool"
	"github.com/sourcegraph/conc/stream"
)

// ProcessingError represents an error that occurred while processing a file.
type ProcessingError struct {
	Path string
	Err  error
}

func (e ProcessingError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e ProcessingError) Unwrap() error {
	return e.Err
}

// ProcessingErrors collects multiple file processing errors.
type ProcessingErrors struct {
	Errors []ProcessingError
	mu     sync.Mutex
}

// Add appends an error to the collection (thread-safe).
func (e *ProcessingErrors) Add(path string, err error) {
	e.mu.Lock()
	e.Errors = append(e.Errors, ProcessingError{Path: path, Err: err})
	e.mu.Unlock()
}

// HasErrors returns true if any errors were collected.
func (e *ProcessingErrors) HasErrors() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.Errors) > 0
}

// Error implements the error interface.
func (e *ProcessingErrors) Error() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.Errors) == 0 {
		return "no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("%d files failed to process (first: %v)", len(e.Errors), e.Errors[0])
}

// ProgressFunc is called after each item is processed.
type ProgressFunc func()

// Workers clamps a requested worker count to at least one.
func Workers(n int) int {
	return max(1, n)
}

// Stream runs fn for every item on at most Workers(workers) goroutines.
// emit receives each item's index and result in submission order and is
// never called concurrently, so it may append to unsynchronized state.
// Scheduling stops once ctx is done; Stream then waits for running items
// and returns ctx.Err().
func Stream[In, Out any](
	ctx context.Context,
	items []In,
	workers int,
	fn func(context.Context, In) Out,
	emit func(int, Out),
	onProgress ProgressFunc,
) error {
	if len(items) == 0 {
		return ctx.Err()
	}

	s := stream.New().WithMaxGoroutines(Workers(workers))
	for i, item := range items {
		if ctx.Err() != nil {
			break
		}
		s.Go(func() stream.Callback {
			out := fn(ctx, item)
			return func() {
				emit(i, out)
				if onProgress != nil {
					onProgress()
				}
			}
		})
	}
	s.Wait()

	return ctx.Err()
}

// ForEachFile calls fn for every path on at most Workers(workers)
// goroutines and collects failures. Results are unordered.
func ForEachFile(ctx context.Context, files []string, workers int, fn func(context.Context, string) error) *ProcessingErrors {
	errs := &ProcessingErrors{}
	if len(files) == 0 {
		return nil
	}

	p := pool.New().WithMaxGoroutines(Workers(workers)).WithContext(ctx)
	for _, path := range files {
		p.Go(func(ctx context.Context) error {
			select {
			case <-ctx.Done():
				errs.Add(path, ctx.Err())
				return ctx.Err()
			default:
			}
			if err := fn(ctx, path); err != nil {
				errs.Add(path, err)
			}
			return nil
		})
	}
	_ = p.Wait()

	if !errs.HasErrors() {
		return nil
	}
	return errs
}
