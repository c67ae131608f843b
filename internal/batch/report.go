package batch

import (
	"errors"
	"fmt"
)

// ChunkResult is the outcome of one chunk. Start and End are the [start, end)
// item indices the chunk covered.
type ChunkResult struct {
	Index int
	Start int
	End   int
	Err   error
}

// Size returns the number of items in the chunk.
func (c ChunkResult) Size() int {
	return c.End - c.Start
}

// OK reports whether the chunk succeeded.
func (c ChunkResult) OK() bool {
	return c.Err == nil
}

// Report aggregates the outcome of a ProcessAll run.
type Report struct {
	TotalItems int
	Chunks     []ChunkResult
}

// Succeeded returns the number of chunks that succeeded.
func (r *Report) Succeeded() int {
	n := 0
	for _, c := range r.Chunks {
		if c.OK() {
			n++
		}
	}
	return n
}

// Failed returns the number of chunks that failed.
func (r *Report) Failed() int {
	return len(r.Chunks) - r.Succeeded()
}

// FailedIndices returns the indices of failed chunks in order.
func (r *Report) FailedIndices() []int {
	var out []int
	for _, c := range r.Chunks {
		if !c.OK() {
			out = append(out, c.Index)
		}
	}
	return out
}

// ItemsSent returns the number of items in chunks that succeeded.
func (r *Report) ItemsSent() int {
	n := 0
	for _, c := range r.Chunks {
		if c.OK() {
			n += c.Size()
		}
	}
	return n
}

// Err joins every chunk error, each prefixed with its chunk index.
// It returns nil when all chunks succeeded.
func (r *Report) Err() error {
	var errs []error
	for _, c := range r.Chunks {
		if !c.OK() {
			errs = append(errs, fmt.Errorf("chunk %d failed: %w", c.Index, c.Err))
		}
	}
	return errors.Join(errs...)
}
