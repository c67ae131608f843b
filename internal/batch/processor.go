package batch

import (
	"context"
	"errors"
	"fmt"
)

// Chunking limits.
const (
	// DefaultChunkSize is the number of items sent per chunk.
	DefaultChunkSize = 1000

	// MinChunkSize is the minimum allowed chunk size.
	MinChunkSize = 1

	// MaxChunkSize is the maximum allowed chunk size.
	MaxChunkSize = 1000
)

// Common processing errors.
var (
	ErrInvalidChunkSize = errors.New("chunk size must be between 1 and 1000")
	ErrNilCallback      = errors.New("chunk callback cannot be nil")
)

// ChunkFunc handles a single chunk. index is the 0-based chunk number.
type ChunkFunc[T any] func(ctx context.Context, chunk []T, index int) error

// ProgressCallback is invoked after each chunk has been attempted.
type ProgressCallback func(progress *Progress)

// Processor splits items into chunks and feeds them to a ChunkFunc sequentially.
type Processor[T any] struct {
	chunkSize  int
	onProgress ProgressCallback
}

// NewProcessor creates a processor with the given chunk size.
func NewProcessor[T any](chunkSize int) (*Processor[T], error) {
	if chunkSize < MinChunkSize || chunkSize > MaxChunkSize {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidChunkSize, chunkSize)
	}
	return &Processor[T]{chunkSize: chunkSize}, nil
}

// WithProgressCallback sets a progress callback for the processor.
func (p *Processor[T]) WithProgressCallback(callback ProgressCallback) *Processor[T] {
	p.onProgress = callback
	return p
}

// ChunkSize returns the configured chunk size.
func (p *Processor[T]) ChunkSize() int {
	return p.chunkSize
}

// ProcessAll attempts every chunk regardless of earlier failures and returns the
// per-chunk outcome. The returned error is non-nil only for a nil callback or a
// cancelled context; chunk failures are recorded on the Report.
func (p *Processor[T]) ProcessAll(ctx context.Context, items []T, callback ChunkFunc[T]) (*Report, error) {
	if callback == nil {
		return nil, ErrNilCallback
	}

	bounds := p.Bounds(len(items))
	progress := NewProgress(len(items), len(bounds), p.chunkSize)
	report := &Report{TotalItems: len(items), Chunks: make([]ChunkResult, 0, len(bounds))}

	for index, b := range bounds {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		chunk := items[b[0]:b[1]]
		result := ChunkResult{Index: index, Start: b[0], End: b[1]}
		if err := callback(ctx, chunk, index); err != nil {
			result.Err = err
			progress.AddFailed(len(chunk))
		} else {
			progress.AddProcessed(len(chunk))
		}
		report.Chunks = append(report.Chunks, result)
		p.notify(progress)
	}

	return report, nil
}

// Bounds returns the [start, end) index pair of every chunk for totalItems items.
func (p *Processor[T]) Bounds(totalItems int) [][2]int {
	count := p.ChunkCount(totalItems)
	bounds := make([][2]int, count)

	for i := range count {
		start := i * p.chunkSize
		end := min(start+p.chunkSize, totalItems)
		bounds[i] = [2]int{start, end}
	}

	return bounds
}

// ChunkCount returns ceil(totalItems / chunkSize).
func (p *Processor[T]) ChunkCount(totalItems int) int {
	if totalItems <= 0 {
		return 0
	}
	chunks := totalItems / p.chunkSize
	if totalItems%p.chunkSize > 0 {
		chunks++
	}
	return chunks
}

func (p *Processor[T]) notify(progress *Progress) {
	if p.onProgress != nil {
		p.onProgress(progress)
	}
}
