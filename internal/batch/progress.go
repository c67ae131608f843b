package batch

import (
	"sync"
	"time"
)

// percentMultiplier is used to convert a ratio to percentage (0-100).
const percentMultiplier = 100

// Progress tracks how far a chunked run has got. It is safe for concurrent reads
// while the processor updates it.
type Progress struct {
	TotalItems     int
	ProcessedItems int
	FailedItems    int
	TotalChunks    int
	DoneChunks     int
	FailedChunks   int
	ChunkSize      int
	StartTime      time.Time
	LastUpdateTime time.Time

	mu sync.RWMutex
}

// NewProgress creates a new progress tracker.
func NewProgress(totalItems, totalChunks, chunkSize int) *Progress {
	now := time.Now()
	return &Progress{
		TotalItems:     totalItems,
		TotalChunks:    totalChunks,
		ChunkSize:      chunkSize,
		StartTime:      now,
		LastUpdateTime: now,
	}
}

// AddProcessed records a chunk of n items that succeeded.
func (p *Progress) AddProcessed(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.ProcessedItems += n
	p.DoneChunks++
	p.LastUpdateTime = time.Now()
}

// AddFailed records a chunk of n items that failed.
func (p *Progress) AddFailed(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.FailedItems += n
	p.FailedChunks++
	p.DoneChunks++
	p.LastUpdateTime = time.Now()
}

// Snapshot returns an immutable copy of the current state.
func (p *Progress) Snapshot() ProgressSnapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return ProgressSnapshot{
		TotalItems:      p.TotalItems,
		ProcessedItems:  p.ProcessedItems,
		FailedItems:     p.FailedItems,
		TotalChunks:     p.TotalChunks,
		DoneChunks:      p.DoneChunks,
		FailedChunks:    p.FailedChunks,
		ChunkSize:       p.ChunkSize,
		PercentComplete: p.percentCompleteUnsafe(),
		ElapsedTime:     time.Since(p.StartTime),
	}
}

// ProgressSnapshot is an immutable snapshot of progress state.
type ProgressSnapshot struct {
	TotalItems      int
	ProcessedItems  int
	FailedItems     int
	TotalChunks     int
	DoneChunks      int
	FailedChunks    int
	ChunkSize       int
	PercentComplete float64
	ElapsedTime     time.Duration
}

// percentCompleteUnsafe must be called with the lock held.
func (p *Progress) percentCompleteUnsafe() float64 {
	if p.TotalItems == 0 {
		return 0
	}
	attempted := p.ProcessedItems + p.FailedItems
	return (float64(attempted) / float64(p.TotalItems)) * percentMultiplier
}
