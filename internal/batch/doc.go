// Package batch splits a slice into consecutive fixed-size chunks and hands each
// chunk to a callback, one at a time.
//
// Chunks partition the input: every item lands in exactly one chunk, in order,
// and only the last chunk may be shorter than the chunk size. Two drivers are
// provided
// by ProcessAll, which attempts every chunk and returns a Report with the outcome
// of each. It honors context cancellation between chunks and reports progress
// through an optional ProgressCallback.
package batch
