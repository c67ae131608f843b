// Package form holds the dataset form state and the two network operations that
// drive it: fetching a page of datasets and submitting the edited rows in chunks.
//
// The controller keeps two independent slices: a read-only snapshot of the last
// page fetched from the server, and the editable rows. A fetch replaces both; edits
// only touch the rows. Rows are addressed by position, and each also carries a
// client-side key that views can use to follow a row across removals.
//
// Fetch and submit may run concurrently. They are not serialized against each
// other; each state update is applied atomically and the last one wins.
package form

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/rshade/datasetctl/internal/batch"
	"github.com/rshade/datasetctl/internal/dataset"
)

// SuccessMessage is shown after a submit, whatever the per-chunk outcome.
const SuccessMessage = "Datasets uploaded successfully in chunks!"

// Default pagination for the initial fetch.
const (
	DefaultPage     = 0
	DefaultPageSize = 10
)

// Controller errors.
var (
	ErrRowOutOfRange   = errors.New("row index out of range")
	ErrClosed          = errors.New("form controller is closed")
	ErrInvalidPageSize = errors.New("page size must be > 0")
	ErrInvalidPage     = errors.New("page must be >= 0")
)

// API is the subset of the dataset backend the form needs.
type API interface {
	ListDatasets(ctx context.Context, req dataset.PageRequest) (*dataset.Page, error)
	CreateBatch(ctx context.Context, rows []dataset.Row) error
}

// ValidationError reports the first row that is missing a required field.
type ValidationError struct {
	Index int
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Index, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Controller owns the form state. It is safe for concurrent use.
type Controller struct {
	api        API
	logger     zerolog.Logger
	chunkSize  int
	onProgress func(batch.ProgressSnapshot)

	// life is cancelled by Close; every request is scoped to it.
	life   context.Context
	cancel context.CancelFunc

	mu         sync.Mutex
	rows       []dataset.Row
	datasets   []dataset.Row
	pagination dataset.Pagination
	search     string
	message    string
	closed     bool
}

// Option customizes a Controller.
type Option func(*Controller) error

// WithLogger sets the logger used for fetch and upload diagnostics.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Controller) error {
		c.logger = logger
		return nil
	}
}

// WithChunkSize overrides the number of rows sent per batch request.
func WithChunkSize(size int) Option {
	return func(c *Controller) error {
		if _, err := batch.NewProcessor[dataset.Row](size); err != nil {
			return err
		}
		c.chunkSize = size
		return nil
	}
}

// WithPagination sets the initial page and page size.
func WithPagination(page, size int) Option {
	return func(c *Controller) error {
		if page < 0 {
			return fmt.Errorf("%w: got %d", ErrInvalidPage, page)
		}
		if size < 1 {
			return fmt.Errorf("%w: got %d", ErrInvalidPageSize, size)
		}
		c.pagination.Page = page
		c.pagination.Size = size
		return nil
	}
}

// WithSearch sets the search term sent with list requests.
func WithSearch(term string) Option {
	return func(c *Controller) error {
		c.search = term
		return nil
	}
}

// WithProgress registers a callback invoked after every chunk of a submit.
func WithProgress(fn func(batch.ProgressSnapshot)) Option {
	return func(c *Controller) error {
		c.onProgress = fn
		return nil
	}
}

// New creates a controller holding a single blank row, as the form does before
// its first fetch.
func New(api API, opts ...Option) (*Controller, error) {
	if api == nil {
		return nil, errors.New("form: nil API")
	}

	life, cancel := context.WithCancel(context.Background())
	c := &Controller{
		api:        api,
		logger:     zerolog.Nop(),
		chunkSize:  batch.DefaultChunkSize,
		life:       life,
		cancel:     cancel,
		rows:       []dataset.Row{dataset.Blank()},
		datasets:   []dataset.Row{},
		pagination: dataset.Pagination{Page: DefaultPage, Size: DefaultPageSize},
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			cancel()
			return nil, err
		}
	}
	return c, nil
}

// Close cancels in-flight requests. Results that arrive afterwards are dropped.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.cancel()
}

// scope derives a request context that ends with either ctx or the controller.
func (c *Controller) scope(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(c.life, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

// FetchDatasets loads the current page and replaces both the dataset snapshot and
// the editable rows with its content. On failure the error is logged and returned,
// and the state is left as it was.
func (c *Controller) FetchDatasets(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	req := dataset.PageRequest{Page: c.pagination.Page, Size: c.pagination.Size, Search: c.search}
	c.mu.Unlock()

	reqCtx, done := c.scope(ctx)
	defer done()

	page, err := c.api.ListDatasets(reqCtx, req)
	if err != nil {
		c.logger.Error().
			Ctx(ctx).
			Err(err).
			Int("page", req.Page).
			Int("size", req.Size).
			Msg("error fetching datasets")
		return fmt.Errorf("fetching datasets: %w", err)
	}

	content := page.Content
	if content == nil {
		content = []dataset.Row{}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}

	c.datasets = dataset.CloneRows(content)
	c.rows = make([]dataset.Row, len(content))
	for i, r := range content {
		c.rows[i] = r.WithKey()
	}
	c.pagination.TotalPages = page.TotalPages

	c.logger.Debug().
		Ctx(ctx).
		Int("page", req.Page).
		Int("rows", len(content)).
		Int("total_pages", page.TotalPages).
		Msg("form populated from server")

	return nil
}

// HandleChange stores value in field name of the row at index.
func (c *Controller) HandleChange(index int, name, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if index < 0 || index >= len(c.rows) {
		return fmt.Errorf("%w: %d (rows: %d)", ErrRowOutOfRange, index, len(c.rows))
	}
	return c.rows[index].SetField(name, value)
}

// AddRow appends a blank row and returns its index.
func (c *Controller) AddRow() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.rows = append(c.rows, dataset.Blank())
	return len(c.rows) - 1
}

// RemoveRow removes the row at index. An index that does not exist is a no-op and
// reports false.
func (c *Controller) RemoveRow(index int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if index < 0 || index >= len(c.rows) {
		return false
	}
	rows := make([]dataset.Row, 0, len(c.rows)-1)
	rows = append(rows, c.rows[:index]...)
	rows = append(rows, c.rows[index+1:]...)
	c.rows = rows
	return true
}

// HandleChunkedSubmit validates the rows, then posts them to the batch endpoint in
// consecutive chunks, one request at a time. A failed chunk is logged and the next
// chunk is still sent. Once every chunk has been attempted the message is set to
// SuccessMessage. The returned report tells which chunks failed.
//
// The returned error is non-nil only when validation fails (nothing is sent) or the
// run is cancelled part-way.
func (c *Controller) HandleChunkedSubmit(ctx context.Context) (*batch.Report, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	rows := dataset.CloneRows(c.rows)
	c.mu.Unlock()

	for i, r := range rows {
		if err := r.Validate(); err != nil {
			return nil, &ValidationError{Index: i, Err: err}
		}
	}

	reqCtx, done := c.scope(ctx)
	defer done()

	processor, err := batch.NewProcessor[dataset.Row](c.chunkSize)
	if err != nil {
		return nil, err
	}
	if c.onProgress != nil {
		processor.WithProgressCallback(func(progress *batch.Progress) {
			c.onProgress(progress.Snapshot())
		})
	}

	report, err := processor.ProcessAll(reqCtx, rows, func(ctx context.Context, chunk []dataset.Row, index int) error {
		if uploadErr := c.api.CreateBatch(ctx, chunk); uploadErr != nil {
			c.logger.Error().
				Ctx(ctx).
				Err(uploadErr).
				Int("chunk", index).
				Int("rows", len(chunk)).
				Msg("error uploading chunk")
			return uploadErr
		}
		return nil
	})
	if err != nil {
		return report, fmt.Errorf("submitting datasets: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return report, ErrClosed
	}
	c.message = SuccessMessage

	c.logger.Info().
		Ctx(ctx).
		Int("rows", len(rows)).
		Int("chunks", len(report.Chunks)).
		Int("failed_chunks", report.Failed()).
		Msg("chunked submit finished")

	return report, nil
}

// ReplaceRows swaps the editable rows for rows. The fetched snapshot is kept.
func (c *Controller) ReplaceRows(rows []dataset.Row) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.rows = make([]dataset.Row, len(rows))
	for i, r := range rows {
		c.rows[i] = r.WithKey()
	}
}

// Rows returns a copy of the editable rows.
func (c *Controller) Rows() []dataset.Row {
	c.mu.Lock()
	defer c.mu.Unlock()
	return dataset.CloneRows(c.rows)
}

// RowCount returns the number of editable rows.
func (c *Controller) RowCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.rows)
}

// Datasets returns a copy of the last fetched page content.
func (c *Controller) Datasets() []dataset.Row {
	c.mu.Lock()
	defer c.mu.Unlock()
	return dataset.CloneRows(c.datasets)
}

// Message returns the message set by the last submit.
func (c *Controller) Message() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.message
}

// ChunkSize returns the number of rows sent per batch request.
func (c *Controller) ChunkSize() int {
	return c.chunkSize
}

// ClearMessage removes the message.
func (c *Controller) ClearMessage() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.message = ""
}

// Dirty reports whether the editable rows differ from the fetched snapshot.
func (c *Controller) Dirty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.rows) != len(c.datasets) {
		return true
	}
	for i := range c.rows {
		if !c.rows[i].Equal(c.datasets[i]) {
			return true
		}
	}
	return false
}

// Reset discards edits and restores the rows from the fetched snapshot.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.rows = make([]dataset.Row, len(c.datasets))
	for i, r := range c.datasets {
		c.rows[i] = r.WithKey()
	}
}
