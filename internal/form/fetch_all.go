package form

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/rshade/datasetctl/internal/dataset"
)

// DefaultFetchConcurrency bounds the page requests FetchAll keeps in flight.
const DefaultFetchConcurrency = 4

// FetchAll reads every page matching search and returns the rows in page order.
// The first page is fetched alone to learn the page count; the rest are fetched
// concurrently, at most concurrency at a time. Any failed page fails the whole call.
func FetchAll(ctx context.Context, api API, size int, search string, concurrency int) ([]dataset.Row, error) {
	if size < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidPageSize, size)
	}
	if concurrency < 1 {
		concurrency = DefaultFetchConcurrency
	}

	first, err := api.ListDatasets(ctx, dataset.PageRequest{Page: 0, Size: size, Search: search})
	if err != nil {
		return nil, fmt.Errorf("fetching page 0: %w", err)
	}
	if first.TotalPages <= 1 {
		return dataset.CloneRows(first.Content), nil
	}

	pages := make([][]dataset.Row, first.TotalPages)
	pages[0] = first.Content

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for n := 1; n < first.TotalPages; n++ {
		g.Go(func() error {
			page, pageErr := api.ListDatasets(gctx, dataset.PageRequest{Page: n, Size: size, Search: search})
			if pageErr != nil {
				return fmt.Errorf("fetching page %d: %w", n, pageErr)
			}
			pages[n] = page.Content
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var rows []dataset.Row
	for _, p := range pages {
		rows = append(rows, p...)
	}
	return rows, nil
}

// FetchAll reads every page using the controller's API, page size and search term.
// The form state is not modified.
func (c *Controller) FetchAll(ctx context.Context, concurrency int) ([]dataset.Row, error) {
	c.mu.Lock()
	size, search := c.pagination.Size, c.search
	c.mu.Unlock()

	reqCtx, done := c.scope(ctx)
	defer done()
	return FetchAll(reqCtx, c.api, size, search, concurrency)
}
