package form

import (
	"fmt"

	"github.com/rshade/datasetctl/internal/dataset"
)

// Pagination returns the current page, size and the total page count reported by
// the last successful fetch.
func (c *Controller) Pagination() dataset.Pagination {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pagination
}

// Search returns the current search term.
func (c *Controller) Search() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.search
}

// SetSearch changes the search term and goes back to the first page.
func (c *Controller) SetSearch(term string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.search = term
	c.pagination.Page = 0
}

// SetPage selects the page the next fetch will load.
func (c *Controller) SetPage(page int) error {
	if page < 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidPage, page)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pagination.Page = page
	return nil
}

// SetPageSize changes the page size and goes back to the first page.
func (c *Controller) SetPageSize(size int) error {
	if size < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidPageSize, size)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pagination.Size = size
	c.pagination.Page = 0
	return nil
}

// NextPage advances to the next page when the last fetch reported one.
func (c *Controller) NextPage() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.pagination.HasNext() {
		return false
	}
	c.pagination.Page++
	return true
}

// PrevPage goes back one page unless already on the first.
func (c *Controller) PrevPage() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.pagination.HasPrevious() {
		return false
	}
	c.pagination.Page--
	return true
}
