package dataset

// Page is the paginated envelope returned by GET /api/datasets.
// Only Content is required; the metadata fields follow the Spring Data page shape.
type Page struct {
	Content       []Row `json:"content"`
	TotalPages    int   `json:"totalPages"`
	TotalElements int64 `json:"totalElements"`
	Number        int   `json:"number"`
	Size          int   `json:"size"`
	First         bool  `json:"first"`
	Last          bool  `json:"last"`
}

// PageRequest selects a page of datasets. Page is 0-based.
type PageRequest struct {
	Page   int
	Size   int
	Search string
}

// Pagination is the client's view of where it is in the result set.
type Pagination struct {
	Page       int `json:"page"       yaml:"page"`
	Size       int `json:"size"       yaml:"size"`
	TotalPages int `json:"totalPages" yaml:"totalPages"`
}

// HasNext reports whether a page after the current one exists.
func (p Pagination) HasNext() bool {
	return p.Page+1 < p.TotalPages
}

// HasPrevious reports whether a page before the current one exists.
func (p Pagination) HasPrevious() bool {
	return p.Page > 0
}
