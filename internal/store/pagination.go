package store

// PaginationParams contains page-based pagination request parameters.
type PaginationParams struct {
	Page int // 1-based page number (defaults to 1)
	Size int // Items per page (defaults to 20 with a maximum of 100)
}

// PaginatedResult contains one page of data and paging metadata.
type PaginatedResult[T any] struct {
	Items   []T  `json:"items"`
	Total   int  `json:"total"`
	Page    int  `json:"page"`
	Size    int  `json:"size"`
	HasMore bool `json:"has_more"`
}

// DefaultPaginationParams returns sensible defaults.
func DefaultPaginationParams() PaginationParams {
	return PaginationParams{
		Page: 1,
		Size: 20,
	}
}

// Validate checks and corrects pagination parameters.
func (p *PaginationParams) Validate() {
	if p.Page <= 0 {
		p.Page = 1
	}

	if p.Size <= 0 {
		p.Size = 20
	}

	if p.Size > 100 {
		p.Size = 100
	}
}

// Paginate slices items into the requested page.
// Pages past the end return an empty (not nil) item slice.
func Paginate[T any](items []T, params PaginationParams) PaginatedResult[T] {
	params.Validate()

	total := len(items)
	start := (params.Page - 1) * params.Size
	if start > total {
		start = total
	}
	end := start + params.Size
	if end > total {
		end = total
	}

	page := make([]T, end-start)
	copy(page, items[start:end])

	return PaginatedResult[T]{
		Items:   page,
		Total:   total,
		Page:    params.Page,
		Size:    params.Size,
		HasMore: end < total,
	}
}
