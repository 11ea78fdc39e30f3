package blog

// Page describes one page of a paginated listing.
type Page struct {
	Number      int   `json:"page"`
	PerPage     int   `json:"page_size"`
	Total       int64 `json:"total"`
	TotalPages  int   `json:"total_pages"`
	HasNext     bool  `json:"has_next"`
	HasPrevious bool  `json:"has_previous"`
}

// NewPage clamps requested into [1, last page]. An empty listing still has one page.
func NewPage(requested int, total int64, perPage int) Page {
	if perPage <= 0 {
		perPage = 10
	}
	pages := int((total + int64(perPage) - 1) / int64(perPage))
	if pages < 1 {
		pages = 1
	}
	n := requested
	if n < 1 {
		n = 1
	}
	if n > pages {
		n = pages
	}
	return Page{
		Number:      n,
		PerPage:     perPage,
		Total:       total,
		TotalPages:  pages,
		HasNext:     n < pages,
		HasPrevious: n > 1,
	}
}

// Offset is the number of rows preceding this page.
func (p Page) Offset() int {
	return (p.Number - 1) * p.PerPage
}
