package utils

import "strconv"

// DefaultPerPage is used when no page size is configured.
const DefaultPerPage = 10

// Pagination describes the window of a list page.
type Pagination struct {
	TotalRecords int64
	TotalPages   int
	CurrentPage  int
	PerPage      int
	Offset       int
	HasPrevious  bool
	HasNext      bool
}

// Paginate clamps page into [1, TotalPages] and computes the offset.
// There is always at least one page, even for an empty result.
func Paginate(total int64, page, perPage int) Pagination {
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	if total < 0 {
		total = 0
	}

	totalPages := int((total + int64(perPage) - 1) / int64(perPage))
	if totalPages < 1 {
		totalPages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}

	return Pagination{
		TotalRecords: total,
		TotalPages:   totalPages,
		CurrentPage:  page,
		PerPage:      perPage,
		Offset:       (page - 1) * perPage,
		HasPrevious:  page > 1,
		HasNext:      page < totalPages,
	}
}

// Previous is the page before the current one.
func (p Pagination) Previous() int {
	if p.HasPrevious {
		return p.CurrentPage - 1
	}
	return p.CurrentPage
}

// Next is the page after the current one.
func (p Pagination) Next() int {
	if p.HasNext {
		return p.CurrentPage + 1
	}
	return p.CurrentPage
}

// Pages lists every page number, for the pager links.
func (p Pagination) Pages() []int {
	pages := make([]int, p.TotalPages)
	for i := range pages {
		pages[i] = i + 1
	}
	return pages
}

// ParsePage reads the page query parameter; invalid input means page 1.
func ParsePage(s string) int {
	page, err := strconv.Atoi(s)
	if err != nil || page < 1 {
		return 1
	}
	return page
}
