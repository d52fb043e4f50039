package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPaginate(t *testing.T) {
	tests := []struct {
		name     string
		total    int64
		page     int
		perPage  int
		expected Pagination
	}{
		{
			name:    "first page",
			total:   23,
			page:    1,
			perPage: 10,
			expected: Pagination{
				TotalRecords: 23, TotalPages: 3, CurrentPage: 1, PerPage: 10,
				Offset: 0, HasPrevious: false, HasNext: true,
			},
		},
		{
			name:    "page beyond the end is clamped",
			total:   23,
			page:    5,
			perPage: 10,
			expected: Pagination{
				TotalRecords: 23, TotalPages: 3, CurrentPage: 3, PerPage: 10,
				Offset: 20, HasPrevious: true, HasNext: false,
			},
		},
		{
			name:    "empty result still has one page",
			total:   0,
			page:    4,
			perPage: 10,
			expected: Pagination{
				TotalRecords: 0, TotalPages: 1, CurrentPage: 1, PerPage: 10,
				Offset: 0, HasPrevious: false, HasNext: false,
			},
		},
		{
			name:    "non-positive page",
			total:   15,
			page:    -2,
			perPage: 5,
			expected: Pagination{
				TotalRecords: 15, TotalPages: 3, CurrentPage: 1, PerPage: 5,
				Offset: 0, HasPrevious: false, HasNext: true,
			},
		},
		{
			name:    "zero page size falls back to default",
			total:   11,
			page:    2,
			perPage: 0,
			expected: Pagination{
				TotalRecords: 11, TotalPages: 2, CurrentPage: 2, PerPage: DefaultPerPage,
				Offset: 10, HasPrevious: true, HasNext: false,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Paginate(tt.total, tt.page, tt.perPage))
		})
	}
}

func TestPaginationLinks(t *testing.T) {
	p := Paginate(23, 2, 10)
	assert.Equal(t, 1, p.Previous())
	assert.Equal(t, 3, p.Next())
	assert.Equal(t, []int{1, 2, 3}, p.Pages())

	last := Paginate(23, 3, 10)
	assert.Equal(t, 3, last.Next())
}

func TestParsePage(t *testing.T) {
	assert.Equal(t, 1, ParsePage(""))
	assert.Equal(t, 1, ParsePage("abc"))
	assert.Equal(t, 1, ParsePage("0"))
	assert.Equal(t, 7, ParsePage("7"))
}
