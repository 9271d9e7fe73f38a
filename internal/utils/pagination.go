package utils

import (
	"math"
	"strconv"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100

	// Listing endpoints without an explicit page_size return one big page;
	// dashboards use this for lead and call tables they filter client-side.
	allRecordsPageSize = 1000
)

// PaginationParams carries the page selection for list endpoints
type PaginationParams struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

// PaginationResponse is the pagination block returned next to list results
type PaginationResponse struct {
	Total       int  `json:"total"`
	Page        int  `json:"page"`
	PageSize    int  `json:"page_size"`
	TotalPages  int  `json:"total_pages"`
	HasNext     bool `json:"has_next"`
	HasPrevious bool `json:"has_previous"`
}

// ValidateAndNormalizePagination clamps page to at least 1 and pageSize to
// the 1..100 range, falling back to the default size
func ValidateAndNormalizePagination(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	switch {
	case pageSize < 1:
		pageSize = defaultPageSize
	case pageSize > maxPageSize:
		pageSize = maxPageSize
	}
	return page, pageSize
}

// CalculatePaginationInfo builds the response block for a listing. An empty
// result still reports one page so clients never divide by zero.
func CalculatePaginationInfo(total, page, pageSize int) PaginationResponse {
	totalPages := int(math.Ceil(float64(total) / float64(pageSize)))
	if totalPages < 1 {
		totalPages = 1
	}

	return PaginationResponse{
		Total:       total,
		Page:        page,
		PageSize:    pageSize,
		TotalPages:  totalPages,
		HasNext:     page < totalPages,
		HasPrevious: page > 1,
	}
}

// CalculateOffset converts a page selection into a query offset
func CalculateOffset(page, pageSize int) int {
	return (page - 1) * pageSize
}

// ParsePaginationFromQuery reads page and page_size query parameters.
// Invalid or out-of-range values fall back to the defaults; a missing
// page_size means the caller wants everything in one page.
func ParsePaginationFromQuery(pageStr, pageSizeStr string) (int, int) {
	page := 1
	if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
		page = p
	}

	if pageSizeStr == "" {
		return page, allRecordsPageSize
	}

	pageSize := defaultPageSize
	if ps, err := strconv.Atoi(pageSizeStr); err == nil && ps > 0 && ps <= maxPageSize {
		pageSize = ps
	}
	return page, pageSize
}
