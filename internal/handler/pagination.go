package handler

import "strconv"

// Pagination describes the page of a listing that was returned.
type Pagination struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"totalPages"`
}

// NewPagination builds the block for a page of limit rows out of total.
func NewPagination(total int64, page, limit int) Pagination {
	if limit <= 0 {
		limit = 1
	}
	return Pagination{
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: int((total + int64(limit) - 1) / int64(limit)),
	}
}

// queryInt parses an integer query value, falling back to def when it is
// missing or malformed.
func queryInt(raw string, def int) int {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}
