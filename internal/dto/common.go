package dto

import "time"

const isoLayout = time.RFC3339

// PaginationMeta captures pagination metadata for list responses.
type PaginationMeta struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalItems int64 `json:"total_items"`
	TotalPages int   `json:"total_pages"`
}

// ParseTimestamp parses an RFC3339 timestamp as accepted by request payloads.
func ParseTimestamp(value string) (time.Time, error) {
	return time.Parse(isoLayout, value)
}
