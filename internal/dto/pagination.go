package dto

// PaginationMeta describes one page of a list plus the page numbers to offer around it.
type PaginationMeta struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalItems int64 `json:"total_items"`
	TotalPages int   `json:"total_pages"`
	Pages      []int `json:"pages"`
}
