package application

// PageMeta describes one page of a listing.
type PageMeta struct {
	Results    int `json:"results"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
	Page       int `json:"currentPage"`
}

func NewPageMeta(results, total, page, limit int) PageMeta {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 10
	}
	pages := total / limit
	if total%limit != 0 {
		pages++
	}
	return PageMeta{Results: results, Total: total, TotalPages: pages, Page: page}
}
