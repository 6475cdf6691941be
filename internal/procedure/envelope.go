package procedure

// Envelope is the uniform wrapper around every successful procedure result.
type Envelope struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// Pagination reports where a page sits inside the full filtered set. Total
// counts every row matching the same filter, independent of page and limit.
type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
}

// Page is the data shape handlers return for list procedures.
type Page struct {
	Items      any        `json:"items"`
	Pagination Pagination `json:"pagination"`
}

// NewPage bundles items with their pagination block.
func NewPage(items any, page, limit int, total int64) Page {
	return Page{
		Items:      items,
		Pagination: Pagination{Page: page, Limit: limit, Total: total},
	}
}

// PageParams are the common paging inputs shared by list procedures.
type PageParams struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// Normalize clamps paging inputs to sane bounds.
func (p PageParams) Normalize() PageParams {
	if p.Page <= 0 {
		p.Page = 1
	}
	if p.Limit <= 0 {
		p.Limit = 20
	}
	if p.Limit > 100 {
		p.Limit = 100
	}
	return p
}

// Offset converts page/limit into a row offset.
func (p PageParams) Offset() int {
	return (p.Page - 1) * p.Limit
}
