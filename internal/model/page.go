package model

// Page carries the pagination envelope every list response includes.
type Page struct {
	Total  int `json:"total" yaml:"total"`
	Limit  int `json:"limit" yaml:"limit"`
	Offset int `json:"offset" yaml:"offset"`
}

// HasMore reports whether items exist past this page.
func (p Page) HasMore() bool {
	return p.Offset+p.Limit < p.Total
}

// PageParams are the limit/offset query parameters of a list request.
type PageParams struct {
	Limit  int
	Offset int
}

// DefaultPageSize is used when a caller leaves Limit unset.
const DefaultPageSize = 50

// WithDefaults fills an unset limit and clamps a negative offset.
func (p PageParams) WithDefaults() PageParams {
	if p.Limit <= 0 {
		p.Limit = DefaultPageSize
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}
