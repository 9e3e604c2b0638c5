package pagination

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

const (
	DefaultPerPage = 15
	MaxPerPage     = 100
)

// Params holds 1-indexed pagination parameters extracted from a request.
type Params struct {
	Page    int
	PerPage int
}

// FromContext extracts page/per_page from the echo context, clamping to the
// defaults when absent or out of range.
func FromContext(c echo.Context) Params {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}

	perPage, _ := strconv.Atoi(c.QueryParam("per_page"))
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}

	return Params{Page: page, PerPage: perPage}
}

// Offset returns the SQL offset for the current page.
func (p Params) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// Pages returns the total number of pages for the given row count.
func (p Params) Pages(total int) int {
	if total <= 0 {
		return 0
	}
	pages := total / p.PerPage
	if total%p.PerPage != 0 {
		pages++
	}
	return pages
}

// HasNext reports whether there are rows past the current page.
func (p Params) HasNext(total int) bool {
	return p.Page*p.PerPage < total
}
