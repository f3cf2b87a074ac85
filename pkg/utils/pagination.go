package utils

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// PaginationParams are the page/limit query parameters of a list request,
// clamped to sane bounds.
type PaginationParams struct {
	Page     int
	PageSize int
	Offset   int
}

// GetPaginationParams reads ?page= and ?limit= from the request. Out of
// range or missing values fall back to page 1, 20 per page.
func GetPaginationParams(c echo.Context) PaginationParams {
	params := PaginationParams{
		Page:     1,
		PageSize: defaultPageSize,
	}

	if page, err := strconv.Atoi(c.QueryParam("page")); err == nil && page > 0 {
		params.Page = page
	}
	if size, err := strconv.Atoi(c.QueryParam("limit")); err == nil && size > 0 && size <= maxPageSize {
		params.PageSize = size
	}

	params.Offset = (params.Page - 1) * params.PageSize
	return params
}
