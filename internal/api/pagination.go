package api

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/types"
)

// parsePagination reads page and limit. Missing or malformed values fall back
// to the defaults.
func parsePagination(c *gin.Context) service.Pagination {
	page, _ := strconv.Atoi(c.Query("page"))
	limit, _ := strconv.Atoi(c.Query("limit"))
	return service.Pagination{Page: page, Limit: limit}.Normalize()
}

func newPage[T any](c *gin.Context, results []T, total int64, p service.Pagination) types.Page[T] {
	p = p.Normalize()
	out := types.Page[T]{Count: total, Results: results}
	if out.Results == nil {
		out.Results = []T{}
	}
	if int64(p.Page*p.Limit) < total {
		out.Next = pageURL(c, p.Page+1)
	}
	if p.Page > 1 {
		out.Previous = pageURL(c, p.Page-1)
	}
	return out
}

// pageURL is the absolute URL of the current request with page replaced.
func pageURL(c *gin.Context, page int) *string {
	u := *c.Request.URL
	q := u.Query()
	if page == 1 {
		q.Del("page")
	} else {
		q.Set("page", strconv.Itoa(page))
	}
	u.RawQuery = q.Encode()

	u.Scheme = "http"
	if c.Request.TLS != nil || c.GetHeader("X-Forwarded-Proto") == "https" {
		u.Scheme = "https"
	}
	u.Host = c.Request.Host

	s := u.String()
	return &s
}

// parseID reads a positive integer path parameter.
func parseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
