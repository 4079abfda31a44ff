package pagination

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100
	MinLimit     = 1
)

// Params holds validated pagination parameters
type Params struct {
	Page   int
	Limit  int
	Offset int
}

// Parse reads page and limit (or its alias page_size) from the query string,
// clamping them to sane bounds.
func Parse(c *gin.Context) Params {
	page := queryInt(c, DefaultPage, "page")
	limit := queryInt(c, DefaultLimit, "limit", "page_size")

	if page < 1 {
		page = DefaultPage
	}
	if limit < MinLimit {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	return Params{
		Page:   page,
		Limit:  limit,
		Offset: (page - 1) * limit,
	}
}

// queryInt returns the first parseable value among keys, or fallback.
func queryInt(c *gin.Context, fallback int, keys ...string) int {
	for _, key := range keys {
		raw, ok := c.GetQuery(key)
		if !ok {
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			return fallback
		}
		return v
	}
	return fallback
}
