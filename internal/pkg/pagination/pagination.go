package pagination

import (
	"strconv"

	"github.com/askspace/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const (
	DefaultPage    = 1
	DefaultPerPage = 10
	MinPerPage     = 5
	MaxPerPage     = 100
)

// Query holds parsed pagination parameters.
type Query struct {
	Page    int
	PerPage int
}

// FromContext extracts and clamps pagination params from the request.
// per_page is bounded to [5, 100] with a default of 10.
func FromContext(c *gin.Context) Query {
	page := parseIntOr(c.DefaultQuery("page", "1"), DefaultPage)
	perPage := parseIntOr(c.DefaultQuery("per_page", "10"), DefaultPerPage)

	if page < 1 {
		page = 1
	}
	if perPage < MinPerPage {
		perPage = MinPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}

	return Query{Page: page, PerPage: perPage}
}

// Paginate applies limit/offset to a GORM query and returns the pagination metadata.
func Paginate[T any](db *gorm.DB, q Query, dest *[]T) (response.Pagination, error) {
	var total int64
	if err := db.Count(&total).Error; err != nil {
		return response.Pagination{}, err
	}

	offset := (q.Page - 1) * q.PerPage
	if err := db.Offset(offset).Limit(q.PerPage).Find(dest).Error; err != nil {
		return response.Pagination{}, err
	}

	totalPage := int((total + int64(q.PerPage) - 1) / int64(q.PerPage))

	return response.Pagination{
		Total:       total,
		CurrentPage: q.Page,
		TotalPage:   totalPage,
		PerPage:     q.PerPage,
		HasNextPage: q.Page < totalPage,
	}, nil
}

func parseIntOr(s string, def int) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}
