package requests

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"genai-studio/chat-api/internal/domain/query"
)

// PaginationFromQuery reads page/page_size query parameters with clamping.
func PaginationFromQuery(c *gin.Context) *query.Pagination {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", strconv.Itoa(query.DefaultPageSize)))
	return query.NewPagination(page, pageSize)
}
