package utils

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/yukikurage/task-assignment-api/internal/constants"
)

func paginationContext(query string) *gin.Context {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/api/tasks?"+query, nil)
	return c
}

func TestGetPaginationParams(t *testing.T) {
	params, requested := GetPaginationParams(paginationContext(""))
	assert.False(t, requested)
	assert.Equal(t, PaginationParams{Page: 1, Limit: constants.DefaultPageSize, Offset: 0}, params)

	params, requested = GetPaginationParams(paginationContext("page=3&limit=10"))
	assert.True(t, requested)
	assert.Equal(t, PaginationParams{Page: 3, Limit: 10, Offset: 20}, params)

	params, _ = GetPaginationParams(paginationContext("page=-1&limit=1000"))
	assert.Equal(t, PaginationParams{Page: 1, Limit: constants.DefaultPageSize, Offset: 0}, params)
}
