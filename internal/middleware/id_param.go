package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"
	apierrors "github.com/yukikurage/task-assignment-api/internal/errors"
)

const contextKeyID = "path_id"

// RequireIDParam parses the :id path parameter and aborts with 404 when it is not
// a positive integer.
func RequireIDParam() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil || id == 0 {
			apierrors.NotFound(c, "")
			return
		}
		c.Set(contextKeyID, id)
		c.Next()
	}
}

// IDParam returns the id parsed by RequireIDParam
func IDParam(c *gin.Context) uint64 {
	return c.GetUint64(contextKeyID)
}
