package respond

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// IDParam returns the :id path parameter. Ids that are not UUIDs cannot
// exist, so they are answered with 404 and ok is false.
func IDParam(c *gin.Context, resource string) (string, bool) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		Error(c, http.StatusNotFound, "not_found", resource+" not found", nil)
		return "", false
	}
	return id, true
}
