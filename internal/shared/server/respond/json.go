package respond

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
)

// JSON writes a JSON response with the given status.
func JSON(c *gin.Context, status int, payload interface{}) {
	c.JSON(status, payload)
}

// OK writes a 200 OK JSON response.
func OK(c *gin.Context, payload interface{}) {
	JSON(c, http.StatusOK, payload)
}

// Attachment writes body as a file download.
func Attachment(c *gin.Context, fileName, contentType string, body []byte) {
	c.Header("Content-Disposition", disposition(fileName))
	c.Data(http.StatusOK, contentType, body)
}

// StreamAttachment copies r to the client as a file download.
func StreamAttachment(c *gin.Context, fileName, contentType string, r io.Reader) error {
	c.Header("Content-Disposition", disposition(fileName))
	c.Header("Content-Type", contentType)
	c.Status(http.StatusOK)
	_, err := io.Copy(c.Writer, r)
	return err
}

func disposition(fileName string) string {
	return fmt.Sprintf("attachment; filename=%q", fileName)
}
