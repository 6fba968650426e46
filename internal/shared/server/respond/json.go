package respond

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// MessageResponse is the body of operations that only report an outcome.
type MessageResponse struct {
	Message string `json:"message"`
}

// JSON writes a JSON response with the given status.
func JSON(c *gin.Context, status int, payload interface{}) {
	c.JSON(status, payload)
}

// OK writes a 200 OK JSON response.
func OK(c *gin.Context, payload interface{}) {
	JSON(c, http.StatusOK, payload)
}

// Message writes a 200 OK response carrying a human-readable message.
func Message(c *gin.Context, message string) {
	JSON(c, http.StatusOK, MessageResponse{Message: message})
}
