package utils

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// APIResponse is the envelope returned by every /api endpoint.
type APIResponse struct {
	Success   bool        `json:"success"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data"`
	Timestamp string      `json:"timestamp"`
}

func JSONSuccess(c *gin.Context, code int, message string, data interface{}) {
	c.JSON(code, APIResponse{
		Success:   true,
		Message:   message,
		Data:      data,
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

func JSONError(c *gin.Context, code int, message string) {
	c.JSON(code, APIResponse{
		Success:   false,
		Message:   message,
		Data:      nil,
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

// WantsJSON reports whether the caller is a fetch()/XHR client rather than a
// plain HTML form post.
func WantsJSON(c *gin.Context) bool {
	if strings.HasPrefix(c.Request.URL.Path, "/api/") || c.GetHeader("X-Requested-With") == "XMLHttpRequest" {
		return true
	}
	return c.ContentType() == gin.MIMEJSON || c.NegotiateFormat(gin.MIMEHTML, gin.MIMEJSON) == gin.MIMEJSON
}
