package httpapi

import (
	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error  string `json:"error"`
	Status int    `json:"status"`
}

// respondError aborts the request with a JSON error body
func respondError(c *gin.Context, status int, message string) {
	log.Debug("request failed", "path", c.Request.URL.Path, "status", status, "error", message)
	c.AbortWithStatusJSON(status, ErrorResponse{Error: message, Status: status})
}
