package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// envelope is the wire shape shared by every JSON endpoint of the watcher
// API. Status is "ok" or "error"; Error carries the operator-facing message.
type envelope struct {
	Status string         `json:"status"`
	Error  string         `json:"error,omitempty"`
	Data   any            `json:"data,omitempty"`
	Meta   map[string]any `json:"meta,omitempty"`
}

func Ok(c *gin.Context, data any, meta map[string]any) {
	c.JSON(http.StatusOK, envelope{
		Status: "ok",
		Data:   data,
		Meta:   meta,
	})
}

func Error(c *gin.Context, status int, message string, meta map[string]any) {
	c.JSON(status, envelope{
		Status: "error",
		Error:  message,
		Meta:   meta,
	})
}
