package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response is the JSON envelope for every API reply.
type Response struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func respond(c *gin.Context, httpStatus int, status, message string, data any) {
	c.JSON(httpStatus, Response{Status: status, Message: message, Data: data})
}

func respondSuccess(c *gin.Context, data any) {
	respond(c, http.StatusOK, "success", "", data)
}

func respondError(c *gin.Context, httpStatus int, message string) {
	respond(c, httpStatus, "error", message, nil)
}
