package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Every endpoint answers with the same envelope so clients can branch
// on success/status without inspecting HTTP codes.
type Response struct {
	Success bool   `json:"success"`
	Status  int    `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

type PageMeta struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"total_pages"`
}

func respond(c *gin.Context, status int, message string, data any) {
	c.JSON(status, Response{
		Success: status < http.StatusBadRequest,
		Status:  status,
		Message: message,
		Data:    data,
	})
}

func respondError(c *gin.Context, status int, message string) {
	respond(c, status, message, nil)
}

func badRequest(c *gin.Context, err error) {
	respondError(c, http.StatusBadRequest, err.Error())
}

func internalError(c *gin.Context, err error) {
	respondError(c, http.StatusInternalServerError, "something went wrong: "+err.Error())
}

func pageMeta(total, page, limit int) PageMeta {
	pages := 0
	if limit > 0 {
		pages = (total + limit - 1) / limit
	}
	return PageMeta{Total: total, Page: page, Limit: limit, TotalPages: pages}
}
