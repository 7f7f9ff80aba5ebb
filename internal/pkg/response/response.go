package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// envelope is the uniform JSON body for every response.
// Success responses carry data; failures carry optional field-level errors.
type envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Errors  interface{} `json:"errors,omitempty"`
}

// Pagination metadata returned with paginated responses.
type Pagination struct {
	Total       int64 `json:"total"`
	CurrentPage int   `json:"current_page"`
	TotalPage   int   `json:"total_page"`
	PerPage     int   `json:"per_page"`
	HasNextPage bool  `json:"has_next_page"`
}

// pagedData wraps list payloads with their pagination block.
type pagedData struct {
	Items      interface{} `json:"items"`
	Pagination Pagination  `json:"pagination"`
}

// OK sends a 200 success envelope.
func OK(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, envelope{Success: true, Message: message, Data: data})
}

// Created sends a 201 success envelope.
func Created(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusCreated, envelope{Success: true, Message: message, Data: data})
}

// NoContent sends a 204 response.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Paged sends a paginated success envelope.
func Paged(c *gin.Context, message string, items interface{}, pagination Pagination) {
	c.JSON(http.StatusOK, envelope{
		Success: true,
		Message: message,
		Data:    pagedData{Items: items, Pagination: pagination},
	})
}

// BadRequest sends a 400 error response.
func BadRequest(c *gin.Context, message string) {
	abort(c, http.StatusBadRequest, message, nil)
}

// Unauthorized sends a 401 error response.
func Unauthorized(c *gin.Context) {
	abort(c, http.StatusUnauthorized, "Unauthenticated.", nil)
}

// Forbidden sends a 403 error response.
func Forbidden(c *gin.Context, message string) {
	abort(c, http.StatusForbidden, message, nil)
}

// NotFound sends a 404 error response.
func NotFound(c *gin.Context, message string) {
	abort(c, http.StatusNotFound, message, nil)
}

// MethodNotAllowed sends a 405 error response.
func MethodNotAllowed(c *gin.Context) {
	abort(c, http.StatusMethodNotAllowed, "Method not allowed.", nil)
}

// Conflict sends a 409 error response.
func Conflict(c *gin.Context, message string) {
	abort(c, http.StatusConflict, message, nil)
}

// UnprocessableEntity sends a 422 error response with optional field errors.
func UnprocessableEntity(c *gin.Context, message string, errors interface{}) {
	abort(c, http.StatusUnprocessableEntity, message, errors)
}

// InternalError sends a sanitized 500 error response. The underlying error is
// expected to be logged by the caller; it is never echoed to the client.
func InternalError(c *gin.Context) {
	abort(c, http.StatusInternalServerError, "An internal server error occurred.", nil)
}

func abort(c *gin.Context, status int, message string, errors interface{}) {
	c.AbortWithStatusJSON(status, envelope{Success: false, Message: message, Errors: errors})
}
