// Package httpkit provides HTTP response utilities.
// This is part of the platform layer and contains no business logic.
package httpkit

import (
	"net/http"

	"membership_backend/platform/apperr"

	"github.com/gin-gonic/gin"
)

const (
	statusSuccess    = "success"
	statusBadRequest = "Bad request"
	statusNotFound   = "Not found"
	statusError      = "error"

	msgUnexpected = "An unexpected error occurred"
)

// Envelope is the standard success response format.
type Envelope struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	Status     string              `json:"status"`
	Message    string              `json:"message,omitempty"`
	StatusCode int                 `json:"statusCode"`
	Errors     []apperr.FieldError `json:"errors,omitempty"`
}

// JSON sends a success envelope with the given status code.
func JSON(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, Envelope{Status: statusSuccess, Message: message, Data: data})
}

// OK sends a 200 success envelope.
func OK(c *gin.Context, message string, data interface{}) {
	JSON(c, http.StatusOK, message, data)
}

// Created sends a 201 success envelope.
func Created(c *gin.Context, message string, data interface{}) {
	JSON(c, http.StatusCreated, message, data)
}

// Error sends an error envelope with the given status code and message.
func Error(c *gin.Context, status int, message string, fields []apperr.FieldError) {
	c.JSON(status, ErrorResponse{
		Status:     statusText(status),
		Message:    message,
		StatusCode: status,
		Errors:     fields,
	})
}

// AbortError is Error for middleware: it also stops the handler chain.
func AbortError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, ErrorResponse{
		Status:     statusText(status),
		Message:    message,
		StatusCode: status,
	})
}

// HandleError maps domain errors to HTTP responses.
// Typed *apperr.Error values use their Kind for the status code; anything
// else becomes an opaque 500. The original error is attached to the gin
// context so the request logger records it.
// Returns true if an error was handled, false otherwise.
func HandleError(c *gin.Context, err error) bool {
	if err == nil {
		return false
	}
	_ = c.Error(err)

	if domainErr, ok := apperr.As(err); ok {
		status := domainErr.HTTPStatus()
		if status == http.StatusInternalServerError {
			Error(c, status, msgUnexpected, nil)
			return true
		}
		Error(c, status, domainErr.Message, domainErr.Fields)
		return true
	}

	Error(c, http.StatusInternalServerError, msgUnexpected, nil)
	return true
}

func statusText(status int) string {
	switch {
	case status == http.StatusNotFound:
		return statusNotFound
	case status >= http.StatusInternalServerError:
		return statusError
	default:
		return statusBadRequest
	}
}
