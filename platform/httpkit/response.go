// Package httpkit provides HTTP response utilities.
// This is part of the platform layer and contains no business logic.
package httpkit

import (
	"errors"
	"net/http"

	"lead_automation_backend/platform/apperr"
	"lead_automation_backend/platform/logger"

	"github.com/gin-gonic/gin"
)

// ErrorResponse is the standard error response format. Action is the
// request id, so a failed call can be matched with its log lines.
type ErrorResponse struct {
	Error   string      `json:"error"`
	Action  string      `json:"action,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

// JSON sends a JSON response with the given status code.
func JSON(c *gin.Context, status int, payload interface{}) {
	c.JSON(status, payload)
}

// Error sends an error response with the given status code and message.
func Error(c *gin.Context, status int, message string, details interface{}) {
	c.JSON(status, ErrorResponse{Error: message, Action: RequestIDFrom(c), Details: details})
}

// OK sends a 200 OK response with the given payload.
func OK(c *gin.Context, payload interface{}) {
	c.JSON(http.StatusOK, payload)
}

// Created sends a 201 Created response with the given payload.
func Created(c *gin.Context, payload interface{}) {
	c.JSON(http.StatusCreated, payload)
}

// HandleError maps domain errors to HTTP responses.
// The first *apperr.Error in the chain decides the status code; untyped
// errors become 500 and are logged. Returns true if an error was handled.
func HandleError(c *gin.Context, err error) bool {
	if err == nil {
		return false
	}

	var domainErr *apperr.Error
	if errors.As(err, &domainErr) {
		status := domainErr.HTTPStatus()
		if status >= http.StatusInternalServerError {
			logError(c, status, err)
		}
		c.JSON(status, ErrorResponse{
			Error:   domainErr.Message,
			Action:  RequestIDFrom(c),
			Details: domainErr.Details,
		})
		return true
	}

	logError(c, http.StatusInternalServerError, err)
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error", Action: RequestIDFrom(c)})
	return true
}

func logError(c *gin.Context, status int, err error) {
	value, ok := c.Get(contextLoggerKey)
	if !ok {
		return
	}
	if log, ok := value.(*logger.Logger); ok {
		log.HTTPError(c.Request.Method, c.Request.URL.Path, status, err, c.ClientIP())
	}
}
