// errors.go - Structured error handling for API responses
package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
)

// APIError represents a structured API error response
type APIError struct {
	Status  int    `json:"-"`
	Message string `json:"message"`
	Err     string `json:"error,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.Err == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Message, e.Err)
}

// NewBadRequestError creates a 400 Bad Request error
func NewBadRequestError(message string, cause error) *APIError {
	return newError(http.StatusBadRequest, message, cause)
}

// NewNotFoundError creates a 404 Not Found error
func NewNotFoundError(resource string, id string) *APIError {
	return &APIError{
		Status:  http.StatusNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Err:     id,
	}
}

// NewInternalError creates a 500 Internal Server Error
func NewInternalError(message string, cause error) *APIError {
	return newError(http.StatusInternalServerError, message, cause)
}

func newError(status int, message string, cause error) *APIError {
	err := &APIError{Status: status, Message: message}
	if cause != nil {
		err.Err = cause.Error()
	}
	return err
}

// ErrorHandler renders every error as {message, error}.
// Usage: e.HTTPErrorHandler = api.ErrorHandler
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var apiErr *APIError
	var httpErr *echo.HTTPError

	switch {
	case errors.As(err, &apiErr):
	case errors.As(err, &httpErr):
		apiErr = &APIError{
			Status:  httpErr.Code,
			Message: fmt.Sprintf("%v", httpErr.Message),
		}
		if httpErr.Internal != nil {
			apiErr.Err = httpErr.Internal.Error()
		}
	default:
		apiErr = NewInternalError("An unexpected error occurred", err)
	}

	if apiErr.Status >= http.StatusInternalServerError {
		slog.Error("request failed",
			"method", c.Request().Method,
			"path", c.Request().URL.Path,
			"status", apiErr.Status,
			"error", apiErr.Error(),
		)
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(apiErr.Status)
		return
	}
	_ = c.JSON(apiErr.Status, apiErr)
}
