// Package apperr maps service errors onto HTTP responses.
//
// Errors that know their HTTP status implement StatusCoder; anything else
// is reported as 500. Bodies are always {"error": "<message>"}.
package apperr

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"flowerchat/backend/internal/logging"
)

// StatusCoder is implemented by errors that carry their own HTTP status.
type StatusCoder interface {
	HTTPStatus() int
}

// ValidationError reports bad caller input.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// HTTPStatus implements StatusCoder.
func (e *ValidationError) HTTPStatus() int { return http.StatusBadRequest }

// Validation returns a *ValidationError with a formatted message.
func Validation(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// UnauthorizedError reports a missing or rejected credential.
type UnauthorizedError struct {
	Msg string
}

func (e *UnauthorizedError) Error() string { return e.Msg }

// HTTPStatus implements StatusCoder.
func (e *UnauthorizedError) HTTPStatus() int { return http.StatusUnauthorized }

// Unauthorized returns an *UnauthorizedError.
func Unauthorized(msg string) error {
	return &UnauthorizedError{Msg: msg}
}

// IsValidation reports whether err wraps a *ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// Status returns the HTTP status for err.
func Status(err error) int {
	var sc StatusCoder
	if errors.As(err, &sc) {
		return sc.HTTPStatus()
	}
	return http.StatusInternalServerError
}

// Write logs err and writes the JSON error body with the matching status.
func Write(c *gin.Context, err error) {
	status := Status(err)
	log := logging.FromGin(c).WithError(err).WithField("status", status)
	if status >= 500 {
		log.Error("request failed")
	} else {
		log.Info("request rejected")
	}
	_ = c.Error(err)
	c.JSON(status, gin.H{"error": err.Error()})
}
