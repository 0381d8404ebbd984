package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pageza/foodgram/backend/internal/middleware"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/types"
)

// base carries what every handler needs to decode requests and report
// failures.
type base struct {
	log      *slog.Logger
	validate *Validator
}

// bind decodes the JSON body into dst and validates it. It writes the 400
// response itself and reports whether the handler should continue.
func (b base) bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{Error: "invalid request body"})
		return false
	}
	if errs := b.validate.Validate(dst); errs != nil {
		c.JSON(http.StatusBadRequest, errs)
		return false
	}
	return true
}

// fail maps a service error to its HTTP response.
func (b base) fail(c *gin.Context, err error) {
	var validationErr *service.ValidationError
	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, types.FieldErrors{validationErr.Field: {validationErr.Message}})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, types.ErrorResponse{Error: "not found"})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, types.ErrorResponse{Error: "you do not have permission to perform this action"})
	case errors.Is(err, service.ErrAlreadyExists),
		errors.Is(err, service.ErrNotPresent),
		errors.Is(err, service.ErrSelfFollow):
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusBadRequest, types.FieldErrors{"non_field_errors": {"unable to log in with provided credentials"}})
	default:
		b.log.Error("request failed",
			"error", err,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"request_id", middleware.RequestID(c),
		)
		c.JSON(http.StatusInternalServerError, types.ErrorResponse{Error: "internal server error"})
	}
}
