package server

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/spektr-org/pulse/engine"
	"github.com/spektr-org/pulse/helpers"
)

// APIError is the JSON body of every non-2xx response.
type APIError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

const (
	ErrorCodeValidation        = "VALIDATION_ERROR"
	ErrorCodeEmptyTable        = "EMPTY_TABLE"
	ErrorCodeUnsupportedFormat = "UNSUPPORTED_FORMAT"
	ErrorCodeNotFound          = "NOT_FOUND"
	ErrorCodeInternal          = "INTERNAL_SERVER_ERROR"
)

// RespondWithError writes a standardized error body and aborts the chain.
func RespondWithError(c *gin.Context, httpStatus int, code string, message string, details interface{}) {
	if httpStatus >= http.StatusInternalServerError {
		log.Printf("❌ Pulse API: %s %s → %d %s: %s", c.Request.Method, c.Request.URL.Path, httpStatus, code, message)
	}
	c.AbortWithStatusJSON(httpStatus, APIError{
		Code:    code,
		Message: message,
		Details: details,
	})
}

// respondWithLoadError maps loader and engine errors onto the envelope.
func respondWithLoadError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, helpers.ErrUnsupportedFormat):
		RespondWithError(c, http.StatusUnsupportedMediaType, ErrorCodeUnsupportedFormat, err.Error(), nil)
	case errors.Is(err, engine.ErrEmptyTable), errors.Is(err, helpers.ErrNoHeader):
		RespondWithError(c, http.StatusUnprocessableEntity, ErrorCodeEmptyTable, err.Error(), nil)
	case errors.Is(err, engine.ErrInvalidConfig):
		RespondWithError(c, http.StatusBadRequest, ErrorCodeValidation, "invalid analysis settings", err.Error())
	default:
		RespondWithError(c, http.StatusBadRequest, ErrorCodeValidation, "could not read uploaded table", err.Error())
	}
}
