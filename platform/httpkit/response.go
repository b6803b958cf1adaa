package httpkit

import (
	"errors"
	"net/http"
	"strconv"

	"leadsync_backend/platform/apperr"

	"github.com/gin-gonic/gin"
)

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error   string      `json:"error"`
	Details interface{} `json:"details,omitempty"`
}

func JSON(c *gin.Context, status int, payload interface{}) {
	c.JSON(status, payload)
}

func OK(c *gin.Context, payload interface{}) {
	c.JSON(http.StatusOK, payload)
}

// Accepted replies 202 for work handed to the background queue.
func Accepted(c *gin.Context, payload interface{}) {
	c.JSON(http.StatusAccepted, payload)
}

func Error(c *gin.Context, status int, message string, details interface{}) {
	c.AbortWithStatusJSON(status, ErrorResponse{Error: message, Details: details})
}

// PositiveIDParam parses a path parameter as a positive int64 and replies 400
// with message when it is not one.
func PositiveIDParam(c *gin.Context, name, message string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		Error(c, http.StatusBadRequest, message, nil)
		return 0, false
	}
	return id, true
}

// HandleError writes err as a response and reports whether it did.
// *apperr.Error anywhere in the chain picks the status and internal
// messages are masked; any other error is a 400.
func HandleError(c *gin.Context, err error) bool {
	if err == nil {
		return false
	}
	_ = c.Error(err)

	var domainErr *apperr.Error
	if !errors.As(err, &domainErr) {
		Error(c, http.StatusBadRequest, err.Error(), nil)
		return true
	}
	message, details := domainErr.Message, domainErr.Details
	if domainErr.Kind == apperr.KindInternal {
		message, details = "internal error", nil
	}
	Error(c, domainErr.HTTPStatus(), message, details)
	return true
}
