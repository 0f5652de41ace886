// Package dto defines the transport objects of the HTTP API.
package dto

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sentrasec/sentra/pkg/constants"
	"github.com/sentrasec/sentra/pkg/errors"
)

// APIResponse is the common response envelope.
type APIResponse struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	Error     *ErrorDTO   `json:"error,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// ErrorDTO carries a structured error to the caller.
type ErrorDTO struct {
	Code     string                 `json:"code"`
	Message  string                 `json:"message"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// SendSuccess writes a success envelope with the given status.
func SendSuccess(c *gin.Context, status int, data interface{}) {
	c.JSON(status, &APIResponse{
		Success:   true,
		Data:      data,
		Timestamp: time.Now().Unix(),
	})
}

// SendError translates an error into the envelope, using the AppError's
// status and code when available and a generic server error otherwise.
func SendError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	errorDTO := &ErrorDTO{
		Code:    string(constants.ErrCodeServerError),
		Message: "internal server error",
	}

	if appErr, ok := errors.As(err); ok {
		status = appErr.HTTPStatus()
		errorDTO = &ErrorDTO{
			Code:     string(appErr.Code()),
			Message:  appErr.Message(),
			Metadata: appErr.Metadata(),
		}
	}

	c.JSON(status, &APIResponse{
		Success:   false,
		Error:     errorDTO,
		Timestamp: time.Now().Unix(),
	})
}
