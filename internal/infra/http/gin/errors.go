package ginserver

import (
	"errors"
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"carbooking/internal/app/commands"
	"carbooking/internal/app/queries"
	"carbooking/internal/domain/shared/apperr"
)

const internalMessage = "an internal error occurred"

type errorBody struct {
	Code    apperr.Code `json:"code"`
	Message string      `json:"message"`
}

// respondError writes {"error":{"code","message"}}. Uncoded errors become a
// generic 500 and are logged with the request id.
func respondError(c *gin.Context, err error, logger *slog.Logger) {
	var appErr *apperr.Error
	if errors.As(err, &appErr) && appErr.Code != apperr.CodeInternal {
		c.JSON(apperr.HTTPStatus(appErr.Code), gin.H{"error": errorBody{Code: appErr.Code, Message: appErr.Message}})
		return
	}
	status := http.StatusInternalServerError
	if errors.Is(err, commands.ErrHandlerNotFound) || errors.Is(err, queries.ErrHandlerNotFound) {
		status = http.StatusServiceUnavailable
	}
	_ = c.Error(err)
	if logger != nil {
		logger.Error("request failed", "path", c.FullPath(), "request_id", c.GetString("request_id"), "error", err)
	}
	c.JSON(status, gin.H{"error": errorBody{Code: apperr.CodeInternal, Message: internalMessage}})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": errorBody{Code: apperr.CodeInvalidInput, Message: err.Error()}})
}
