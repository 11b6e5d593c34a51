package utils

import (
	"errors"
	"net/http"

	"leadflow-backend/apperr"

	"github.com/gin-gonic/gin"
)

func RespondWithError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"error": message})
}

// RespondWithAppError maps a typed error to its status. Anything untyped is
// reported as a 500 without leaking the underlying message.
func RespondWithAppError(c *gin.Context, err error) {
	var appErr *apperr.Error
	if !errors.As(err, &appErr) || appErr.Kind == apperr.KindInternal || appErr.Kind == apperr.KindUnknown {
		RespondWithError(c, http.StatusInternalServerError, "Internal server error")
		return
	}
	RespondWithError(c, appErr.HTTPStatus(), appErr.Message)
}
