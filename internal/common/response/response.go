package response

import (
	"jetfeed-backend/internal/common/apperrors"
	"jetfeed-backend/internal/common/logger"

	"github.com/gin-gonic/gin"
)

// ErrorResponse is the error body every endpoint returns.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error writes err as JSON with the status apperrors maps it to. Internal
// causes are logged, never exposed.
func Error(c *gin.Context, err error) {
	status := apperrors.HTTPStatus(err)
	if appErr, ok := apperrors.As(err); ok {
		if appErr.Cause != nil {
			logger.Error().
				Err(appErr.Cause).
				Str("code", string(appErr.Code)).
				Str("path", c.Request.URL.Path).
				Msg(appErr.Message)
		}
		c.AbortWithStatusJSON(status, ErrorResponse{Code: string(appErr.Code), Message: appErr.Message})
		return
	}
	logger.Error().Err(err).Str("path", c.Request.URL.Path).Msg("Unhandled error")
	c.AbortWithStatusJSON(status, ErrorResponse{
		Code:    string(apperrors.ErrCodeInternal),
		Message: "Something went wrong. Please try again.",
	})
}
