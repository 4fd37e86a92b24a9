package handler

import (
	"errors"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tenderly-care/diagnosis-api/internal/model"
	apperrors "github.com/tenderly-care/diagnosis-api/pkg/errors"
)

// ErrorResponse is the uniform error envelope for every failure.
type ErrorResponse struct {
	Error     string      `json:"error"`
	ErrorCode string      `json:"error_code"`
	Timestamp time.Time   `json:"timestamp"`
	Detail    interface{} `json:"detail,omitempty"`
}

func NewErrorResponse(message, code string) ErrorResponse {
	return ErrorResponse{
		Error:     message,
		ErrorCode: code,
		Timestamp: time.Now().UTC(),
	}
}

// RespondError maps an error onto the envelope and writes it. Internal
// detail is exposed only in debug mode; validation field errors are always
// included because they are client-fixable.
func RespondError(c *gin.Context, err error, debug bool) {
	appErr := apperrors.AsAppError(err)

	resp := NewErrorResponse(appErr.Message, appErr.Code)
	var verrs model.ValidationErrors
	if errors.As(err, &verrs) {
		resp.Detail = verrs
	} else if debug && appErr.Err != nil {
		resp.Detail = appErr.Err.Error()
	}

	if appErr.Kind == apperrors.KindRateLimited && appErr.Window > 0 {
		c.Header("Retry-After", strconv.Itoa(int(appErr.Window.Seconds())))
	}
	c.AbortWithStatusJSON(appErr.StatusCode(), resp)
}
