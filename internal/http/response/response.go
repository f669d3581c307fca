package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/labelbridge-backend/internal/platform/apierr"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

// RespondAPIError maps err through apierr and writes the envelope.
func RespondAPIError(c *gin.Context, err error, fallbackCode string) {
	ae := apierr.From(err, fallbackCode)
	if ae == nil {
		ae = apierr.New(http.StatusInternalServerError, fallbackCode, nil)
	}
	_ = c.Error(err)
	RespondError(c, ae.Status, ae.Code, ae.Err)
}

// AbortError writes the envelope and stops the handler chain.
func AbortError(c *gin.Context, status int, code string, message string) {
	c.AbortWithStatusJSON(status, ErrorEnvelope{
		Error: APIError{Message: message, Code: code},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}
