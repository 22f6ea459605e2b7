package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/smartstudy-backend/internal/platform/apierr"
)

const genericErrorMessage = "internal server error"

type ErrorEnvelope struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// RespondError writes err as {error, code}. Unclassified errors become a generic 500;
// the cause is attached to the gin context so the request logger records it.
func RespondError(c *gin.Context, err error) {
	if err != nil {
		_ = c.Error(err)
	}
	status := apierr.StatusOf(err)
	env := ErrorEnvelope{Error: genericErrorMessage}
	if ae, ok := apierr.As(err); ok {
		env.Code = ae.Code
		if ae.Message != "" {
			env.Error = ae.Message
		}
	}
	if status == http.StatusOK {
		status = http.StatusInternalServerError
	}
	c.AbortWithStatusJSON(status, env)
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}
