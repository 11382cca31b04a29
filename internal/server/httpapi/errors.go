package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/luminary-catalog/luminary/internal/common"
	"github.com/luminary-catalog/luminary/internal/server/auth"
)

const (
	msgInvalidJSON        = "invalid JSON payload"
	msgInvalidCredentials = "Invalid credentials"
	msgInternal           = "Internal server error"
)

type messageResponse struct {
	Message string `json:"message"`
}

// errorCase maps a sentinel to a status. An empty message means the error's
// own text is safe to show.
type errorCase struct {
	err     error
	status  int
	message string
}

// defaultErrorCases apply after any handler-specific cases. Anything not
// matched is an infrastructure failure.
var defaultErrorCases = []errorCase{
	{err: common.ErrorValidation, status: http.StatusBadRequest},
	{err: common.ErrorConflict, status: http.StatusConflict},
	{err: common.ErrorUnauthorized, status: http.StatusUnauthorized, message: msgInvalidCredentials},
	{err: common.ErrInvalidToken, status: http.StatusUnauthorized, message: auth.MsgInvalidToken},
	{err: common.ErrorNotFound, status: http.StatusNotFound, message: "Not found"},
}

func (h *handlers) respondError(c *gin.Context, err error, cases ...errorCase) {
	for _, cs := range append(cases, defaultErrorCases...) {
		if errors.Is(err, cs.err) {
			msg := cs.message
			if msg == "" {
				msg = err.Error()
			}
			c.JSON(cs.status, messageResponse{Message: msg})
			return
		}
	}

	h.logger.Error(c.Request.Context(), "request failed", "route", c.FullPath(), "error", err)
	c.JSON(http.StatusInternalServerError, messageResponse{Message: msgInternal})
}
