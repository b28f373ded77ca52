package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/eaglebank/ledger/shared/middleware"
	"github.com/gin-gonic/gin"
)

// bindAndValidate binds a JSON or form body into req and validates it. An
// empty body is validated as an empty request so missing fields get named.
// It writes the error response itself and reports whether to continue.
func bindAndValidate(c *gin.Context, req any) bool {
	if err := c.ShouldBind(req); err != nil && !errors.Is(err, io.EOF) {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return false
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return false
	}
	return true
}
