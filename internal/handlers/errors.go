package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"stream-market/internal/apperr"
)

// statusFor maps an engine failure class to an HTTP status.
func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation, apperr.KindArithmetic:
		return http.StatusBadRequest
	case apperr.KindAuthorization:
		return http.StatusForbidden
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindLifecycle, apperr.KindLedger, apperr.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err as {"error", "code"}. Errors outside the engine
// taxonomy are logged and reported as a generic 500.
func respondError(c *gin.Context, log zerolog.Logger, err error) {
	code, ok := apperr.CodeOf(err)
	if !ok {
		log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error", "code": "Internal"})
		return
	}
	c.JSON(statusFor(code.Kind()), gin.H{"error": code.Error(), "code": code.Name()})
}
