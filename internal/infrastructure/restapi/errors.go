package restapi

import (
	"errors"
	"net/http"

	"honeyfarmers/internal/app/service"
	"honeyfarmers/internal/infrastructure/network/fallback"
	"honeyfarmers/internal/infrastructure/wallet"

	"github.com/gin-gonic/gin"
)

// statusFor maps application errors to HTTP statuses. Anything unrecognised coming back
// from an action is an upstream rejection and keeps its message.
func statusFor(err error, upstream bool) int {
	switch {
	case errors.Is(err, service.ErrNotAuthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrUnknownNetwork),
		errors.Is(err, service.ErrInvalidAction),
		errors.Is(err, wallet.ErrNoAccount):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrSessionChanged):
		return http.StatusConflict
	case errors.Is(err, wallet.ErrSigningUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, fallback.ErrAllEndpointsFailed):
		return http.StatusBadGateway
	case upstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func abortWithError(c *gin.Context, err error, upstream bool) {
	_ = c.Error(err)
	c.AbortWithStatusJSON(statusFor(err, upstream), APIResponse{
		Error:     err.Error(),
		RequestID: c.GetString(requestIDKey),
	})
}

func abortBadRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, APIResponse{
		Error:     msg,
		RequestID: c.GetString(requestIDKey),
	})
}
