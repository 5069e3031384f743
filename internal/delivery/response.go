package delivery

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"storefront/internal/domain"
	"storefront/internal/middleware"
)

type Response struct {
	Status  string      `json:"Status"`
	Message string      `json:"Message"`
	Data    interface{} `json:"Data,omitempty"`
}

func SuccessResponse(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, Response{
		Status:  "Success",
		Message: message,
		Data:    data,
	})
}

func ErrorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, Response{
		Status:  "Fail",
		Message: message,
	})
}

// Guards are the middleware chains handlers attach to protected routes.
type Guards struct {
	Auth      gin.HandlerFunc
	Admin     gin.HandlerFunc
	RateLimit gin.HandlerFunc
}

func mapErrorToStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, domain.ErrUpstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes the envelope for err. Unclassified errors are logged
// and hidden behind a generic message.
func respondError(c *gin.Context, log logrus.FieldLogger, err error) {
	status := mapErrorToStatus(err)
	if status == http.StatusInternalServerError {
		log.Errorf("Handler: Internal error on %s %s: %v", c.Request.Method, c.FullPath(), err)
		ErrorResponse(c, status, "internal server error")
		return
	}

	message := err.Error()
	var domainErr *domain.Error
	if errors.As(err, &domainErr) {
		message = domainErr.Message
	}
	log.Warnf("Handler: Request failed with %d: %s", status, message)
	ErrorResponse(c, status, message)
}

func parseID(c *gin.Context, param string) (int64, bool) {
	raw := c.Param(param)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		ErrorResponse(c, http.StatusBadRequest, "Invalid ID format: "+raw)
		return 0, false
	}
	return id, true
}

func bindError(c *gin.Context, log logrus.FieldLogger, err error) {
	log.Warnf("Handler: Failed to bind request body: %v", err)
	ErrorResponse(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
}

// currentPrincipal is only nil when a route was registered without the auth guard.
func currentPrincipal(c *gin.Context) *domain.Principal {
	principal, ok := middleware.PrincipalFrom(c)
	if !ok {
		ErrorResponse(c, http.StatusUnauthorized, "authentication required")
		return nil
	}
	return principal
}
