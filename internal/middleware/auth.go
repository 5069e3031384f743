package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"storefront/internal/domain"
)

const principalKey = "principal"

type TokenParser interface {
	ParseToken(raw string) (*domain.Principal, error)
}

func abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"Status": "Fail", "Message": message})
}

// Auth requires a valid bearer token and stores the caller's principal in the context.
func Auth(tokens TokenParser, log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			log.Warn("Middleware: Authorization header is missing")
			abort(c, http.StatusUnauthorized, "Authorization header required")
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || parts[1] == "" {
			log.Warn("Middleware: Invalid Authorization header format")
			abort(c, http.StatusUnauthorized, "Invalid Authorization header format")
			return
		}

		principal, err := tokens.ParseToken(parts[1])
		if err != nil {
			log.Warnf("Middleware: Token rejected: %v", err)
			abort(c, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		log.Debugf("Middleware: Authenticated user %d (%s)", principal.UserID, principal.Role)
		c.Set(principalKey, principal)
		c.Next()
	}
}

// AdminOnly must run after Auth.
func AdminOnly(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := PrincipalFrom(c)
		if !ok {
			abort(c, http.StatusUnauthorized, "authentication required")
			return
		}
		if !principal.IsAdmin() {
			log.Warnf("Middleware: User %d denied access to admin route %s", principal.UserID, c.FullPath())
			abort(c, http.StatusForbidden, "admin access required")
			return
		}
		c.Next()
	}
}

func PrincipalFrom(c *gin.Context) (*domain.Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return nil, false
	}
	principal, ok := v.(*domain.Principal)
	return principal, ok && principal != nil
}
