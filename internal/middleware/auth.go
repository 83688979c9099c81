package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"clinic-management-api/internal/auth"
)

const principalKey = "principal"

// Auth resolves the bearer credential into a Principal once per
// request. Everything downstream reads the resolved identity; nothing
// re-parses the token.
func Auth(resolver *auth.Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := resolver.Resolve(c.Request.Context(), c.GetHeader("Authorization"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}
		c.Set(principalKey, p)
		c.Next()
	}
}

// RequireRole gates a route group on the resolved role.
func RequireRole(role auth.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !Principal(c).Role.CanActAs(role) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}

// Principal returns the identity resolved by Auth. Zero value when the
// route skipped authentication.
func Principal(c *gin.Context) auth.Principal {
	v, _ := c.Get(principalKey)
	p, _ := v.(auth.Principal)
	return p
}
