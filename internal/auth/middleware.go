package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"classroll/internal/directory"
	"classroll/internal/metrics"
)

const claimsKey = "claims"

// Require enforces bearer JWT tokens and, when roles are given, re-confirms
// the role against the directory before allowing the request through.
func Require(gate *RoleGate, signingKey, issuer string, roles ...directory.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		authz := c.GetHeader("Authorization")
		if authz == "" || !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		tokenStr := strings.TrimSpace(authz[len("bearer "):])
		claims, err := Parse(tokenStr, signingKey, issuer)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		role, err := gate.Confirm(c.Request.Context(), claims)
		if err != nil {
			var authErr *AuthorizationError
			if errors.As(err, &authErr) {
				metrics.AuthFailures.Inc()
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "session no longer authorized"})
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "role lookup failed"})
			return
		}

		if len(roles) > 0 && !roleAllowed(role, roles) {
			metrics.AuthFailures.Inc()
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "insufficient role"})
			return
		}

		c.Set(claimsKey, claims)
		c.Next()
	}
}

func roleAllowed(role directory.Role, allowed []directory.Role) bool {
	for _, r := range allowed {
		if role == r {
			return true
		}
	}
	return false
}

// ClaimsFrom returns the verified claims set by Require.
func ClaimsFrom(c *gin.Context) (Claims, bool) {
	v, ok := c.Get(claimsKey)
	if !ok {
		return Claims{}, false
	}
	claims, ok := v.(Claims)
	return claims, ok
}
