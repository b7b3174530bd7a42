package ginserver

import (
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"

	domainbooking "rentbazaar/internal/domain/booking"
)

const principalContextKey = "rentbazaar.principal"

// principal identifies the caller. Authentication happens upstream (gateway
// or reverse proxy); this service trusts the identity headers it forwards.
type principal struct {
	ID   string
	Role string
}

func (p principal) actor() domainbooking.Actor {
	role := domainbooking.Role(strings.ToLower(p.Role))
	switch role {
	case domainbooking.RoleOwner, domainbooking.RoleAdmin, domainbooking.RoleSystem:
	default:
		role = domainbooking.RoleRenter
	}
	return domainbooking.Actor{ID: p.ID, Role: role}
}

// PrincipalMiddleware reads the forwarded identity headers into the request
// context. Requests without X-User-ID stay anonymous and are rejected by
// requirePrincipal on protected routes.
func PrincipalMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader("X-User-ID"))
		if id != "" {
			c.Set(principalContextKey, principal{
				ID:   id,
				Role: strings.TrimSpace(c.GetHeader("X-User-Role")),
			})
		}
		c.Next()
	}
}

func currentPrincipal(c *gin.Context) (principal, bool) {
	val, exists := c.Get(principalContextKey)
	if !exists {
		return principal{}, false
	}
	p, ok := val.(principal)
	return p, ok
}

func requirePrincipal(c *gin.Context) (principal, bool) {
	p, ok := currentPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "identity required"})
		return principal{}, false
	}
	return p, true
}
