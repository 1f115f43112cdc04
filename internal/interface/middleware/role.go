package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/joshuaoni/user-management-dashboard/internal/domain/entity"
	"github.com/joshuaoni/user-management-dashboard/pkg/response"
)

// Permits reports whether a holds one of roles.
func Permits(a *entity.Account, roles ...entity.Role) bool {
	if a == nil {
		return false
	}
	for _, r := range roles {
		if a.Role == r {
			return true
		}
	}
	return false
}

// RequireRole must run after Authenticate.
func RequireRole(roles ...entity.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		a, _ := Identity(c)
		if !Permits(a, roles...) {
			authRejections.Add("forbidden", 1)
			response.Error(c, http.StatusForbidden, MsgForbidden, nil)
			return
		}
		c.Next()
	}
}
