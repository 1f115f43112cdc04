package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/joshuaoni/user-management-dashboard/internal/domain/entity"
)

const identityKey = "identity"

func SetIdentity(c *gin.Context, a *entity.Account) {
	c.Set(identityKey, a)
}

// Identity returns the account attached by Authenticate.
func Identity(c *gin.Context) (*entity.Account, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return nil, false
	}
	a, ok := v.(*entity.Account)
	return a, ok && a != nil
}
