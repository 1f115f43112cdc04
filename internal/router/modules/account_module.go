package modules

import (
	"github.com/gin-gonic/gin"

	"github.com/joshuaoni/user-management-dashboard/internal/domain/entity"
	handlers "github.com/joshuaoni/user-management-dashboard/internal/interface/http"
	"github.com/joshuaoni/user-management-dashboard/internal/interface/middleware"
)

// AccountModule mounts /users. auth is the Authenticate middleware.
type AccountModule struct {
	handler *handlers.AccountHandler
	auth    gin.HandlerFunc
}

func NewAccountModule(h *handlers.AccountHandler, auth gin.HandlerFunc) *AccountModule {
	return &AccountModule{handler: h, auth: auth}
}

func (m *AccountModule) Register(rg *gin.RouterGroup) {
	users := rg.Group("/users")
	users.POST("/register", m.handler.Register)
	users.POST("/login", m.handler.Login)
	users.GET("/logout", m.handler.Logout)

	authed := users.Group("", m.auth)
	authed.GET("", m.handler.List)
	authed.GET("/me", m.handler.Me)
	authed.GET("/:id", m.handler.Get)

	admin := authed.Group("", middleware.RequireRole(entity.RoleAdmin))
	admin.POST("", m.handler.Create)
	admin.PATCH("/:id", m.handler.Update)
	admin.DELETE("/:id", m.handler.Delete)
}
