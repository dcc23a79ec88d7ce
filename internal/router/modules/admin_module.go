package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/petlovers/petlovers-api/internal/domain/entity"
	handlers "github.com/petlovers/petlovers-api/internal/interface/http"
	"github.com/petlovers/petlovers-api/internal/interface/middleware"
	"github.com/petlovers/petlovers-api/pkg/helpers"
)

// AdminModule wires user administration under /admin. Every route needs the
// Admin role.
type AdminModule struct {
	Handler *handlers.UserHandler
	JWT     *helpers.JWTManager
	Limit   middleware.Limiter
}

func NewAdminModule(h *handlers.UserHandler, jwt *helpers.JWTManager, limit middleware.Limiter) *AdminModule {
	return &AdminModule{Handler: h, JWT: jwt, Limit: limit}
}

func (m *AdminModule) Name() string { return "admin" }

func (m *AdminModule) Register(rg *gin.RouterGroup) {
	admin := rg.Group("/admin")
	admin.Use(
		middleware.Auth(m.JWT),
		middleware.RequireRole(entity.RoleAdmin),
		m.Limit(120, time.Minute, middleware.KeyByUserID()),
	)
	{
		admin.POST("/users/:id/deactivate", m.Handler.Deactivate)
		admin.POST("/users/:id/activate", m.Handler.Activate)
		admin.POST("/users/:id/roles", m.Handler.AssignRole)
		admin.DELETE("/users/:id/roles/:role", m.Handler.RevokeRole)
	}
}
