package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	handlers "github.com/petlovers/petlovers-api/internal/interface/http"
	"github.com/petlovers/petlovers-api/internal/interface/middleware"
	"github.com/petlovers/petlovers-api/pkg/helpers"
)

// AuthModule wires the session endpoints under /auth.
// Public: register, login, refresh. Protected: logout, me.
type AuthModule struct {
	Handler *handlers.AuthHandler
	JWT     *helpers.JWTManager
	Limit   middleware.Limiter
}

func NewAuthModule(h *handlers.AuthHandler, jwt *helpers.JWTManager, limit middleware.Limiter) *AuthModule {
	return &AuthModule{Handler: h, JWT: jwt, Limit: limit}
}

func (m *AuthModule) Name() string { return "auth" }

func (m *AuthModule) Register(rg *gin.RouterGroup) {
	g := rg.Group("/auth")

	registerLimiter := m.Limit(10, time.Minute, middleware.KeyByIP())
	loginLimiter := m.Limit(10, time.Minute, middleware.KeyByIP())   // 10 req/min per IP
	refreshLimiter := m.Limit(60, time.Minute, middleware.KeyByIP()) // 60 req/min per IP

	g.POST("/register", registerLimiter, m.Handler.Register)
	g.POST("/login", loginLimiter, m.Handler.Login)
	g.POST("/refresh", refreshLimiter, m.Handler.Refresh)

	auth := g.Group("/")
	auth.Use(middleware.Auth(m.JWT))
	auth.Use(m.Limit(120, time.Minute, middleware.KeyByUserID()))
	{
		auth.POST("/logout", m.Handler.Logout)
		auth.GET("/me", m.Handler.Me)
	}
}
