package router

import (
	"github.com/sirupsen/logrus"

	"github.com/petlovers/petlovers-api/config"
	"github.com/petlovers/petlovers-api/internal/application"
	handlers "github.com/petlovers/petlovers-api/internal/interface/http"
	"github.com/petlovers/petlovers-api/internal/interface/middleware"
	"github.com/petlovers/petlovers-api/internal/router/modules"
	"github.com/petlovers/petlovers-api/pkg/helpers"
)

// Deps carries everything the HTTP modules need. main builds it once.
type Deps struct {
	Config *config.Config
	Logger *logrus.Logger
	JWT    *helpers.JWTManager
	Limit  middleware.Limiter
	Auth   *application.AuthService
	Pets   *application.PetService
}

// InitModules builds the handlers and registers every module with r.
// Call it once during startup, before RegisterAll.
func InitModules(r *Registry, d Deps) {
	if d.Limit == nil {
		d.Limit = middleware.NewLimiter(nil, nil)
	}
	cookies := helpers.NewCookieManager(d.Config.CookieDomain, d.Config.CookieSecure)

	r.Add(modules.NewAuthModule(handlers.NewAuthHandler(d.Auth, d.Logger, cookies), d.JWT, d.Limit))
	r.Add(modules.NewAdminModule(handlers.NewUserHandler(d.Auth, d.Logger), d.JWT, d.Limit))
	r.Add(modules.NewPetModule(handlers.NewPetHandler(d.Pets, d.Logger), d.JWT, d.Limit))
	if d.Config.DebugMetricsEnabled {
		r.Add(modules.NewDebugModule(d.Limit))
	}
}
