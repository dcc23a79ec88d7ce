package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/petlovers/petlovers-api/internal/domain/entity"
	handlers "github.com/petlovers/petlovers-api/internal/interface/http"
	"github.com/petlovers/petlovers-api/internal/interface/middleware"
	"github.com/petlovers/petlovers-api/pkg/helpers"
)

// PetModule wires the catalogue and adoption lifecycle under /pets.
// Reads are public, adopting needs a session, everything else needs Admin.
type PetModule struct {
	Handler *handlers.PetHandler
	JWT     *helpers.JWTManager
	Limit   middleware.Limiter
}

func NewPetModule(h *handlers.PetHandler, jwt *helpers.JWTManager, limit middleware.Limiter) *PetModule {
	return &PetModule{Handler: h, JWT: jwt, Limit: limit}
}

func (m *PetModule) Name() string { return "pets" }

func (m *PetModule) Register(rg *gin.RouterGroup) {
	pets := rg.Group("/pets")

	public := pets.Group("")
	public.Use(m.Limit(300, time.Minute, middleware.KeyByIP()))
	{
		public.GET("/available", m.Handler.Available)
		public.GET("/species/:species", m.Handler.BySpecies)
		public.GET("/search", m.Handler.Search)
		public.GET("/:id", m.Handler.Get)
	}

	auth := middleware.Auth(m.JWT)
	pets.POST("/:id/adopt", auth, m.Limit(30, time.Minute, middleware.KeyByUserID()), m.Handler.Adopt)

	admin := pets.Group("", auth, middleware.RequireRole(entity.RoleAdmin))
	{
		admin.POST("", m.Handler.Create)
		admin.PUT("/:id", m.Handler.Update)
		admin.DELETE("/:id", m.Handler.Delete)
		admin.POST("/:id/photo", m.Handler.UploadPhoto)
		admin.POST("/:id/confirm-adoption", m.Handler.ConfirmAdoption)
		admin.POST("/:id/cancel-adoption", m.Handler.CancelAdoption)
		admin.POST("/:id/return", m.Handler.ReturnToShelter)
	}
}
