package modules

import (
	"expvar"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/petlovers/petlovers-api/internal/interface/middleware"
)

type DebugModule struct {
	Limit middleware.Limiter
}

func NewDebugModule(limit middleware.Limiter) *DebugModule { return &DebugModule{Limit: limit} }

func (m *DebugModule) Name() string { return "debug" }

func (m *DebugModule) Register(rg *gin.RouterGroup) {
	// expvar metrics, rate-limited per IP
	rg.GET("/debug/vars", m.Limit(120, time.Minute, middleware.KeyByIP()), gin.WrapH(expvar.Handler()))
}
