package router

import "github.com/gin-gonic/gin"

// Module is one feature area of the API. Name must be unique per Registry.
type Module interface {
	Name() string
	Register(api *gin.RouterGroup)
}
