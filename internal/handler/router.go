package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/xxxsen/marksync/internal/middleware"
)

type RouterDeps struct {
	Sync       *SyncHandler
	Preview    *PreviewHandler
	Files      *FileHandler
	AdminToken string
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	authGroup := api.Group("")
	authGroup.Use(middleware.TokenAuth(deps.AdminToken))
	authGroup.POST("/sync/trigger", deps.Sync.Trigger)
	authGroup.GET("/sync/status", deps.Sync.Status)
	authGroup.GET("/sync/runs", deps.Sync.Runs)
	authGroup.POST("/format/preview", deps.Preview.Preview)
	authGroup.GET("/files/:key", deps.Files.Get)
}
