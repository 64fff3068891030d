package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/notaflow/notaflow/internal/middleware"
)

type RouterDeps struct {
	Auth           *AuthHandler
	Notes          *NoteHandler
	Profiles       *ProfileHandler
	Images         *ImageHandler
	Files          *FileHandler
	Export         *ExportHandler
	JWTSecret      []byte
	AuthRateWindow time.Duration
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	authLimit := middleware.RateLimit(deps.AuthRateWindow)
	api.POST("/auth/register", authLimit, deps.Auth.Register)
	api.POST("/auth/login", authLimit, deps.Auth.Login)

	authGroup := api.Group("")
	authGroup.Use(middleware.JWTAuth(deps.JWTSecret))

	authGroup.POST("/notes", deps.Notes.Create)
	authGroup.GET("/notes", deps.Notes.List)
	authGroup.GET("/notes/:id", deps.Notes.Get)
	authGroup.PUT("/notes/:id", deps.Notes.Update)
	authGroup.PUT("/notes/:id/pin", deps.Notes.Pin)
	authGroup.DELETE("/notes/:id", deps.Notes.Delete)
	authGroup.GET("/notes/:id/export", deps.Export.Export)

	authGroup.GET("/profile", deps.Profiles.Get)
	authGroup.PUT("/profile", deps.Profiles.Update)
	authGroup.POST("/profile/avatar", deps.Profiles.UploadAvatar)

	authGroup.POST("/images", deps.Images.Upload)
	authGroup.GET("/images", deps.Images.List)
	authGroup.DELETE("/images/:id", deps.Images.Delete)

	api.GET("/files/*key", deps.Files.Get)
}
