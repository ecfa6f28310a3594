package handler

import "github.com/gin-gonic/gin"

// RegisterAchievementRoutes mounts the achievement API on group. Mutating
// routes are wrapped with guard when it is non-nil.
func RegisterAchievementRoutes(group *gin.RouterGroup, h *AchievementHandler, guard gin.HandlerFunc) {
	achievements := group.Group("/achievements")
	achievements.GET("", h.List)
	achievements.GET("/export", h.Export)
	achievements.GET("/files/:fileId", h.Download)
	achievements.GET("/:id", h.Get)
	achievements.GET("/:id/file-url", h.FileURL)

	mutating := achievements.Group("")
	if guard != nil {
		mutating.Use(guard)
	}
	mutating.POST("", h.Create)
	mutating.PUT("/:id", h.Update)
	mutating.DELETE("/:id", h.Delete)
	mutating.POST("/:id/file", h.UploadFile)
}

// RegisterOpsRoutes mounts health, readiness and metrics endpoints.
func RegisterOpsRoutes(r gin.IRoutes, h *MetricsHandler) {
	r.GET("/health", h.Health)
	r.GET("/ready", h.Ready)
	r.GET("/metrics", h.Prometheus)
	r.GET("/metrics/summary", h.Summary)
}
