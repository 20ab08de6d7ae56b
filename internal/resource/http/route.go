package http

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts the resource catalog. Reads are public (optionalAuth only
// identifies admins for ?all=true); writes require an admin token.
func RegisterRoutes(g *gin.RouterGroup, h *Handler, optionalAuth, authMiddleware, adminMiddleware gin.HandlerFunc) {
	group := g.Group("/resources")

	group.GET("", optionalAuth, h.List)
	group.GET("/:id", h.Get)

	admin := group.Group("")
	admin.Use(authMiddleware, adminMiddleware)
	{
		admin.POST("", h.Create)
		admin.PATCH("/:id", h.Update)
		admin.POST("/:id/toggle-availability", h.ToggleBookable)
		admin.DELETE("/:id", h.Delete)
	}
}
