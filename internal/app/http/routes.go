package routes

import (
	"layout-builder/internal/api/builder"
	renderapi "layout-builder/internal/api/render"
	siteapi "layout-builder/internal/api/site"
	"layout-builder/internal/app/http/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.Engine, b *builder.Handler, rh *renderapi.Handler) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Front end
	r.GET("/layouts/:id/render", rh.Render)
	r.POST("/layouts/:id/render", rh.RenderForPost)

	// Editor
	admin := r.Group("/admin")
	admin.Use(middleware.AuthMiddleware(), middleware.RequireRole("admin"))
	admin.Use(middleware.SanitizeFields("name", "label", "title"))

	admin.GET("/elements", b.ListCatalog)

	admin.GET("/layouts", b.ListLayouts)
	admin.POST("/layouts", b.CreateLayout)
	admin.GET("/layouts/:id", b.GetLayout)
	admin.PUT("/layouts/:id", b.SaveLayout)
	admin.DELETE("/layouts/:id", b.DeleteLayout)

	admin.POST("/layouts/:id/template", b.ApplyTemplate)
	admin.POST("/layouts/:id/clear", b.Clear)

	admin.POST("/layouts/:id/sections", b.AddSection)
	admin.DELETE("/layouts/:id/sections/:sid", b.DeleteSection)
	admin.POST("/layouts/:id/sections/:sid/elements", b.AddElement)

	admin.DELETE("/layouts/:id/elements/:eid", b.DeleteElement)
	admin.POST("/layouts/:id/elements/:eid/duplicate", b.DuplicateElement)
	admin.PUT("/layouts/:id/elements/:eid/move", b.MoveElement)
	admin.POST("/layouts/:id/elements/:eid/columns/:col/blocks", b.AddBlock)
	admin.DELETE("/layouts/:id/elements/:eid/blocks/:bid", b.DeleteBlock)

	admin.POST("/layouts/:id/blocks/:bid/duplicate", b.DuplicateBlock)
	admin.PUT("/layouts/:id/blocks/:bid/move", b.MoveBlock)

	// Content referenced by page and widget blocks
	admin.GET("/pages", siteapi.ListPages)
	admin.PUT("/pages/:slug", siteapi.PutPage)
	admin.DELETE("/pages/:slug", siteapi.DeletePage)
	admin.GET("/widgets/:sidebar", siteapi.GetWidgetArea)
	admin.PUT("/widgets/:sidebar", siteapi.PutWidgetArea)
}
