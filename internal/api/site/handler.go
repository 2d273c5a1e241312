package siteapi

import (
	"errors"
	"net/http"

	"layout-builder/database"
	"layout-builder/internal/domain/layout"
	"layout-builder/internal/domain/site"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PageDTO struct {
	ID       string `json:"id"`
	LegacyID *int64 `json:"legacy_id,omitempty"`
	Slug     string `json:"slug"`
	Title    string `json:"title"`
	Status   string `json:"status"`
}

type ListPagesResponse struct {
	Pages []PageDTO `json:"pages"`
}

type PutPageRequest struct {
	LegacyID *int64 `json:"legacy_id" binding:"omitempty,min=1"`
	Title    string `json:"title" binding:"required"`
	Content string `json:"content"`
	Status  string `json:"status" binding:"omitempty,oneof=draft published"`
}

type PutWidgetAreaRequest struct {
	Content string `json:"content"`
}

// GET /admin/pages
func ListPages(c *gin.Context) {
	var pages []site.Page
	if err := database.DB.WithContext(c.Request.Context()).
		Order("title ASC").
		Find(&pages).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load pages"})
		return
	}

	out := ListPagesResponse{Pages: make([]PageDTO, 0, len(pages))}
	for _, p := range pages {
		out.Pages = append(out.Pages, PageDTO{ID: p.ID, LegacyID: p.LegacyID, Slug: p.Slug, Title: p.Title, Status: p.Status})
	}
	c.JSON(http.StatusOK, out)
}

// PUT /admin/pages/:slug
func PutPage(c *gin.Context) {
	var req PutPageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Status == "" {
		req.Status = site.StatusDraft
	}

	p := site.Page{
		LegacyID: req.LegacyID,
		Slug:     layout.MakeSlug(c.Param("slug")),
		Title:    req.Title,
		Content:  req.Content,
		Status:   req.Status,
	}
	// an update without legacy_id keeps the stored mapping
	updates := []string{"title", "content", "status", "updated_at"}
	if req.LegacyID != nil {
		updates = append(updates, "legacy_id")
	}
	err := database.DB.WithContext(c.Request.Context()).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "slug"}},
			DoUpdates: clause.AssignmentColumns(updates),
		}).
		Create(&p).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save page"})
		return
	}
	c.JSON(http.StatusOK, PageDTO{ID: p.ID, LegacyID: p.LegacyID, Slug: p.Slug, Title: p.Title, Status: p.Status})
}

// DELETE /admin/pages/:slug
func DeletePage(c *gin.Context) {
	res := database.DB.WithContext(c.Request.Context()).
		Where("slug = ?", c.Param("slug")).
		Delete(&site.Page{})
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete page"})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Page not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// GET /admin/widgets/:sidebar
func GetWidgetArea(c *gin.Context) {
	var w site.WidgetArea
	err := database.DB.WithContext(c.Request.Context()).First(&w, "sidebar = ?", c.Param("sidebar")).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Widget area not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load widget area"})
		return
	}
	c.JSON(http.StatusOK, w)
}

// PUT /admin/widgets/:sidebar
func PutWidgetArea(c *gin.Context) {
	var req PutWidgetAreaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	w := site.WidgetArea{Sidebar: c.Param("sidebar"), Content: req.Content}
	if err := database.DB.WithContext(c.Request.Context()).Save(&w).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save widget area"})
		return
	}
	c.JSON(http.StatusOK, w)
}
