package controllers

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cppla/blogicum/blog"
	"github.com/cppla/blogicum/utils"
)

// CategoryController serves category pages and the choices used by post forms.
type CategoryController struct {
	svc *blog.Service
}

// NewCategoryController creates a CategoryController.
func NewCategoryController(svc *blog.Service) *CategoryController {
	return &CategoryController{svc: svc}
}

// CategoryPosts lists the live posts of a published category.
func (c *CategoryController) CategoryPosts(ctx *gin.Context) {
	res, err := c.svc.CategoryPosts(ctx.Request.Context(), strings.TrimSpace(ctx.Param("slug")), parsePage(ctx))
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, res)
}

// ListCategories returns the published categories.
func (c *CategoryController) ListCategories(ctx *gin.Context) {
	categories, err := c.svc.Categories(ctx.Request.Context())
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"items": categories})
}

// ListLocations returns the published locations.
func (c *CategoryController) ListLocations(ctx *gin.Context) {
	locations, err := c.svc.Locations(ctx.Request.Context())
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"items": locations})
}
