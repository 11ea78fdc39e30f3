package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cppla/blogicum/blog"
	"github.com/cppla/blogicum/utils"
)

// AdminController exposes site administration to configured admin users.
type AdminController struct {
	svc *blog.Service
}

// NewAdminController creates an AdminController.
func NewAdminController(svc *blog.Service) *AdminController {
	return &AdminController{svc: svc}
}

// ListPosts returns all posts including hidden ones.
func (a *AdminController) ListPosts(ctx *gin.Context) {
	list, err := a.svc.AllPosts(ctx.Request.Context(), parsePage(ctx))
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, list)
}

func (a *AdminController) CreateCategory(ctx *gin.Context) {
	var in blog.CategoryInput
	if err := ctx.ShouldBindJSON(&in); err != nil {
		respondBindError(ctx, err)
		return
	}
	category, err := a.svc.CreateCategory(ctx.Request.Context(), in)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Respond(ctx, http.StatusCreated, 0, "success", gin.H{"category": category})
}

func (a *AdminController) UpdateCategory(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	var in blog.CategoryInput
	if err := ctx.ShouldBindJSON(&in); err != nil {
		respondBindError(ctx, err)
		return
	}
	category, err := a.svc.UpdateCategory(ctx.Request.Context(), id, in)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"category": category})
}

// DeleteCategory removes a category; its posts become uncategorized.
func (a *AdminController) DeleteCategory(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	if err := a.svc.DeleteCategory(ctx.Request.Context(), id); err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"deleted": id})
}

func (a *AdminController) CreateLocation(ctx *gin.Context) {
	var in blog.LocationInput
	if err := ctx.ShouldBindJSON(&in); err != nil {
		respondBindError(ctx, err)
		return
	}
	location, err := a.svc.CreateLocation(ctx.Request.Context(), in)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Respond(ctx, http.StatusCreated, 0, "success", gin.H{"location": location})
}

func (a *AdminController) UpdateLocation(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	var in blog.LocationInput
	if err := ctx.ShouldBindJSON(&in); err != nil {
		respondBindError(ctx, err)
		return
	}
	location, err := a.svc.UpdateLocation(ctx.Request.Context(), id, in)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"location": location})
}

// DeleteLocation removes a location; its posts keep existing without one.
func (a *AdminController) DeleteLocation(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	if err := a.svc.DeleteLocation(ctx.Request.Context(), id); err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"deleted": id})
}

// DeleteUser removes an account with all posts and comments it authored.
func (a *AdminController) DeleteUser(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	if err := a.svc.DeleteUser(ctx.Request.Context(), id); err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"deleted": id})
}
