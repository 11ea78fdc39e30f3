package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cppla/blogicum/blog"
	"github.com/cppla/blogicum/middleware"
	"github.com/cppla/blogicum/utils"
)

// ProfileController serves user profile pages.
type ProfileController struct {
	svc *blog.Service
}

// NewProfileController creates a ProfileController.
func NewProfileController(svc *blog.Service) *ProfileController {
	return &ProfileController{svc: svc}
}

// GetProfile lists a user's posts, newest first.
func (p *ProfileController) GetProfile(ctx *gin.Context) {
	username := strings.TrimSpace(ctx.Param("username"))
	viewer := middleware.CurrentViewer(ctx)
	profile, err := p.svc.Profile(ctx.Request.Context(), viewer, username, parsePage(ctx))
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{
		"profile":  profile.User,
		"posts":    profile.Posts,
		"is_owner": viewer.Authenticated() && viewer.ID == profile.User.ID,
	})
}

// UpdateProfile changes the current user's own account fields.
func (p *ProfileController) UpdateProfile(ctx *gin.Context) {
	var in blog.ProfileInput
	if err := ctx.ShouldBind(&in); err != nil {
		respondBindError(ctx, err)
		return
	}
	user, err := p.svc.UpdateProfile(ctx.Request.Context(), middleware.CurrentViewer(ctx), in)
	if err != nil {
		respondError(ctx, err)
		return
	}
	redirectTo(ctx, http.StatusOK, profilePath(user.Username), gin.H{"profile": user})
}
