package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cppla/blogicum/blog"
	"github.com/cppla/blogicum/middleware"
	"github.com/cppla/blogicum/utils"
)

// PostController serves post listing, detail and the author's CRUD operations.
type PostController struct {
	svc *blog.Service
}

// NewPostController creates a new PostController instance.
func NewPostController(svc *blog.Service) *PostController {
	return &PostController{svc: svc}
}

// ListPosts returns the live posts, newest first.
func (p *PostController) ListPosts(ctx *gin.Context) {
	list, err := p.svc.ListPosts(ctx.Request.Context(), parsePage(ctx))
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, list)
}

// GetPost shows one post with its comments. Hidden posts are only shown to their author.
func (p *PostController) GetPost(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	viewer := middleware.CurrentViewer(ctx)
	detail, err := p.svc.PostDetail(ctx.Request.Context(), viewer, id)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{
		"post":         detail.Post,
		"comments":     detail.Comments,
		"is_live":      detail.Live,
		"can_modify":   blog.CanModify(viewer, detail.Post),
		"comment_form": blog.CommentInput{},
	})
}

// CreatePost publishes a post as the current user and points at their profile.
func (p *PostController) CreatePost(ctx *gin.Context) {
	var in blog.PostInput
	if err := ctx.ShouldBind(&in); err != nil {
		respondBindError(ctx, err)
		return
	}
	viewer := middleware.CurrentViewer(ctx)
	post, err := p.svc.CreatePost(ctx.Request.Context(), viewer, in)
	if err != nil {
		respondError(ctx, err)
		return
	}
	// The token may carry a username changed since login; the stored author is current.
	redirectTo(ctx, http.StatusCreated, profilePath(post.Author.Username), gin.H{"post": post})
}

// UpdatePost edits the current user's post. Anyone else is sent back to the detail page.
func (p *PostController) UpdatePost(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	viewer := middleware.CurrentViewer(ctx)
	if _, err := p.svc.EditablePost(ctx.Request.Context(), viewer, id); err != nil {
		p.respondUpdateError(ctx, id, err)
		return
	}

	var in blog.PostInput
	if err := ctx.ShouldBind(&in); err != nil {
		respondBindError(ctx, err)
		return
	}
	post, err := p.svc.UpdatePost(ctx.Request.Context(), viewer, id, in)
	if err != nil {
		p.respondUpdateError(ctx, id, err)
		return
	}
	redirectTo(ctx, http.StatusOK, postDetailPath(post.ID), gin.H{"post": post})
}

// DeletePost removes the current user's post with its comments.
func (p *PostController) DeletePost(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	if err := p.svc.DeletePost(ctx.Request.Context(), middleware.CurrentViewer(ctx), id); err != nil {
		respondError(ctx, err)
		return
	}
	redirectTo(ctx, http.StatusOK, indexPath(), nil)
}

func (p *PostController) respondUpdateError(ctx *gin.Context, postID uint, err error) {
	if errors.Is(err, blog.ErrForbidden) {
		utils.SeeOther(ctx, 30301, "only the author can edit this post", postDetailPath(postID))
		return
	}
	respondError(ctx, err)
}
