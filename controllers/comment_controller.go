package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cppla/blogicum/blog"
	"github.com/cppla/blogicum/middleware"
)

// CommentController manages comments under a post.
type CommentController struct {
	svc *blog.Service
}

// NewCommentController creates a CommentController.
func NewCommentController(svc *blog.Service) *CommentController {
	return &CommentController{svc: svc}
}

// CreateComment adds a comment by the current user to a post they can see.
func (c *CommentController) CreateComment(ctx *gin.Context) {
	postID, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	var in blog.CommentInput
	if err := ctx.ShouldBind(&in); err != nil {
		respondBindError(ctx, err)
		return
	}
	comment, err := c.svc.CreateComment(ctx.Request.Context(), middleware.CurrentViewer(ctx), postID, in)
	if err != nil {
		respondError(ctx, err)
		return
	}
	redirectTo(ctx, http.StatusCreated, postDetailPath(postID), gin.H{"comment": comment})
}

// UpdateComment edits the current user's comment.
func (c *CommentController) UpdateComment(ctx *gin.Context) {
	postID, commentID, ok := commentPath(ctx)
	if !ok {
		return
	}
	viewer := middleware.CurrentViewer(ctx)
	if _, err := c.svc.EditableComment(ctx.Request.Context(), viewer, postID, commentID); err != nil {
		respondError(ctx, err)
		return
	}

	var in blog.CommentInput
	if err := ctx.ShouldBind(&in); err != nil {
		respondBindError(ctx, err)
		return
	}
	comment, err := c.svc.UpdateComment(ctx.Request.Context(), viewer, postID, commentID, in)
	if err != nil {
		respondError(ctx, err)
		return
	}
	redirectTo(ctx, http.StatusOK, postDetailPath(postID), gin.H{"comment": comment})
}

// DeleteComment removes the current user's comment.
func (c *CommentController) DeleteComment(ctx *gin.Context) {
	postID, commentID, ok := commentPath(ctx)
	if !ok {
		return
	}
	if err := c.svc.DeleteComment(ctx.Request.Context(), middleware.CurrentViewer(ctx), postID, commentID); err != nil {
		respondError(ctx, err)
		return
	}
	redirectTo(ctx, http.StatusOK, postDetailPath(postID), nil)
}

func commentPath(ctx *gin.Context) (uint, uint, bool) {
	postID, ok := parseID(ctx, "id")
	if !ok {
		return 0, 0, false
	}
	commentID, ok := parseID(ctx, "commentId")
	if !ok {
		return 0, 0, false
	}
	return postID, commentID, true
}
