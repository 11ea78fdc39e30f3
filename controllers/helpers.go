package controllers

import (
	"errors"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/cppla/blogicum/blog"
	"github.com/cppla/blogicum/utils"
)

const apiPrefix = "/api/v1"

// UseJSONFieldNames makes validator report json tag names instead of Go field names.
func UseJSONFieldNames() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			name = strings.SplitN(f.Tag.Get("form"), ",", 2)[0]
		}
		if name == "-" {
			return ""
		}
		return name
	})
}

func indexPath() string { return apiPrefix + "/posts" }

func postDetailPath(postID uint) string {
	return apiPrefix + "/posts/" + strconv.FormatUint(uint64(postID), 10)
}

func profilePath(username string) string { return apiPrefix + "/profile/" + username }

// parseID reads a positive numeric path parameter. A malformed id cannot name a
// record, so it is answered like a missing one.
func parseID(ctx *gin.Context, name string) (uint, bool) {
	n, err := strconv.ParseUint(strings.TrimSpace(ctx.Param(name)), 10, 64)
	if err != nil || n == 0 {
		utils.Error(ctx, http.StatusNotFound, 40400, "not found")
		return 0, false
	}
	return uint(n), true
}

// parsePage reads the page query parameter; anything unusable means page 1.
func parsePage(ctx *gin.Context) int {
	n, err := strconv.Atoi(strings.TrimSpace(ctx.Query("page")))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// respondError maps service errors onto HTTP responses.
func respondError(ctx *gin.Context, err error) {
	var verr *blog.ValidationError
	switch {
	case errors.As(err, &verr):
		utils.ValidationFailed(ctx, 40001, verr.Fields)
	case errors.Is(err, blog.ErrNotFound):
		utils.Error(ctx, http.StatusNotFound, 40401, "not found")
	case errors.Is(err, blog.ErrForbidden):
		utils.Error(ctx, http.StatusForbidden, 40301, "you are not the author")
	case errors.Is(err, blog.ErrUnauthenticated):
		utils.Error(ctx, http.StatusUnauthorized, 40101, "authentication required")
	default:
		utils.Logger.Error("request failed",
			zap.String("method", ctx.Request.Method),
			zap.String("path", ctx.Request.URL.Path),
			zap.Error(err))
		_ = ctx.Error(err)
		utils.Error(ctx, http.StatusInternalServerError, 50000, "internal server error")
	}
}

// respondBindError reports binding failures as field errors.
func respondBindError(ctx *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		utils.ValidationFailed(ctx, 40002, map[string]string{"non_field_errors": "invalid request payload"})
		return
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		name := fe.Field()
		if _, seen := fields[name]; seen {
			continue
		}
		fields[name] = fieldMessage(fe)
	}
	utils.ValidationFailed(ctx, 40001, fields)
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "email":
		return "enter a valid email address"
	case "min":
		return "must be at least " + fe.Param() + " characters"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "eqfield":
		return "must match " + fe.Param()
	default:
		return "invalid value"
	}
}

// redirectTo answers a successful mutation with the location the client should show next.
func redirectTo(ctx *gin.Context, status int, location string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	data["redirect"] = location
	utils.Respond(ctx, status, 0, "success", data)
}
