package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/cppla/blogicum/blog"
	"github.com/cppla/blogicum/config"
	"github.com/cppla/blogicum/models"
	"github.com/cppla/blogicum/utils"
)

const (
	// ContextUserIDKey is the key used to store authenticated user ID in Gin context.
	ContextUserIDKey = "user_id"
	// ContextUsernameKey stores the username inside Gin context.
	ContextUsernameKey = "username"
	// ContextTokenKey stores the raw bearer token so logout can revoke it.
	ContextTokenKey = "token"
	// ContextTokenExpiryKey stores the token expiry as time.Time.
	ContextTokenExpiryKey = "token_expires_at"
)

// AuthRequired ensures the request is authenticated via JWT.
func AuthRequired(secret string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		authHeader := ctx.GetHeader("Authorization")
		if authHeader == "" {
			utils.Error(ctx, http.StatusUnauthorized, 40101, "authorization header missing")
			ctx.Abort()
			return
		}

		tokenString, ok := bearerToken(authHeader)
		if !ok {
			utils.Error(ctx, http.StatusUnauthorized, 40102, "invalid authorization header format")
			ctx.Abort()
			return
		}
		if tokenString == "" {
			utils.Error(ctx, http.StatusUnauthorized, 40103, "empty bearer token")
			ctx.Abort()
			return
		}

		if utils.IsTokenRevoked(tokenString) {
			utils.Error(ctx, http.StatusUnauthorized, 40104, "token revoked")
			ctx.Abort()
			return
		}

		claims, err := utils.ParseToken(secret, tokenString)
		if err != nil {
			utils.Error(ctx, http.StatusUnauthorized, 40105, "invalid token")
			ctx.Abort()
			return
		}

		setIdentity(ctx, tokenString, claims)
		ctx.Next()
	}
}

// OptionalAuth identifies the viewer when a valid bearer token is present and
// otherwise lets the request through as anonymous.
func OptionalAuth(secret string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		tokenString, ok := bearerToken(ctx.GetHeader("Authorization"))
		if ok && tokenString != "" && !utils.IsTokenRevoked(tokenString) {
			if claims, err := utils.ParseToken(secret, tokenString); err == nil {
				setIdentity(ctx, tokenString, claims)
			}
		}
		ctx.Next()
	}
}

// AdminRequired must run after AuthRequired; it admits configured admin usernames only.
// The username is read from the database so a rename takes effect immediately.
func AdminRequired(db *gorm.DB, cfg config.AppConfig) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		var user models.User
		err := db.WithContext(ctx.Request.Context()).Select("id", "username").
			First(&user, CurrentViewer(ctx).ID).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Logger.Error("load admin candidate", zap.Error(err))
			utils.Error(ctx, http.StatusInternalServerError, 50000, "internal server error")
			ctx.Abort()
			return
		}
		if err != nil || !cfg.IsAdmin(user.Username) {
			utils.Error(ctx, http.StatusForbidden, 40301, "admin privileges required")
			ctx.Abort()
			return
		}
		ctx.Next()
	}
}

// CurrentViewer returns the identity set by the auth middleware, or an anonymous viewer.
func CurrentViewer(ctx *gin.Context) blog.Viewer {
	id, ok := ctx.Get(ContextUserIDKey)
	if !ok {
		return blog.Anonymous()
	}
	uid, _ := id.(uint)
	return blog.Viewer{ID: uid, Username: ctx.GetString(ContextUsernameKey)}
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}

func setIdentity(ctx *gin.Context, token string, claims *utils.Claims) {
	ctx.Set(ContextUserIDKey, claims.UserID)
	ctx.Set(ContextUsernameKey, claims.Username)
	ctx.Set(ContextTokenKey, token)
	if claims.ExpiresAt != nil {
		ctx.Set(ContextTokenExpiryKey, claims.ExpiresAt.Time)
	} else {
		ctx.Set(ContextTokenExpiryKey, time.Time{})
	}
}
