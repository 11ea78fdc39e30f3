package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cppla/blogicum/blog"
	"github.com/cppla/blogicum/config"
	"github.com/cppla/blogicum/controllers"
	"github.com/cppla/blogicum/middleware"
	"github.com/cppla/blogicum/utils"
)

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(db *gorm.DB, cfg config.AppConfig, svc *blog.Service) *gin.Engine {
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}
	controllers.UseJSONFieldNames()

	r := gin.New()
	// Access log and panics go to their own rolling file.
	gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
	if err == nil {
		r.Use(utils.Ginzap(gl, time.RFC3339, true))
		r.Use(utils.RecoveryWithZap(gl, false))
	} else {
		r.Use(gin.Recovery())
	}

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length", "Location"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	if cfg.MediaRoot != "" && cfg.MediaURL != "" {
		r.Static(cfg.MediaURL, cfg.MediaRoot)
	}

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	authController := controllers.NewAuthController(db, cfg)
	postController := controllers.NewPostController(svc)
	commentController := controllers.NewCommentController(svc)
	profileController := controllers.NewProfileController(svc)
	categoryController := controllers.NewCategoryController(svc)
	adminController := controllers.NewAdminController(svc)

	limit := middleware.RateLimit(cfg.RateLimitPerMinute)
	auth := middleware.AuthRequired(cfg.JWTSecret)

	api := r.Group("/api/v1")

	authGroup := api.Group("/auth")
	authGroup.Use(limit)
	authGroup.POST("/register", authController.Register)
	authGroup.POST("/login", authController.Login)
	authGroup.GET("/captcha", authController.Captcha)
	authGroup.GET("/oauth/:provider/login", authController.OAuthRedirect)
	authGroup.GET("/oauth/:provider/callback", authController.OAuthCallback)
	authGroup.POST("/logout", auth, authController.Logout)
	authGroup.GET("/me", auth, authController.Me)

	public := api.Group("")
	public.Use(middleware.OptionalAuth(cfg.JWTSecret))
	public.GET("/posts", postController.ListPosts)
	public.GET("/posts/:id", postController.GetPost)
	public.GET("/profile/:username", profileController.GetProfile)
	public.GET("/category/:slug", categoryController.CategoryPosts)
	public.GET("/categories", categoryController.ListCategories)
	public.GET("/locations", categoryController.ListLocations)

	protected := api.Group("")
	protected.Use(auth, limit)
	protected.POST("/posts", postController.CreatePost)
	protected.PUT("/posts/:id", postController.UpdatePost)
	protected.PATCH("/posts/:id", postController.UpdatePost)
	protected.DELETE("/posts/:id", postController.DeletePost)
	protected.PATCH("/profile", profileController.UpdateProfile)
	protected.POST("/posts/:id/comments", commentController.CreateComment)
	protected.PUT("/posts/:id/comments/:commentId", commentController.UpdateComment)
	protected.PATCH("/posts/:id/comments/:commentId", commentController.UpdateComment)
	protected.DELETE("/posts/:id/comments/:commentId", commentController.DeleteComment)

	admin := api.Group("/admin")
	admin.Use(auth, middleware.AdminRequired(db, cfg))
	admin.GET("/posts", adminController.ListPosts)
	admin.POST("/categories", adminController.CreateCategory)
	admin.PUT("/categories/:id", adminController.UpdateCategory)
	admin.DELETE("/categories/:id", adminController.DeleteCategory)
	admin.POST("/locations", adminController.CreateLocation)
	admin.PUT("/locations/:id", adminController.UpdateLocation)
	admin.DELETE("/locations/:id", adminController.DeleteLocation)
	admin.DELETE("/users/:id", adminController.DeleteUser)

	r.NoRoute(func(ctx *gin.Context) {
		if strings.HasPrefix(ctx.Request.URL.Path, "/api/") {
			utils.Error(ctx, http.StatusNotFound, 40400, "api route not found")
			return
		}
		utils.Error(ctx, http.StatusNotFound, 40400, "not found")
	})

	return r
}
