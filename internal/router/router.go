package router

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/edufeedback/backend/internal/config"
	"github.com/edufeedback/backend/internal/handler"
	"github.com/edufeedback/backend/internal/middleware"
	"github.com/edufeedback/backend/internal/policy"
	"github.com/edufeedback/backend/internal/response"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth     *handler.AuthHandler
	Feedback *handler.FeedbackHandler
	User     *handler.UserHandler
	WS       *handler.WSHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
// ctx bounds background work such as the rate limiter sweep.
func SetupRouter(
	ctx context.Context,
	tokens middleware.TokenValidator,
	guard *policy.Guard,
	handlers *Handlers,
	cfg *config.Config,
	log zerolog.Logger,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(gin.Recovery())

	// Apply request ID middleware globally so every response carries it.
	router.Use(response.RequestIDMiddleware())
	router.Use(middleware.RequestLogger(log.With().Str("component", "http").Logger()))

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	router.Use(middleware.Brotli())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	enforce := guard.Enforced()
	authenticate := middleware.Authenticate(tokens, enforce)

	// ─── 1. Public API ─────────────────────────────────────────────────
	api := router.Group("/api")
	api.Use(middleware.NoStore(), authenticate)
	{
		var authLimit gin.HandlerFunc = func(c *gin.Context) { c.Next() }
		if cfg.AuthRateLimit > 0 {
			authLimit = middleware.NewRateLimiter(ctx, cfg.AuthRateLimit, time.Minute).Middleware()
		}
		api.POST("/register", authLimit, handlers.Auth.Register)
		api.POST("/login", authLimit, handlers.Auth.Login)
		api.POST("/logout", handlers.Auth.Logout)
		api.GET("/me", handlers.Auth.Me)

		api.POST("/feedback", handlers.Feedback.Create)
		api.GET("/feedback/history/:userId", handlers.Feedback.History)
	}

	// ─── 2. Admin API ──────────────────────────────────────────────────
	admin := api.Group("/admin")
	admin.Use(middleware.RequireAdmin(guard))
	{
		admin.GET("/feedback", handlers.Feedback.ListAll)
		admin.DELETE("/feedback/:id", handlers.Feedback.Delete)
		admin.GET("/users", handlers.User.List)
		admin.DELETE("/users/:id", handlers.User.Delete)
	}

	// ─── 3. WebSocket ──────────────────────────────────────────────────
	// The change stream is always admin-only, whatever the auth mode.
	wsGroup := router.Group("/ws")
	wsGroup.Use(middleware.Authenticate(tokens, true), middleware.RequireAdmin(policy.NewGuard(true)))
	{
		wsGroup.GET("/admin/changes", handlers.WS.AdminChanges)
	}

	// ─── 4. Static frontend ────────────────────────────────────────────
	router.NoRoute(middleware.CacheControl(3600), staticFiles(cfg.PublicDir))

	return router
}

// staticFiles serves GET requests for unmatched paths from dir, falling
// back to index.html. Unknown API paths get a JSON 404.
func staticFiles(dir string) gin.HandlerFunc {
	root, _ := filepath.Abs(dir)

	return func(c *gin.Context) {
		path := c.Request.URL.Path
		readable := c.Request.Method == http.MethodGet || c.Request.Method == http.MethodHead
		if !readable || strings.HasPrefix(path, "/api/") || strings.HasPrefix(path, "/ws/") {
			c.Header("Cache-Control", "no-store")
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}

		file := filepath.Join(root, filepath.FromSlash(filepath.Clean("/"+path)))
		if info, err := os.Stat(file); err != nil || info.IsDir() {
			file = filepath.Join(root, "index.html")
		}
		if _, err := os.Stat(file); err != nil {
			c.Header("Cache-Control", "no-store")
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}

		c.File(file)
	}
}
