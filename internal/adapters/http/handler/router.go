package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ogurasousui/codex-task-review/internal/adapters/http/middleware"
	"go.uber.org/zap"
)

// RouterConfig はルーター構築に必要な依存関係です。
type RouterConfig struct {
	BasePath      string
	Logger        *zap.Logger
	Authenticator *middleware.Authenticator
	Auth          *AuthHandler
	Employees     *EmployeeHandler
	Tasks         *TaskHandler
	Dashboard     *DashboardHandler
}

// NewRouter は API ルーティングを構成した gin.Engine を返します。
func NewRouter(cfg RouterConfig) *gin.Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := gin.New()
	r.Use(middleware.RequestLogger(logger), middleware.Recovery(logger))
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, envelope{Success: false, Message: "Route not found"})
	})

	api := r.Group(cfg.BasePath)
	api.GET("/health", Health)

	authn := cfg.Authenticator.Authenticate()
	requireAuth := middleware.RequireAuth()
	requireAdmin := middleware.RequireAdmin()

	authGroup := api.Group("/auth")
	authGroup.POST("/register", cfg.Auth.Register)
	authGroup.POST("/login", cfg.Auth.Login)
	authGroup.POST("/logout", authn, requireAuth, cfg.Auth.Logout)
	authGroup.GET("/me", authn, requireAuth, cfg.Auth.Me)

	employees := api.Group("/employees", authn)
	employees.GET("", cfg.Employees.List)
	employees.GET("/:id", cfg.Employees.Get)
	employees.POST("", requireAdmin, cfg.Employees.Create)
	employees.PUT("/:id", requireAdmin, cfg.Employees.Update)
	employees.DELETE("/:id", requireAdmin, cfg.Employees.Delete)

	tasks := api.Group("/tasks", authn, requireAuth)
	tasks.GET("", cfg.Tasks.List)
	tasks.GET("/:id", cfg.Tasks.Get)
	tasks.GET("/:id/history", cfg.Tasks.History)
	tasks.POST("", requireAdmin, cfg.Tasks.Create)
	tasks.PUT("/:id", requireAdmin, cfg.Tasks.Update)
	tasks.DELETE("/:id", requireAdmin, cfg.Tasks.Delete)
	tasks.POST("/:id/request-completion", cfg.Tasks.RequestCompletion)
	tasks.POST("/:id/approve-completion", requireAdmin, cfg.Tasks.ApproveCompletion)
	tasks.POST("/:id/reject-completion", requireAdmin, cfg.Tasks.RejectCompletion)

	api.GET("/dashboard", authn, requireAuth, cfg.Dashboard.Get)

	return r
}

// Health は GET /health を処理します。
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, envelope{Success: true, Message: "Server is running"})
}
