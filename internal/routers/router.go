package routers

import (
	"github.com/haierkeys/fast-note-web/internal/app"
	"github.com/haierkeys/fast-note-web/internal/guard"
	"github.com/haierkeys/fast-note-web/internal/middleware"
	"github.com/haierkeys/fast-note-web/internal/routers/api_router"
	"github.com/haierkeys/fast-note-web/pkg/limiter"

	"github.com/gin-gonic/gin"
	ut "github.com/go-playground/universal-translator"
)

// Paths limited by the auth rate limiter
// 受认证限流保护的路径
var limitedPaths = []string{"/login", "/register", "/forgot-password", "/update-password"}

func newMethodLimiter(cfg *app.AppConfig) limiter.Face {
	l := limiter.NewMethodLimiter()
	for _, p := range limitedPaths {
		l.AddBuckets(limiter.BucketRule{
			Key:          p,
			FillInterval: cfg.GetRateLimitInterval(),
			Capacity:     cfg.Security.RateLimitCapacity,
			Quantum:      1,
		})
	}
	return l
}

func NewRouter(appContainer *app.App, uni *ut.UniversalTranslator) *gin.Engine {

	// 获取配置
	cfg := appContainer.Config()
	lg := appContainer.Logger()

	r := gin.New()

	r.Use(middleware.AppInfo(app.Name, appContainer.Version().Version))
	r.Use(middleware.TraceMiddleware(middleware.TraceConfig{Enabled: cfg.Tracer.Enabled, Header: cfg.Tracer.Header})) // Trace ID 中间件
	r.Use(middleware.RateLimiter(newMethodLimiter(cfg)))
	r.Use(middleware.ContextTimeout(cfg.GetContextTimeout()))
	r.Use(middleware.LangWithTranslator(uni))
	r.Use(middleware.AccessLogWithLogger(lg))
	r.Use(middleware.RecoveryWithLogger(lg))

	// 创建 Handlers（注入 App Container）
	accountHandler := api_router.NewAccountHandler(appContainer)
	recoveryHandler := api_router.NewRecoveryHandler(appContainer)
	dashboardHandler := api_router.NewDashboardHandler(appContainer)
	noteHandler := api_router.NewNoteHandler(appContainer)
	versionHandler := api_router.NewVersionHandler(appContainer)
	healthHandler := api_router.NewHealthHandler(appContainer)

	// 无需工作区的接口
	r.GET("/api/version", versionHandler.ServerVersion)
	r.GET("/api/health", healthHandler.Check)

	web := r.Group("/")
	web.Use(middleware.Workspace(appContainer.Workspaces, middleware.CookieConfig{
		Name:   cfg.Workspace.CookieName,
		Secure: cfg.Workspace.CookieSecure,
	}, lg))
	{
		web.GET("/", accountHandler.Home)
		web.GET("/api/session", accountHandler.Session)
		web.POST("/register", accountHandler.Register)
		web.POST("/login", accountHandler.Login)
		web.POST("/logout", accountHandler.Logout)
		web.POST("/forgot-password", accountHandler.ForgotPassword)

		web.GET("/update-password", recoveryHandler.Open)
		web.POST("/update-password/check", recoveryHandler.Check)
		web.POST("/update-password", recoveryHandler.Update)

		wait := cfg.GetSessionWait()

		create := web.Group("/create", middleware.RequireAuth(guard.Wrapper, wait))
		{
			create.GET("", noteHandler.Draft)
			create.POST("", noteHandler.Create)
		}

		dashboard := web.Group("/dashboard", middleware.RequireAuth(guard.Nested, wait))
		{
			dashboard.GET("", dashboardHandler.List)
			dashboard.POST("/search", dashboardHandler.Search)
			dashboard.POST("/page", dashboardHandler.Page)
			dashboard.DELETE("/notes/:id", dashboardHandler.Delete)
		}

		note := web.Group("/notes/:id", middleware.RequireAuth(guard.Nested, wait))
		{
			note.GET("", noteHandler.Get)
			note.POST("/edit", noteHandler.Edit)
			note.POST("/keydown", noteHandler.KeyDown)
			note.POST("/focus", noteHandler.Focus)
			note.POST("/dblclick", noteHandler.DoubleClick)
			note.POST("/input", noteHandler.Input)
			note.POST("/cancel", noteHandler.Cancel)
			note.POST("/save", noteHandler.Save)
			note.POST("/delete/request", noteHandler.DeleteRequest)
			note.POST("/delete/dismiss", noteHandler.DeleteDismiss)
			note.POST("/delete/confirm", noteHandler.DeleteConfirm)
		}
	}

	r.NoRoute(middleware.NoFound())

	return r
}
