package router

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"absensi-kampus/backend/config"
	"absensi-kampus/backend/internal/api/handler"
	"absensi-kampus/backend/internal/api/middleware"
	"absensi-kampus/backend/internal/model"
	"absensi-kampus/backend/pkg/jwt"
	"absensi-kampus/backend/pkg/metrics"
	"absensi-kampus/backend/pkg/redis"
	"absensi-kampus/backend/pkg/response"
)

const maxBodyBytes = 1 << 20

// Setup 初始化并返回 Gin 路由引擎
// rdb 为 nil 时禁用 Token 黑名单与登录限流
func Setup(
	cfg *config.Config,
	h *handler.Handler,
	jwtMgr *jwt.Manager,
	rdb *redis.Client,
	m metrics.Metrics,
	logger *zap.Logger,
) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// 避免 nil 指针装入接口后判空失效
	var tokens middleware.TokenChecker
	var limiter middleware.RateLimiter
	if rdb != nil {
		tokens = rdb
		limiter = rdb
	}

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(m.Middleware())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(maxBodyBytes))

	// ── 健康检查 / 指标 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(m.Handler()))

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 认证模块（无需认证）
		auth := v1.Group("/auth")
		{
			auth.POST("/register", h.Auth.Register)
			auth.POST("/login", middleware.RateLimit(limiter, cfg.Auth.LoginRateLimit, time.Minute, logger), h.Auth.Login)
			auth.POST("/refresh", h.Auth.RefreshToken)
		}

		v1.GET("/campus", h.Campus.Get)

		// 需要认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, tokens, logger))
		{
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.GET("/auth/me", h.Auth.GetCurrentUser)

			// 签到模块
			authorized.POST("/attendance", h.Attendance.Submit)
			authorized.GET("/attendance/me", h.Attendance.ListMine)

			// 管理模块（角色由中间件校验，Service 层不做鉴权）
			admin := authorized.Group("/admin")
			admin.Use(middleware.RoleAuth(model.RoleAdmin))
			{
				admin.POST("/codes", h.Code.Issue)
				admin.GET("/codes", h.Code.ListRecent)
				admin.GET("/codes/:code/qr", h.Code.QRCode)
				admin.GET("/attendances", h.Attendance.List)
				admin.PUT("/campus", h.Campus.Update)
				admin.GET("/export", h.Export.ExportAttendances)
			}
		}
	}

	// ── 前端静态文件 ──
	if dir := cfg.Server.StaticDir; dir != "" {
		r.NoRoute(staticFiles(dir))
	}

	return r
}

// staticFiles 未匹配的 GET 请求交给静态文件服务，/api 前缀始终返回 JSON 404
func staticFiles(dir string) gin.HandlerFunc {
	fileServer := http.FileServer(http.Dir(dir))

	return func(c *gin.Context) {
		method := c.Request.Method
		if (method != http.MethodGet && method != http.MethodHead) ||
			strings.HasPrefix(c.Request.URL.Path, "/api/") {
			response.NotFound(c, 10404, "Not found")
			return
		}

		fileServer.ServeHTTP(c.Writer, c.Request)
	}
}
