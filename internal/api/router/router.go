package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/francovalli123/StudyO/config"
	"github.com/francovalli123/StudyO/internal/api/handler"
	"github.com/francovalli123/StudyO/internal/api/middleware"
	"github.com/francovalli123/StudyO/pkg/jwt"
	"github.com/francovalli123/StudyO/pkg/redis"
)

// Setup 初始化并返回 Gin 路由引擎
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(1 << 20)) // 1MB

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 认证模块（无需认证，限速防爆破）
		auth := v1.Group("/auth")
		auth.Use(middleware.RateLimit(rdb, 20, time.Minute))
		{
			auth.POST("/register", h.Auth.Register)
			auth.POST("/login", h.Auth.Login)
			auth.POST("/refresh", h.Auth.Refresh)
			auth.POST("/forgot-password", h.Auth.ForgotPassword)
			auth.POST("/reset-password", h.Auth.ResetPassword)
		}

		// 需要认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, rdb, logger))
		{
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.PUT("/auth/password", h.Auth.ChangePassword)

			// 用户模块
			users := authorized.Group("/users")
			{
				users.GET("/me", h.User.GetProfile)
				users.PUT("/me", h.User.UpdateProfile)
				users.PUT("/me/notification-preferences", h.User.UpdateNotificationPreferences)
			}

			// 学科模块
			subjects := authorized.Group("/subjects")
			{
				subjects.GET("", h.Subject.ListSubjects)
				subjects.POST("", h.Subject.CreateSubject)
				subjects.PUT("/:id", h.Subject.UpdateSubject)
				subjects.DELETE("/:id", h.Subject.DeleteSubject)
			}

			// 专注会话模块
			sessions := authorized.Group("/sessions")
			{
				sessions.GET("", h.Pomodoro.ListSessions)
				sessions.POST("", h.Pomodoro.CreateSession)
				sessions.DELETE("/:id", h.Pomodoro.DeleteSession)
			}

			// 周挑战模块
			challenges := authorized.Group("/challenges")
			{
				challenges.GET("/active", h.Challenge.GetActiveChallenge)
				challenges.GET("", h.Challenge.ListChallengeHistory)
			}

			// 周目标模块
			objectives := authorized.Group("/objectives")
			{
				objectives.GET("", h.Objective.ListObjectives)
				objectives.POST("", h.Objective.CreateObjective)
				objectives.GET("/stats", h.Objective.GetObjectiveStats)
				objectives.GET("/history", h.Objective.ListObjectiveHistory)
				objectives.PUT("/:id", h.Objective.UpdateObjective)
				objectives.DELETE("/:id", h.Objective.DeleteObjective)
			}

			// 习惯模块
			habits := authorized.Group("/habits")
			{
				habits.GET("", h.Habit.ListHabits)
				habits.POST("", h.Habit.CreateHabit)
				habits.PUT("/:id", h.Habit.UpdateHabit)
				habits.DELETE("/:id", h.Habit.DeleteHabit)
				habits.POST("/:id/check-in", h.Habit.CheckInHabit)
			}

			// 导出模块
			export := authorized.Group("/export")
			{
				export.GET("/progress", h.Export.ExportProgress)
				export.GET("/sessions.ics", h.Export.ExportSessions)
			}
		}
	}

	return r
}
