package router

import (
	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"

	"CareOnboard/config"
	"CareOnboard/internal/handler"
	"CareOnboard/internal/middleware"
)

func Register(h *server.Hertz) {
	h.Use(middleware.RecoverMiddleware())
	h.Use(middleware.CORSMiddleware(config.Cfg.CORSAllowedOrigins))
	h.Use(middleware.OpenTelemetryMiddleware())

	// 上传的附件，预览地址指向这里
	h.Static("/uploads", config.Cfg.UploadDir)

	v1 := h.Group("/v1")

	// 引导会话，不需要登录，会话 id 即凭证
	sessions := v1.Group("/onboarding/sessions")
	{
		sessions.POST("", handler.CreateOnboardingSession)
		sessions.GET("/:session_id", handler.GetOnboardingSession)
		sessions.GET("/:session_id/summary", handler.GetOnboardingSummary)

		verify := sessions.Group("/:session_id", limit(middleware.VerificationRateLimitMiddleware)...)
		{
			verify.POST("/phone", handler.SubmitPhone)
			verify.POST("/code", handler.SubmitCode)
		}

		sessions.PUT("/:session_id/steps/:step", handler.ReplaceStep)
		sessions.POST("/:session_id/next", handler.NextStep)
		sessions.POST("/:session_id/back", handler.PreviousStep)
		sessions.POST("/:session_id/attachments", append(limit(middleware.UploadRateLimitMiddleware), handler.UploadAttachment)...)
	}

	// 认证相关路由
	auth := v1.Group("/auth", limit(middleware.AuthRateLimitMiddleware)...)
	{
		auth.POST("/token/refresh", handler.RefreshToken)
		auth.POST("/sign-out", middleware.AuthMiddleware(), handler.SignOut)
	}

	// 护工工作台
	dashboard := v1.Group("/dashboard")
	dashboard.Use(middleware.AuthMiddleware())
	dashboard.Use(limit(middleware.GeneralRateLimitMiddleware)...)
	{
		dashboard.GET("/jobs", handler.ListJobs)
		dashboard.GET("/clock", handler.GetClock)
		dashboard.POST("/clock-in", handler.ClockIn)
		dashboard.POST("/clock-out", handler.ClockOut)
	}
}

// limit 限流开关关闭时不挂中间件
func limit(mw func() app.HandlerFunc) []app.HandlerFunc {
	if !config.Cfg.RateLimitEnabled {
		return nil
	}
	return []app.HandlerFunc{mw()}
}
