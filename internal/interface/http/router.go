package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/roamgrid/roamgrid/internal/domain/access"
	"github.com/roamgrid/roamgrid/internal/infra/config"
)

// NewRouter wires up middleware and handlers and returns a configured
// server. The authorizer middleware runs before every route; handlers can
// assume the request already passed the access table for its tier.
func NewRouter(cfg *config.Config, handler *Handler, authz *access.Authorizer) *http.Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(
		gin.Recovery(),
		requestLoggingMiddleware(handler.logger),
		corsMiddleware(cfg.HTTP.AllowedOrigins),
		rateLimitMiddleware(cfg.HTTP.RateLimit, handler.logger),
		errorHandlingMiddleware(handler.logger),
		authorizerMiddleware(authz, handler.policy),
	)

	api := router.Group("/api")
	{
		api.GET("/csrf", handler.CSRFToken)

		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", handler.Register)
			authGroup.POST("/login", handler.Login)
			authGroup.POST("/logout", handler.Logout)
			authGroup.GET("/session", handler.Session)
			authGroup.GET("/google", handler.GoogleStart)
			authGroup.GET("/google/callback", handler.GoogleCallback)
			authGroup.POST("/forgot-password", handler.ForgotPassword)
			authGroup.POST("/reset-password", handler.ResetPassword)
			authGroup.POST("/verify-email", handler.VerifyEmail)
			authGroup.GET("/wallet/nonce", handler.WalletNonce)
		}

		userGroup := api.Group("/user")
		{
			userGroup.GET("/profile", handler.Profile)
			userGroup.PATCH("/profile", handler.UpdateProfile)
			userGroup.POST("/profile/avatar", handler.UploadAvatar)
			userGroup.POST("/profile/verify-email", handler.RequestEmailVerification)
			userGroup.POST("/profile/wallet", handler.ConnectWallet)
			userGroup.DELETE("/profile/wallet", handler.DisconnectWallet)
		}

		wifiGroup := api.Group("/wifi")
		{
			wifiGroup.GET("", handler.ListWifi)
			wifiGroup.GET("/:id", handler.GetWifi)
			wifiGroup.POST("", handler.CreateWifi)
			wifiGroup.PATCH("/:id/update", handler.UpdateWifi)
			wifiGroup.DELETE("/:id", handler.DeleteWifi)
			wifiGroup.POST("/:id/security-report", handler.ReportWifiSecurity)
		}

		adminGroup := api.Group("/admin")
		{
			adminGroup.GET("/users", handler.ListUsers)
			adminGroup.PATCH("/users/:id/role", handler.UpdateUserRole)
		}

		api.POST("/cron/expire-reports", handler.ExpireReports)
	}

	return &http.Server{
		Addr:           cfg.HTTP.Address,
		Handler:        router,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		MaxHeaderBytes: 1 << 20,
	}
}
