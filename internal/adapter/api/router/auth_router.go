package router

import (
	"github.com/labstack/echo/v4"

	"lapakda/internal/adapter/api/handler"
	"lapakda/internal/adapter/api/middleware"
	"lapakda/internal/infrastructure/ratelimit"
)

func SetupAuthRouter(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, limiter *ratelimit.RateLimiter) {
	authHandler := handler.GetAuthHandler()

	// Public routes, throttled per client IP
	public := e.Group("/v1/auth")
	public.Use(middleware.RateLimit(limiter, ratelimit.ActionAuthRequest))
	public.POST("/register", authHandler.Register)
	public.POST("/login", authHandler.Login)
	public.POST("/refresh", authHandler.RefreshToken)

	protected := e.Group("/v1/auth")
	protected.Use(authMiddleware.Authenticate)
	protected.POST("/logout", authHandler.Logout)
}
