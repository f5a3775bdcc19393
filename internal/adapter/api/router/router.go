package router

import (
	"github.com/labstack/echo/v4"

	"lapakda/internal/adapter/api/middleware"
	"lapakda/internal/infrastructure/ratelimit"
)

// Setup mounts every route. handler.Setup (and handler.SetupWebSocket) must
// have run first.
func Setup(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, adminMiddleware *middleware.AdminMiddleware, limiter *ratelimit.RateLimiter) {
	SetupHealthRouter(e)
	SetupAuthRouter(e, authMiddleware, limiter)
	SetupUserRouter(e, authMiddleware)
	SetupProductRouter(e, authMiddleware)
	SetupCartRouter(e, authMiddleware)
	SetupAddressRouter(e, authMiddleware)
	SetupOrderRouter(e, authMiddleware)
	SetupAdminRouter(e, authMiddleware, adminMiddleware)
	SetupChatRouter(e, authMiddleware)
	SetupFileRouter(e, authMiddleware)
	SetupWebSocketRouter(e, authMiddleware)
}
