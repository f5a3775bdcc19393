package router

import (
	"github.com/labstack/echo/v4"

	"lapakda/internal/adapter/api/handler"
	"lapakda/internal/adapter/api/middleware"
)

// SetupWebSocketRouter mounts /ws. Browsers cannot set headers on the
// upgrade request, so the token may come as ?token=.
func SetupWebSocketRouter(e *echo.Echo, authMiddleware *middleware.AuthMiddleware) {
	wsHandler := handler.GetWebSocketHandler()
	if wsHandler == nil {
		return
	}
	e.GET("/ws", wsHandler.HandleWebSocket, authMiddleware.Authenticate)
}
