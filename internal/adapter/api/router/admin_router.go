package router

import (
	"github.com/labstack/echo/v4"

	"lapakda/internal/adapter/api/handler"
	"lapakda/internal/adapter/api/middleware"
)

func SetupAdminRouter(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, adminMiddleware *middleware.AdminMiddleware) {
	adminHandler := handler.GetAdminHandler()

	admin := e.Group("/v1/admin")
	admin.Use(authMiddleware.Authenticate)
	admin.Use(adminMiddleware.AdminOnly)

	admin.GET("/orders", adminHandler.ListOrders)
	admin.GET("/orders/stats", adminHandler.OrderStats)
	admin.PUT("/orders/:id/status", adminHandler.UpdateOrderStatus)
	admin.PUT("/orders/:id/payment-status", adminHandler.UpdatePaymentStatus)
}
