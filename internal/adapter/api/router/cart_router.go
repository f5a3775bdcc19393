package router

import (
	"github.com/labstack/echo/v4"

	"lapakda/internal/adapter/api/handler"
	"lapakda/internal/adapter/api/middleware"
)

func SetupCartRouter(e *echo.Echo, authMiddleware *middleware.AuthMiddleware) {
	cartHandler := handler.GetCartHandler()

	cart := e.Group("/v1/cart")
	cart.Use(authMiddleware.Authenticate)

	cart.GET("", cartHandler.GetCart)
	cart.POST("", cartHandler.AddToCart)
	cart.PUT("/:id", cartHandler.UpdateQuantity)
	cart.DELETE("/:id", cartHandler.RemoveItem)
}
