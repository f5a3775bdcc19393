package router

import (
	"github.com/labstack/echo/v4"

	"lapakda/internal/adapter/api/handler"
	"lapakda/internal/adapter/api/middleware"
)

func SetupAddressRouter(e *echo.Echo, authMiddleware *middleware.AuthMiddleware) {
	addressHandler := handler.GetAddressHandler()

	addresses := e.Group("/v1/addresses")
	addresses.Use(authMiddleware.Authenticate)

	addresses.GET("", addressHandler.ListAddresses)
	addresses.POST("", addressHandler.AddAddress)
	addresses.GET("/:id", addressHandler.GetAddress)
	addresses.PUT("/:id", addressHandler.UpdateAddress)
	addresses.DELETE("/:id", addressHandler.DeleteAddress)
}
