package router

import (
	"github.com/labstack/echo/v4"

	"lapakda/internal/adapter/api/handler"
	"lapakda/internal/adapter/api/middleware"
)

func SetupChatRouter(e *echo.Echo, authMiddleware *middleware.AuthMiddleware) {
	chatHandler := handler.GetChatHandler()

	chats := e.Group("/v1/chats")
	chats.Use(authMiddleware.Authenticate)

	chats.POST("", chatHandler.CreateChat)
	chats.GET("", chatHandler.ListChats)
	chats.POST("/inquiry", chatHandler.StartInquiry)
	chats.GET("/unread-count", chatHandler.UnreadCount)

	chats.GET("/:id", chatHandler.GetChat)
	chats.DELETE("/:id", chatHandler.DeleteChat)
	chats.PUT("/:id/read", chatHandler.MarkAsRead)
	chats.POST("/:id/images", chatHandler.UploadImage)

	chats.GET("/:id/messages", chatHandler.GetMessages)
	chats.POST("/:id/messages", chatHandler.SendMessage)
	chats.PUT("/:id/messages/:messageId/read", chatHandler.MarkMessageAsRead)
}
