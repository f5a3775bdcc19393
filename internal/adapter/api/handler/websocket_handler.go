package handler

import (
	"context"
	"net/http"

	gorillaws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"lapakda/internal/domain/entity"
	ws "lapakda/internal/infrastructure/websocket"
	"lapakda/internal/usecase"
	"lapakda/pkg/errors"
	"lapakda/pkg/logger"
	"lapakda/pkg/response"
)

const (
	holdUnread = "unread"
	holdRoom   = "room"
)

type WebSocketHandler struct {
	manager     *ws.Manager
	chatUseCase *usecase.ChatUseCase
	upgrader    gorillaws.Upgrader
}

func NewWebSocketHandler(manager *ws.Manager, chatUseCase *usecase.ChatUseCase, allowedOrigins []string) *WebSocketHandler {
	h := &WebSocketHandler{
		manager:     manager,
		chatUseCase: chatUseCase,
		upgrader: gorillaws.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
	manager.Handle(h.onConnect, h.onMessage)
	return h
}

// originChecker allows every origin when the list is empty or holds "*".
func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || len(allowed) == 0 {
			return true
		}
		for _, o := range allowed {
			if o == "*" || o == origin {
				return true
			}
		}
		return false
	}
}

func (h *WebSocketHandler) HandleWebSocket(c echo.Context) error {
	userID := getUserIDFromContext(c)
	if userID == "" {
		return response.Error(c, errors.Unauthorized("Authentication required", nil))
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// the upgrader has already written the HTTP error
		logger.Warn("WebSocket: upgrade failed for user %s: %v", userID, err)
		return nil
	}

	h.manager.Serve(c.Request().Context(), ws.NewClient(userID, conn))
	return nil
}

// onConnect starts the live unread badge for the new connection.
func (h *WebSocketHandler) onConnect(ctx context.Context, client *ws.Client) {
	stop, err := h.chatUseCase.WatchUnreadCount(ctx, client.UserID, func(n int) {
		client.Push(ws.NewMessage(ws.TypeUnreadCount, "", map[string]int{"count": n}))
	})
	if err != nil {
		logger.Error("WebSocket: unread watch failed for user %s: %v", client.UserID, err)
		client.Push(ws.ErrorMessage("Unable to watch unread count"))
		return
	}
	client.Hold(holdUnread, stop)
}

func (h *WebSocketHandler) onMessage(ctx context.Context, client *ws.Client, msg ws.IncomingMessage) {
	switch msg.Type {
	case ws.TypeSubscribeRoom:
		roomID := msg.ChatID
		stop, err := h.chatUseCase.SubscribeToChatRoom(ctx, client.UserID, roomID, func(messages []*entity.ChatMessage) {
			client.Push(ws.NewMessage(ws.TypeMessages, roomID, messages))
		})
		if err != nil {
			client.Push(ws.ErrorMessage(errorText(err)))
			return
		}
		// one room per connection; a new subscription replaces the old one
		client.Hold(holdRoom, stop)

	case ws.TypeUnsubscribeRoom:
		client.Release(holdRoom)

	default:
		client.Push(ws.ErrorMessage("Unknown message type"))
	}
}

func errorText(err error) string {
	if appErr, ok := errors.As(err); ok {
		return appErr.Message
	}
	return "Internal server error"
}
