package websocket

import (
	"encoding/json"
	"time"
)

// Frame types exchanged over /ws.
const (
	TypePing            = "ping"
	TypePong            = "pong"
	TypeError           = "error"
	TypeSubscribeRoom   = "subscribe_room"
	TypeUnsubscribeRoom = "unsubscribe_room"
	TypeMessages        = "messages"
	TypeUnreadCount     = "unread_count"
	TypeChatListUpdate  = "chat_list_update"
)

type WSMessage struct {
	Type      string      `json:"type"`
	ChatID    string      `json:"chat_id,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp string      `json:"timestamp"`
}

func NewMessage(msgType, chatID string, data interface{}) WSMessage {
	return WSMessage{
		Type:      msgType,
		ChatID:    chatID,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

func ErrorMessage(text string) WSMessage {
	return NewMessage(TypeError, "", map[string]string{"message": text})
}

// IncomingMessage is a client frame; Data is decoded by whoever handles Type.
type IncomingMessage struct {
	Type   string          `json:"type"`
	ChatID string          `json:"chat_id,omitempty"`
	Data   json.RawMessage `json:"data,omitempty"`
}
