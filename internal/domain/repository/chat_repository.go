package repository

import (
	"context"

	"lapakda/internal/domain/entity"
)

// Unsubscribe stops a live query. It is safe to call more than once.
type Unsubscribe func()

type ChatRepository interface {
	// CreateRoomIfAbsent creates room under room.ID unless a document with
	// that id exists, in which case the stored room is returned.
	CreateRoomIfAbsent(ctx context.Context, room *entity.ChatRoom) (*entity.ChatRoom, bool, error)
	FindRoomByParticipants(ctx context.Context, userA, userB string) (*entity.ChatRoom, error)
	GetRoom(ctx context.Context, roomID string) (*entity.ChatRoom, error)
	ListRoomsByUser(ctx context.Context, userID string) ([]*entity.ChatRoom, error)
	DeleteRoom(ctx context.Context, roomID string) error

	// AppendMessage stores msg and refreshes the room's lastMessage,
	// updatedAt and messageCount in one transaction. msg.ID and msg.Seq
	// are assigned by the store.
	AppendMessage(ctx context.Context, msg *entity.ChatMessage) error
	ListMessages(ctx context.Context, roomID string) ([]*entity.ChatMessage, error)
	GetMessage(ctx context.Context, roomID, messageID string) (*entity.ChatMessage, error)

	// MarkRoomAsRead flips every unread message addressed to userID and,
	// when the room's lastMessage is addressed to userID, its read flag.
	MarkRoomAsRead(ctx context.Context, roomID, userID string) (int, error)
	MarkMessageAsRead(ctx context.Context, roomID, messageID, userID string) (bool, error)

	WatchMessages(ctx context.Context, roomID string, onChange func([]*entity.ChatMessage)) (Unsubscribe, error)
	WatchRooms(ctx context.Context, userID string, onChange func([]*entity.ChatRoom)) (Unsubscribe, error)
}
