package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lapakda/internal/domain/entity"
	"lapakda/pkg/errors"
)

func seedRoom(t *testing.T, s *Store, a, b string) *entity.ChatRoom {
	t.Helper()
	now := time.Now()
	room, created, err := s.Chats().CreateRoomIfAbsent(context.Background(), &entity.ChatRoom{
		ID:           entity.RoomIDFor(a, b),
		Participants: []string{a, b},
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	require.NoError(t, err)
	require.True(t, created)
	return room
}

func TestCreateRoomIfAbsentIsIdempotent(t *testing.T) {
	s := NewStore()
	room := seedRoom(t, s, "a", "b")

	again, created, err := s.Chats().CreateRoomIfAbsent(context.Background(), &entity.ChatRoom{
		ID:           room.ID,
		Participants: []string{"b", "a"},
	})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, []string{"a", "b"}, again.Participants)
}

func TestAppendMessageUpdatesRoom(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	room := seedRoom(t, s, "a", "b")

	at := time.Now().Add(time.Minute)
	msg := &entity.ChatMessage{RoomID: room.ID, SenderID: "a", ReceiverID: "b", Content: "hi", CreatedAt: at}
	require.NoError(t, s.Chats().AppendMessage(ctx, msg))

	assert.NotEmpty(t, msg.ID)
	assert.Equal(t, int64(1), msg.Seq)

	stored, err := s.Chats().GetRoom(ctx, room.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.LastMessage)
	assert.Equal(t, "hi", stored.LastMessage.Content)
	assert.Equal(t, "b", stored.LastMessage.ReceiverID)
	assert.True(t, stored.UpdatedAt.Equal(at))
}

func TestAppendMessageMissingRoom(t *testing.T) {
	s := NewStore()
	err := s.Chats().AppendMessage(context.Background(), &entity.ChatMessage{RoomID: "nope"})
	assert.True(t, errors.Is(err, errors.CodeNotFound))
}

func TestWatchMessagesDeliversLatestAndStops(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	room := seedRoom(t, s, "a", "b")

	var mu sync.Mutex
	var last []*entity.ChatMessage
	stop, err := s.Chats().WatchMessages(ctx, room.ID, func(msgs []*entity.ChatMessage) {
		mu.Lock()
		last = msgs
		mu.Unlock()
	})
	require.NoError(t, err)

	base := time.Now()
	for i := 0; i < 3; i++ {
		require.NoError(t, s.Chats().AppendMessage(ctx, &entity.ChatMessage{
			RoomID: room.ID, SenderID: "a", ReceiverID: "b", Content: "m", CreatedAt: base,
		}))
	}

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(last) == 3 && last[0].Seq == 1 && last[2].Seq == 3
	}, time.Second, 5*time.Millisecond)

	stop()
	stop()
	assert.Eventually(t, func() bool {
		return s.watchers.count(roomTopic(room.ID)) == 0
	}, time.Second, 5*time.Millisecond)
}

func TestWatchEndsWithContext(t *testing.T) {
	s := NewStore()
	ctx, cancel := context.WithCancel(context.Background())

	_, err := s.Chats().WatchRooms(ctx, "a", func([]*entity.ChatRoom) {})
	require.NoError(t, err)
	assert.Equal(t, 1, s.watchers.count(userTopic("a")))

	cancel()
	assert.Eventually(t, func() bool {
		return s.watchers.count(userTopic("a")) == 0
	}, time.Second, 5*time.Millisecond)
}

func TestCartAddItemStockGuard(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	require.NoError(t, s.Products().Create(ctx, &entity.Product{ID: "p1", Stock: 5, Status: entity.ProductStatusActive}))

	item, err := s.Cart().AddItem(ctx, "u1", "p1", 3, time.Now())
	require.NoError(t, err)
	assert.Equal(t, "u1_p1", item.ID)

	_, err = s.Cart().AddItem(ctx, "u1", "p1", 3, time.Now())
	appErr, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, errors.CodeStockExceeded, appErr.Code)
	assert.Equal(t, 5, appErr.Details["available"])

	stored, err := s.Cart().GetByID(ctx, "u1_p1")
	require.NoError(t, err)
	assert.Equal(t, 3, stored.Quantity)
}

func TestOrderPlaceConsumesCart(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	require.NoError(t, s.Products().Create(ctx, &entity.Product{ID: "p1", Stock: 5, Status: entity.ProductStatusActive}))
	_, err := s.Cart().AddItem(ctx, "u1", "p1", 1, time.Now())
	require.NoError(t, err)

	order := &entity.Order{UserID: "u1", Status: entity.OrderStatusPending}
	require.NoError(t, s.Orders().Place(ctx, order, []string{"u1_p1"}))

	items, err := s.Cart().ListByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, items)

	counts, err := s.Orders().CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, counts[entity.OrderStatusPending])
	assert.Equal(t, 0, counts[entity.OrderStatusShipped])
}
