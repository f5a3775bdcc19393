package memory

import (
	"context"
	"sort"

	"lapakda/internal/domain/entity"
	"lapakda/internal/domain/repository"
	"lapakda/pkg/errors"
)

type ChatRepository struct {
	s *Store
}

var _ repository.ChatRepository = (*ChatRepository)(nil)

func cloneRoom(r *entity.ChatRoom) *entity.ChatRoom {
	c := clone(r)
	c.Participants = append([]string(nil), r.Participants...)
	c.LastMessage = clone(r.LastMessage)
	return c
}

func cloneMessage(m *entity.ChatMessage) *entity.ChatMessage {
	c := clone(m)
	if m.ImageURL != nil {
		url := *m.ImageURL
		c.ImageURL = &url
	}
	c.Metadata = clone(m.Metadata)
	return c
}

// participantTopics must be called with s.mu held.
func (r *ChatRepository) participantTopics(room *entity.ChatRoom) []string {
	topics := make([]string, 0, len(room.Participants))
	for _, p := range room.Participants {
		topics = append(topics, userTopic(p))
	}
	return topics
}

func (r *ChatRepository) CreateRoomIfAbsent(ctx context.Context, room *entity.ChatRoom) (*entity.ChatRoom, bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if existing, ok := r.s.rooms[room.ID]; ok {
		return cloneRoom(existing), false, nil
	}

	r.s.rooms[room.ID] = cloneRoom(room)
	r.s.messages[room.ID] = make(map[string]*entity.ChatMessage)
	r.s.watchers.publish(r.participantTopics(room)...)
	return cloneRoom(room), true, nil
}

func (r *ChatRepository) FindRoomByParticipants(ctx context.Context, userA, userB string) (*entity.ChatRoom, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var found *entity.ChatRoom
	for _, room := range r.s.rooms {
		if room.HasParticipant(userA) && room.HasParticipant(userB) {
			if found == nil || room.CreatedAt.Before(found.CreatedAt) {
				found = room
			}
		}
	}
	if found == nil {
		return nil, errors.NotFound("Chat room", nil)
	}
	return cloneRoom(found), nil
}

func (r *ChatRepository) GetRoom(ctx context.Context, roomID string) (*entity.ChatRoom, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	room, ok := r.s.rooms[roomID]
	if !ok {
		return nil, errors.NotFound("Chat room", nil)
	}
	return cloneRoom(room), nil
}

func (r *ChatRepository) ListRoomsByUser(ctx context.Context, userID string) ([]*entity.ChatRoom, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.roomsFor(userID), nil
}

func (r *ChatRepository) roomsFor(userID string) []*entity.ChatRoom {
	rooms := make([]*entity.ChatRoom, 0)
	for _, room := range r.s.rooms {
		if room.HasParticipant(userID) {
			rooms = append(rooms, cloneRoom(room))
		}
	}
	sort.SliceStable(rooms, func(i, j int) bool {
		return rooms[i].UpdatedAt.After(rooms[j].UpdatedAt)
	})
	return rooms
}

func (r *ChatRepository) DeleteRoom(ctx context.Context, roomID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	room, ok := r.s.rooms[roomID]
	if !ok {
		return errors.NotFound("Chat room", nil)
	}
	delete(r.s.rooms, roomID)
	delete(r.s.messages, roomID)
	r.s.watchers.publish(append(r.participantTopics(room), roomTopic(roomID))...)
	return nil
}

func (r *ChatRepository) AppendMessage(ctx context.Context, msg *entity.ChatMessage) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	room, ok := r.s.rooms[msg.RoomID]
	if !ok {
		return errors.NotFound("Chat room", nil)
	}

	if msg.ID == "" {
		msg.ID = r.s.newID()
	}
	room.MessageCount++
	msg.Seq = room.MessageCount
	room.LastMessage = msg.Preview()
	room.UpdatedAt = msg.CreatedAt

	r.s.messages[msg.RoomID][msg.ID] = cloneMessage(msg)
	r.s.watchers.publish(append(r.participantTopics(room), roomTopic(room.ID))...)
	return nil
}

func (r *ChatRepository) messagesOf(roomID string) []*entity.ChatMessage {
	msgs := make([]*entity.ChatMessage, 0, len(r.s.messages[roomID]))
	for _, m := range r.s.messages[roomID] {
		msgs = append(msgs, cloneMessage(m))
	}
	entity.SortMessages(msgs)
	return msgs
}

func (r *ChatRepository) ListMessages(ctx context.Context, roomID string) ([]*entity.ChatMessage, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.messagesOf(roomID), nil
}

func (r *ChatRepository) GetMessage(ctx context.Context, roomID, messageID string) (*entity.ChatMessage, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	m, ok := r.s.messages[roomID][messageID]
	if !ok {
		return nil, errors.NotFound("Message", nil)
	}
	return cloneMessage(m), nil
}

func (r *ChatRepository) MarkRoomAsRead(ctx context.Context, roomID, userID string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	room, ok := r.s.rooms[roomID]
	if !ok {
		return 0, errors.NotFound("Chat room", nil)
	}

	changed := 0
	for _, m := range r.s.messages[roomID] {
		if m.ReceiverID == userID && !m.Read {
			m.Read = true
			changed++
		}
	}

	badge := room.LastMessage != nil && room.LastMessage.ReceiverID == userID && !room.LastMessage.Read
	if badge {
		room.LastMessage.Read = true
	}

	if changed > 0 || badge {
		r.s.watchers.publish(append(r.participantTopics(room), roomTopic(roomID))...)
	}
	return changed, nil
}

func (r *ChatRepository) MarkMessageAsRead(ctx context.Context, roomID, messageID, userID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	room, ok := r.s.rooms[roomID]
	if !ok {
		return false, errors.NotFound("Chat room", nil)
	}
	m, ok := r.s.messages[roomID][messageID]
	if !ok {
		return false, errors.NotFound("Message", nil)
	}
	if m.ReceiverID != userID || m.Read {
		return false, nil
	}

	m.Read = true
	if m.Seq == room.MessageCount && room.LastMessage != nil && room.LastMessage.ReceiverID == userID {
		room.LastMessage.Read = true
	}
	r.s.watchers.publish(append(r.participantTopics(room), roomTopic(roomID))...)
	return true, nil
}

func (r *ChatRepository) WatchMessages(ctx context.Context, roomID string, onChange func([]*entity.ChatMessage)) (repository.Unsubscribe, error) {
	stop := r.s.watchers.subscribe(ctx, roomTopic(roomID), func() {
		r.s.mu.Lock()
		msgs := r.messagesOf(roomID)
		r.s.mu.Unlock()
		onChange(msgs)
	})
	return repository.Unsubscribe(stop), nil
}

func (r *ChatRepository) WatchRooms(ctx context.Context, userID string, onChange func([]*entity.ChatRoom)) (repository.Unsubscribe, error) {
	stop := r.s.watchers.subscribe(ctx, userTopic(userID), func() {
		r.s.mu.Lock()
		rooms := r.roomsFor(userID)
		r.s.mu.Unlock()
		onChange(rooms)
	})
	return repository.Unsubscribe(stop), nil
}
