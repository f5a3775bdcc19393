package repository

import (
	"context"
	"sort"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"lapakda/internal/domain/entity"
	"lapakda/internal/domain/repository"
	"lapakda/pkg/errors"
	"lapakda/pkg/logger"
)

type firestoreChatRepository struct {
	client *firestore.Client
}

func NewFirestoreChatRepository(client *firestore.Client) repository.ChatRepository {
	return &firestoreChatRepository{
		client: client,
	}
}

func (r *firestoreChatRepository) rooms() *firestore.CollectionRef {
	return r.client.Collection(roomsCollection)
}

func (r *firestoreChatRepository) messages(roomID string) *firestore.CollectionRef {
	return r.rooms().Doc(roomID).Collection(messagesCollection)
}

func (r *firestoreChatRepository) CreateRoomIfAbsent(ctx context.Context, room *entity.ChatRoom) (*entity.ChatRoom, bool, error) {
	_, err := r.rooms().Doc(room.ID).Create(ctx, room)
	if err == nil {
		return room, true, nil
	}
	if status.Code(err) != codes.AlreadyExists {
		return nil, false, errors.Internal("Failed to create chat room", err)
	}

	existing, err := r.GetRoom(ctx, room.ID)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

// FindRoomByParticipants scans the rooms of userA for one that also holds
// userB. Rooms with random ids from before deterministic ids are only
// reachable this way.
func (r *firestoreChatRepository) FindRoomByParticipants(ctx context.Context, userA, userB string) (*entity.ChatRoom, error) {
	rooms, err := decodeAll[entity.ChatRoom](r.rooms().Where("participants", "array-contains", userA).Documents(ctx))
	if err != nil {
		return nil, errors.Internal("Failed to query chat rooms", err)
	}

	var found *entity.ChatRoom
	for _, room := range rooms {
		if room.HasParticipant(userB) && (found == nil || room.CreatedAt.Before(found.CreatedAt)) {
			found = room
		}
	}
	if found == nil {
		return nil, errors.NotFound("Chat room", nil)
	}
	return found, nil
}

func (r *firestoreChatRepository) GetRoom(ctx context.Context, roomID string) (*entity.ChatRoom, error) {
	doc, err := r.rooms().Doc(roomID).Get(ctx)
	if err != nil {
		return nil, readErr("Chat room", err)
	}

	var room entity.ChatRoom
	if err := doc.DataTo(&room); err != nil {
		return nil, errors.Internal("Failed to parse chat room data", err)
	}
	return &room, nil
}

func (r *firestoreChatRepository) roomsQuery(userID string) firestore.Query {
	return r.rooms().
		Where("participants", "array-contains", userID).
		OrderBy("updatedAt", firestore.Desc)
}

func (r *firestoreChatRepository) ListRoomsByUser(ctx context.Context, userID string) ([]*entity.ChatRoom, error) {
	rooms, err := decodeAll[entity.ChatRoom](r.roomsQuery(userID).Documents(ctx))
	if err != nil {
		logger.Error("Firestore error while listing chat rooms for user %s: %v", userID, err)
		return nil, errors.Internal("Failed to list chat rooms", err)
	}
	return rooms, nil
}

// DeleteRoom removes the messages and then the room. Rooms that fit in one
// batch go in a single atomic commit; larger ones are chunked with the room
// document in the final chunk.
func (r *firestoreChatRepository) DeleteRoom(ctx context.Context, roomID string) error {
	roomRef := r.rooms().Doc(roomID)
	if _, err := roomRef.Get(ctx); err != nil {
		return readErr("Chat room", err)
	}

	refs, err := r.messages(roomID).DocumentRefs(ctx).GetAll()
	if err != nil {
		return errors.Internal("Failed to list chat messages", err)
	}
	refs = append(refs, roomRef)

	for start := 0; start < len(refs); start += maxBatchWrites {
		end := start + maxBatchWrites
		if end > len(refs) {
			end = len(refs)
		}
		batch := r.client.Batch()
		for _, ref := range refs[start:end] {
			batch.Delete(ref)
		}
		if _, err := batch.Commit(ctx); err != nil {
			return errors.Internal("Failed to delete chat room", err)
		}
	}
	return nil
}

func (r *firestoreChatRepository) AppendMessage(ctx context.Context, msg *entity.ChatMessage) error {
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	roomRef := r.rooms().Doc(msg.RoomID)
	msgRef := r.messages(msg.RoomID).Doc(msg.ID)

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(roomRef)
		if err != nil {
			return readErr("Chat room", err)
		}
		var room entity.ChatRoom
		if err := doc.DataTo(&room); err != nil {
			return err
		}

		msg.Seq = room.MessageCount + 1
		if err := tx.Create(msgRef, msg); err != nil {
			return err
		}
		return tx.Update(roomRef, []firestore.Update{
			{Path: "lastMessage", Value: msg.Preview()},
			{Path: "updatedAt", Value: msg.CreatedAt},
			{Path: "messageCount", Value: msg.Seq},
		})
	})
	if err != nil {
		return passThrough("Failed to send message", err)
	}
	return nil
}

func (r *firestoreChatRepository) messagesQuery(roomID string) firestore.Query {
	return r.messages(roomID).
		OrderBy("createdAt", firestore.Asc).
		OrderBy("seq", firestore.Asc)
}

func (r *firestoreChatRepository) ListMessages(ctx context.Context, roomID string) ([]*entity.ChatMessage, error) {
	msgs, err := decodeAll[entity.ChatMessage](r.messagesQuery(roomID).Documents(ctx))
	if err != nil {
		logger.Error("Firestore error while listing messages for room %s: %v", roomID, err)
		return nil, errors.Internal("Failed to list messages", err)
	}
	return msgs, nil
}

func (r *firestoreChatRepository) GetMessage(ctx context.Context, roomID, messageID string) (*entity.ChatMessage, error) {
	doc, err := r.messages(roomID).Doc(messageID).Get(ctx)
	if err != nil {
		return nil, readErr("Message", err)
	}

	var msg entity.ChatMessage
	if err := doc.DataTo(&msg); err != nil {
		return nil, errors.Internal("Failed to parse message data", err)
	}
	return &msg, nil
}

// MarkRoomAsRead flips the user's unread messages and, when it is addressed
// to them, the room's lastMessage. A backlog that fits in one transaction is
// applied atomically; a larger one is flipped in batches first and the last
// chunk goes in with the room patch.
func (r *firestoreChatRepository) MarkRoomAsRead(ctx context.Context, roomID, userID string) (int, error) {
	roomRef := r.rooms().Doc(roomID)
	unread := r.messages(roomID).
		Where("receiverId", "==", userID).
		Where("read", "==", false)

	pending, err := unread.Documents(ctx).GetAll()
	if err != nil {
		return 0, errors.Internal("Failed to list unread messages", err)
	}

	// one write is reserved for the room patch
	overflow := 0
	if len(pending) >= maxBatchWrites {
		overflow = len(pending) - (maxBatchWrites - 1)
	}
	for start := 0; start < overflow; start += maxBatchWrites {
		end := min(start+maxBatchWrites, overflow)
		batch := r.client.Batch()
		for _, d := range pending[start:end] {
			batch.Update(d.Ref, []firestore.Update{{Path: "read", Value: true}})
		}
		if _, err := batch.Commit(ctx); err != nil {
			return 0, errors.Internal("Failed to mark messages as read", err)
		}
	}

	var changed int
	err = r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		changed = overflow

		doc, err := tx.Get(roomRef)
		if err != nil {
			return readErr("Chat room", err)
		}
		var room entity.ChatRoom
		if err := doc.DataTo(&room); err != nil {
			return err
		}

		var refs []*firestore.DocumentRef
		if overflow == 0 {
			docs, err := tx.Documents(unread).GetAll()
			if err != nil {
				return err
			}
			for _, d := range docs {
				refs = append(refs, d.Ref)
			}
		} else {
			for _, d := range pending[overflow:] {
				refs = append(refs, d.Ref)
			}
		}

		for _, ref := range refs {
			if err := tx.Update(ref, []firestore.Update{{Path: "read", Value: true}}); err != nil {
				return err
			}
		}
		changed += len(refs)

		if room.LastMessage != nil && room.LastMessage.ReceiverID == userID && !room.LastMessage.Read {
			return tx.Update(roomRef, []firestore.Update{{Path: "lastMessage.read", Value: true}})
		}
		return nil
	})
	if err != nil {
		return 0, passThrough("Failed to mark chat room as read", err)
	}
	return changed, nil
}

func (r *firestoreChatRepository) MarkMessageAsRead(ctx context.Context, roomID, messageID, userID string) (bool, error) {
	roomRef := r.rooms().Doc(roomID)
	msgRef := r.messages(roomID).Doc(messageID)

	var changed bool
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		changed = false

		roomDoc, err := tx.Get(roomRef)
		if err != nil {
			return readErr("Chat room", err)
		}
		msgDoc, err := tx.Get(msgRef)
		if err != nil {
			return readErr("Message", err)
		}
		var room entity.ChatRoom
		if err := roomDoc.DataTo(&room); err != nil {
			return err
		}
		var msg entity.ChatMessage
		if err := msgDoc.DataTo(&msg); err != nil {
			return err
		}
		if msg.ReceiverID != userID || msg.Read {
			return nil
		}

		if err := tx.Update(msgRef, []firestore.Update{{Path: "read", Value: true}}); err != nil {
			return err
		}
		changed = true
		if msg.Seq == room.MessageCount && room.LastMessage != nil && room.LastMessage.ReceiverID == userID {
			return tx.Update(roomRef, []firestore.Update{{Path: "lastMessage.read", Value: true}})
		}
		return nil
	})
	if err != nil {
		return false, passThrough("Failed to mark message as read", err)
	}
	return changed, nil
}

func (r *firestoreChatRepository) WatchMessages(ctx context.Context, roomID string, onChange func([]*entity.ChatMessage)) (repository.Unsubscribe, error) {
	stop := watchQuery(ctx, r.messagesQuery(roomID), "messages:"+roomID, func(docs []*firestore.DocumentSnapshot) {
		msgs, err := decodeSnapshots[entity.ChatMessage](docs)
		if err != nil {
			logger.Error("Error parsing message snapshot for room %s: %v", roomID, err)
			return
		}
		// Firestore ordering already matches; this keeps equal timestamps
		// stable when documents arrive from the local cache.
		entity.SortMessages(msgs)
		onChange(msgs)
	})
	return stop, nil
}

func (r *firestoreChatRepository) WatchRooms(ctx context.Context, userID string, onChange func([]*entity.ChatRoom)) (repository.Unsubscribe, error) {
	stop := watchQuery(ctx, r.roomsQuery(userID), "rooms:"+userID, func(docs []*firestore.DocumentSnapshot) {
		rooms, err := decodeSnapshots[entity.ChatRoom](docs)
		if err != nil {
			logger.Error("Error parsing room snapshot for user %s: %v", userID, err)
			return
		}
		sort.SliceStable(rooms, func(i, j int) bool {
			return rooms[i].UpdatedAt.After(rooms[j].UpdatedAt)
		})
		onChange(rooms)
	})
	return stop, nil
}
