package entity

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"time"
)

const (
	MessageTypeText           = "text"
	MessageTypeImage          = "image"
	MessageTypeProductInquiry = "product_inquiry"
)

// LastMessage is the denormalized preview kept on the room document.
type LastMessage struct {
	Content    string    `json:"content" firestore:"content"`
	SenderID   string    `json:"sender_id" firestore:"senderId"`
	ReceiverID string    `json:"receiver_id" firestore:"receiverId"`
	CreatedAt  time.Time `json:"created_at" firestore:"createdAt"`
	Read       bool      `json:"read" firestore:"read"`
}

type ChatRoom struct {
	ID           string       `json:"id" firestore:"id"`
	Participants []string     `json:"participants" firestore:"participants"`
	LastMessage  *LastMessage `json:"last_message,omitempty" firestore:"lastMessage,omitempty"`
	MessageCount int64        `json:"message_count" firestore:"messageCount"`
	CreatedAt    time.Time    `json:"created_at" firestore:"createdAt"`
	UpdatedAt    time.Time    `json:"updated_at" firestore:"updatedAt"`
}

func (r *ChatRoom) HasParticipant(userID string) bool {
	for _, p := range r.Participants {
		if p == userID {
			return true
		}
	}
	return false
}

// OtherParticipant returns the participant that is not userID.
func (r *ChatRoom) OtherParticipant(userID string) (string, bool) {
	if !r.HasParticipant(userID) {
		return "", false
	}
	for _, p := range r.Participants {
		if p != userID {
			return p, true
		}
	}
	return "", false
}

// IsUnreadFor reports whether the room's badge is lit for viewer.
func (r *ChatRoom) IsUnreadFor(viewer string) bool {
	return r.HasParticipant(viewer) &&
		r.LastMessage != nil &&
		r.LastMessage.ReceiverID == viewer &&
		!r.LastMessage.Read
}

// RoomIDFor derives the room id for an unordered pair of users, so both
// sides always address the same document.
func RoomIDFor(a, b string) string {
	pair := []string{a, b}
	sort.Strings(pair)
	sum := sha256.Sum256([]byte(pair[0] + "\x00" + pair[1]))
	return hex.EncodeToString(sum[:16])
}

type MessageMetadata struct {
	Type        string `json:"type" firestore:"type"`
	ProductID   string `json:"product_id,omitempty" firestore:"productId,omitempty"`
	ProductName string `json:"product_name,omitempty" firestore:"productName,omitempty"`
}

type ChatMessage struct {
	ID         string           `json:"id" firestore:"id"`
	RoomID     string           `json:"room_id" firestore:"roomId"`
	Seq        int64            `json:"seq" firestore:"seq"`
	SenderID   string           `json:"sender_id" firestore:"senderId"`
	ReceiverID string           `json:"receiver_id" firestore:"receiverId"`
	Content    string           `json:"content" firestore:"content"`
	ImageURL   *string          `json:"image_url" firestore:"imageUrl"`
	CreatedAt  time.Time        `json:"created_at" firestore:"createdAt"`
	Read       bool             `json:"read" firestore:"read"`
	Metadata   *MessageMetadata `json:"metadata,omitempty" firestore:"metadata,omitempty"`
}

// Preview builds the room's lastMessage from m.
func (m *ChatMessage) Preview() *LastMessage {
	return &LastMessage{
		Content:    m.Content,
		SenderID:   m.SenderID,
		ReceiverID: m.ReceiverID,
		CreatedAt:  m.CreatedAt,
		Read:       m.Read,
	}
}

// SortMessages orders messages by creation time, then by insertion sequence.
func SortMessages(msgs []*ChatMessage) {
	sort.SliceStable(msgs, func(i, j int) bool {
		if !msgs[i].CreatedAt.Equal(msgs[j].CreatedAt) {
			return msgs[i].CreatedAt.Before(msgs[j].CreatedAt)
		}
		return msgs[i].Seq < msgs[j].Seq
	})
}

// CountUnread counts rooms whose last message is addressed to viewer and unread.
func CountUnread(rooms []*ChatRoom, viewer string) int {
	n := 0
	for _, r := range rooms {
		if r.IsUnreadFor(viewer) {
			n++
		}
	}
	return n
}
