package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"lapakda/internal/domain/entity"
	"lapakda/internal/domain/repository"
	"lapakda/internal/infrastructure/ratelimit"
	ws "lapakda/internal/infrastructure/websocket"
	"lapakda/pkg/errors"
	"lapakda/pkg/logger"
)

type ChatUseCase struct {
	chatRepo    repository.ChatRepository
	userRepo    repository.UserRepository
	productRepo repository.ProductRepository
	files       *FileUseCase
	notifier    Notifier
	rateLimiter *ratelimit.RateLimiter
	clock       ratelimit.Clock
}

func NewChatUseCase(
	chatRepo repository.ChatRepository,
	userRepo repository.UserRepository,
	productRepo repository.ProductRepository,
	files *FileUseCase,
	notifier Notifier,
	rateLimiter *ratelimit.RateLimiter,
	clock ratelimit.Clock,
) *ChatUseCase {
	if clock == nil {
		clock = ratelimit.SystemClock
	}
	return &ChatUseCase{
		chatRepo:    chatRepo,
		userRepo:    userRepo,
		productRepo: productRepo,
		files:       files,
		notifier:    notifier,
		rateLimiter: rateLimiter,
		clock:       clock,
	}
}

type SendMessageInput struct {
	Content  string
	ImageURL *string
	// ReceiverID is optional; when set it must be the other participant.
	ReceiverID string
	// Metadata from clients may only tag a text or image message. Product
	// inquiries are sent by StartProductInquiry.
	Metadata *entity.MessageMetadata
}

// UserSummary is the public face of a chat partner.
type UserSummary struct {
	UID         string `json:"uid"`
	DisplayName string `json:"display_name"`
	PhotoURL    string `json:"photo_url,omitempty"`
	ShopName    string `json:"shop_name,omitempty"`

	email string
}

type ChatRoomView struct {
	*entity.ChatRoom
	OtherUser *UserSummary `json:"other_user,omitempty"`
	Unread    bool         `json:"unread"`
}

// InquiryResult is the room and seed message of a product inquiry.
type InquiryResult struct {
	Room    *entity.ChatRoom    `json:"room"`
	Message *entity.ChatMessage `json:"message"`
}

func (uc *ChatUseCase) allow(userID, action, message string) error {
	if uc.rateLimiter == nil {
		return nil
	}
	if ok, wait := uc.rateLimiter.Allow(userID, action); !ok {
		logger.Warn("Chat rate limited: user %s action %s, wait %v", userID, action, wait)
		return errors.TooManyRequests(message, retrySeconds(wait))
	}
	return nil
}

// CreateChatRoom returns the one room shared by the two users, creating it
// when neither a legacy room nor the deterministic one exists.
func (uc *ChatUseCase) CreateChatRoom(ctx context.Context, buyerID, sellerID string) (*entity.ChatRoom, error) {
	if buyerID == "" || sellerID == "" {
		return nil, errors.BadRequest("Participants are required", nil)
	}
	if buyerID == sellerID {
		return nil, errors.BadRequest("Tidak dapat mengirim pesan ke diri sendiri", nil)
	}

	existing, err := uc.chatRepo.FindRoomByParticipants(ctx, buyerID, sellerID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, errors.CodeNotFound) {
		logger.Op("ChatUseCase.CreateChatRoom", err, map[string]string{"buyer": buyerID, "seller": sellerID})
		return nil, appErr(err, "Failed to look up chat room")
	}

	if err := uc.allow(buyerID, ratelimit.ActionCreateChat, "Terlalu banyak chat baru. Silakan tunggu sebentar."); err != nil {
		return nil, err
	}

	now := uc.clock.Now()
	room, created, err := uc.chatRepo.CreateRoomIfAbsent(ctx, &entity.ChatRoom{
		ID:           entity.RoomIDFor(buyerID, sellerID),
		Participants: []string{buyerID, sellerID},
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		logger.Op("ChatUseCase.CreateChatRoom", err, map[string]string{"buyer": buyerID, "seller": sellerID})
		return nil, appErr(err, "Failed to create chat room")
	}
	if created {
		logger.Debug("Chat room %s created for %s and %s", room.ID, buyerID, sellerID)
	}
	return room, nil
}

// StartProductInquiry opens the buyer's room with the product's seller and
// sends the canned interest message.
func (uc *ChatUseCase) StartProductInquiry(ctx context.Context, buyerID, productID string) (*InquiryResult, error) {
	product, err := uc.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, appErr(err, "Failed to load product")
	}
	room, err := uc.CreateChatRoom(ctx, buyerID, product.SellerID)
	if err != nil {
		return nil, err
	}

	msg, err := uc.send(ctx, buyerID, room.ID, SendMessageInput{
		Content: fmt.Sprintf("Hai, saya tertarik dengan produk \"%s\"", product.Name),
		Metadata: &entity.MessageMetadata{
			Type:        entity.MessageTypeProductInquiry,
			ProductID:   product.ID,
			ProductName: product.Name,
		},
	})
	if err != nil {
		return nil, err
	}
	if fresh, err := uc.chatRepo.GetRoom(ctx, room.ID); err == nil {
		room = fresh
	}
	return &InquiryResult{Room: room, Message: msg}, nil
}

func (uc *ChatUseCase) summary(ctx context.Context, uid string) *UserSummary {
	user, err := uc.userRepo.GetByID(ctx, uid)
	if err != nil {
		return &UserSummary{UID: uid, DisplayName: "Pengguna"}
	}
	return &UserSummary{
		UID:         user.UID,
		DisplayName: user.DisplayName,
		PhotoURL:    user.PhotoURL,
		ShopName:    user.ShopName,
		email:       user.Email,
	}
}

// matches reports whether query, already lower-cased, appears in the other
// participant's name or email or in the last message.
func (v *ChatRoomView) matches(query string) bool {
	if v.OtherUser != nil {
		if strings.Contains(strings.ToLower(v.OtherUser.DisplayName), query) ||
			strings.Contains(strings.ToLower(v.OtherUser.email), query) {
			return true
		}
	}
	return v.LastMessage != nil && strings.Contains(strings.ToLower(v.LastMessage.Content), query)
}

// ListChatRooms returns the user's rooms, most recently active first. A
// non-empty query keeps only the rooms it matches, ignoring case.
func (uc *ChatUseCase) ListChatRooms(ctx context.Context, userID, query string) ([]*ChatRoomView, error) {
	rooms, err := uc.chatRepo.ListRoomsByUser(ctx, userID)
	if err != nil {
		logger.Op("ChatUseCase.ListChatRooms", err, map[string]string{"user": userID})
		return nil, appErr(err, "Failed to list chat rooms")
	}

	views := make([]*ChatRoomView, len(rooms))
	var g errgroup.Group
	g.SetLimit(hydrateConcurrency)
	for i, room := range rooms {
		i, room := i, room
		views[i] = &ChatRoomView{ChatRoom: room, Unread: room.IsUnreadFor(userID)}
		other, ok := room.OtherParticipant(userID)
		if !ok {
			continue
		}
		g.Go(func() error {
			views[i].OtherUser = uc.summary(ctx, other)
			return nil
		})
	}
	_ = g.Wait()

	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return views, nil
	}
	found := make([]*ChatRoomView, 0, len(views))
	for _, v := range views {
		if v.matches(query) {
			found = append(found, v)
		}
	}
	return found, nil
}

func (uc *ChatUseCase) participantRoom(ctx context.Context, userID, roomID string) (*entity.ChatRoom, error) {
	room, err := uc.chatRepo.GetRoom(ctx, roomID)
	if err != nil {
		return nil, appErr(err, "Failed to load chat room")
	}
	if !room.HasParticipant(userID) {
		return nil, errors.Forbidden("You are not a participant in this chat", nil)
	}
	return room, nil
}

func (uc *ChatUseCase) GetChatRoom(ctx context.Context, userID, roomID string) (*ChatRoomView, error) {
	room, err := uc.participantRoom(ctx, userID, roomID)
	if err != nil {
		return nil, err
	}
	view := &ChatRoomView{ChatRoom: room, Unread: room.IsUnreadFor(userID)}
	if other, ok := room.OtherParticipant(userID); ok {
		view.OtherUser = uc.summary(ctx, other)
	}
	return view, nil
}

func (uc *ChatUseCase) DeleteChatRoom(ctx context.Context, userID, roomID string) error {
	room, err := uc.participantRoom(ctx, userID, roomID)
	if err != nil {
		return err
	}
	if err := uc.chatRepo.DeleteRoom(ctx, roomID); err != nil {
		logger.Op("ChatUseCase.DeleteChatRoom", err, map[string]string{"room": roomID})
		return appErr(err, "Failed to delete chat room")
	}
	for _, p := range room.Participants {
		uc.push(p, ws.NewMessage(ws.TypeChatListUpdate, roomID, map[string]interface{}{"deleted": true}))
	}
	return nil
}

func (uc *ChatUseCase) push(userID string, msg ws.WSMessage) {
	if uc.notifier == nil {
		return
	}
	uc.notifier.SendToUser(userID, msg)
}

func clientMetadata(meta *entity.MessageMetadata) (*entity.MessageMetadata, error) {
	if meta == nil {
		return nil, nil
	}
	switch meta.Type {
	case entity.MessageTypeText, entity.MessageTypeImage:
		return &entity.MessageMetadata{Type: meta.Type}, nil
	default:
		return nil, errors.BadRequest("Tipe pesan tidak valid", nil)
	}
}

func (uc *ChatUseCase) SendMessage(ctx context.Context, userID, roomID string, input SendMessageInput) (*entity.ChatMessage, error) {
	meta, err := clientMetadata(input.Metadata)
	if err != nil {
		return nil, err
	}
	input.Metadata = meta
	return uc.send(ctx, userID, roomID, input)
}

func (uc *ChatUseCase) send(ctx context.Context, userID, roomID string, input SendMessageInput) (*entity.ChatMessage, error) {
	room, err := uc.participantRoom(ctx, userID, roomID)
	if err != nil {
		return nil, err
	}
	receiver, ok := room.OtherParticipant(userID)
	if !ok {
		return nil, errors.BadRequest("Chat room has no other participant", nil)
	}
	if input.ReceiverID != "" && input.ReceiverID != receiver {
		return nil, errors.BadRequest("Receiver is not the other participant of this chat", nil)
	}

	content := sanitizeInput(input.Content)
	var image *string
	if input.ImageURL != nil && *input.ImageURL != "" {
		u := *input.ImageURL
		image = &u
	}
	if content == "" && image == nil {
		return nil, errors.BadRequest("Pesan tidak boleh kosong", nil)
	}

	if err := uc.allow(userID, ratelimit.ActionSendMessage, "Terlalu banyak pesan. Silakan tunggu sebentar."); err != nil {
		return nil, err
	}

	msg := &entity.ChatMessage{
		RoomID:     roomID,
		SenderID:   userID,
		ReceiverID: receiver,
		Content:    content,
		ImageURL:   image,
		CreatedAt:  uc.clock.Now(),
		Read:       false,
		Metadata:   input.Metadata,
	}
	if err := uc.chatRepo.AppendMessage(ctx, msg); err != nil {
		logger.Op("ChatUseCase.SendMessage", err, map[string]string{"room": roomID, "sender": userID})
		return nil, appErr(err, "Failed to send message")
	}

	uc.push(receiver, ws.NewMessage(ws.TypeChatListUpdate, roomID, map[string]interface{}{
		"last_message": msg.Preview(),
	}))
	return msg, nil
}

// UploadChatImage stores an image for roomID and returns its URL for use as
// a message's image_url.
func (uc *ChatUseCase) UploadChatImage(ctx context.Context, userID, roomID string, f Upload) (string, error) {
	if _, err := uc.participantRoom(ctx, userID, roomID); err != nil {
		return "", err
	}
	return uc.files.Upload(ctx, userID, "chats/"+roomID, f)
}

func (uc *ChatUseCase) GetChatMessages(ctx context.Context, userID, roomID string) ([]*entity.ChatMessage, error) {
	if _, err := uc.participantRoom(ctx, userID, roomID); err != nil {
		return nil, err
	}
	msgs, err := uc.chatRepo.ListMessages(ctx, roomID)
	if err != nil {
		logger.Op("ChatUseCase.GetChatMessages", err, map[string]string{"room": roomID})
		return nil, appErr(err, "Failed to load messages")
	}
	return msgs, nil
}

// SubscribeToChatRoom delivers the room's full ordered message list on
// every change until the returned func is called or ctx ends.
func (uc *ChatUseCase) SubscribeToChatRoom(ctx context.Context, userID, roomID string, onMessages func([]*entity.ChatMessage)) (repository.Unsubscribe, error) {
	if _, err := uc.participantRoom(ctx, userID, roomID); err != nil {
		return nil, err
	}
	stop, err := uc.chatRepo.WatchMessages(ctx, roomID, onMessages)
	if err != nil {
		logger.Op("ChatUseCase.SubscribeToChatRoom", err, map[string]string{"room": roomID})
		return nil, appErr(err, "Failed to subscribe to chat room")
	}
	return once(stop), nil
}

// WatchUnreadCount recomputes the user's unread room count on every change
// to their rooms.
func (uc *ChatUseCase) WatchUnreadCount(ctx context.Context, userID string, onCount func(int)) (repository.Unsubscribe, error) {
	stop, err := uc.chatRepo.WatchRooms(ctx, userID, func(rooms []*entity.ChatRoom) {
		onCount(entity.CountUnread(rooms, userID))
	})
	if err != nil {
		logger.Op("ChatUseCase.WatchUnreadCount", err, map[string]string{"user": userID})
		return nil, appErr(err, "Failed to watch unread count")
	}
	return once(stop), nil
}

func (uc *ChatUseCase) MarkRoomAsRead(ctx context.Context, userID, roomID string) (int, error) {
	if _, err := uc.participantRoom(ctx, userID, roomID); err != nil {
		return 0, err
	}
	n, err := uc.chatRepo.MarkRoomAsRead(ctx, roomID, userID)
	if err != nil {
		logger.Op("ChatUseCase.MarkRoomAsRead", err, map[string]string{"room": roomID, "user": userID})
		return 0, appErr(err, "Failed to mark chat as read")
	}
	return n, nil
}

func (uc *ChatUseCase) MarkMessageAsRead(ctx context.Context, userID, roomID, messageID string) (bool, error) {
	if _, err := uc.participantRoom(ctx, userID, roomID); err != nil {
		return false, err
	}
	changed, err := uc.chatRepo.MarkMessageAsRead(ctx, roomID, messageID, userID)
	if err != nil {
		logger.Op("ChatUseCase.MarkMessageAsRead", err, map[string]string{"room": roomID, "message": messageID})
		return false, appErr(err, "Failed to mark message as read")
	}
	return changed, nil
}

func (uc *ChatUseCase) GetUnreadCount(ctx context.Context, userID string) (int, error) {
	rooms, err := uc.chatRepo.ListRoomsByUser(ctx, userID)
	if err != nil {
		logger.Op("ChatUseCase.GetUnreadCount", err, map[string]string{"user": userID})
		return 0, appErr(err, "Failed to count unread chats")
	}
	return entity.CountUnread(rooms, userID), nil
}

func once(stop repository.Unsubscribe) repository.Unsubscribe {
	var o sync.Once
	return func() { o.Do(stop) }
}
