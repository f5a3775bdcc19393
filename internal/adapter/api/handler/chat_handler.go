package handler

import (
	"github.com/labstack/echo/v4"

	"lapakda/internal/domain/entity"
	"lapakda/internal/usecase"
	"lapakda/pkg/response"
)

type ChatHandler struct {
	chatUseCase *usecase.ChatUseCase
}

func NewChatHandler(chatUseCase *usecase.ChatUseCase) *ChatHandler {
	return &ChatHandler{
		chatUseCase: chatUseCase,
	}
}

type createChatRequest struct {
	SellerID string `json:"seller_id" validate:"required"`
}

type inquiryRequest struct {
	ProductID string `json:"product_id" validate:"required"`
}

type messageMetadataRequest struct {
	Type string `json:"type" validate:"required,oneof=text image"`
}

type sendMessageRequest struct {
	Content    string                  `json:"content" validate:"max=2000"`
	ImageURL   *string                 `json:"image_url" validate:"omitempty,url"`
	ReceiverID string                  `json:"receiver_id"`
	Metadata   *messageMetadataRequest `json:"metadata"`
}

func (h *ChatHandler) CreateChat(c echo.Context) error {
	var req createChatRequest
	if err := bindAndValidate(c, &req); err != nil {
		return response.Error(c, err)
	}

	room, err := h.chatUseCase.CreateChatRoom(c.Request().Context(), getUserIDFromContext(c), req.SellerID)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Created(c, room)
}

func (h *ChatHandler) StartInquiry(c echo.Context) error {
	var req inquiryRequest
	if err := bindAndValidate(c, &req); err != nil {
		return response.Error(c, err)
	}

	result, err := h.chatUseCase.StartProductInquiry(c.Request().Context(), getUserIDFromContext(c), req.ProductID)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Created(c, result)
}

func (h *ChatHandler) ListChats(c echo.Context) error {
	rooms, err := h.chatUseCase.ListChatRooms(c.Request().Context(), getUserIDFromContext(c), c.QueryParam("q"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, rooms)
}

func (h *ChatHandler) UnreadCount(c echo.Context) error {
	count, err := h.chatUseCase.GetUnreadCount(c.Request().Context(), getUserIDFromContext(c))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, map[string]int{"count": count})
}

func (h *ChatHandler) GetChat(c echo.Context) error {
	room, err := h.chatUseCase.GetChatRoom(c.Request().Context(), getUserIDFromContext(c), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, room)
}

func (h *ChatHandler) DeleteChat(c echo.Context) error {
	if err := h.chatUseCase.DeleteChatRoom(c.Request().Context(), getUserIDFromContext(c), c.Param("id")); err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, map[string]string{"message": "Chat deleted"})
}

func (h *ChatHandler) GetMessages(c echo.Context) error {
	messages, err := h.chatUseCase.GetChatMessages(c.Request().Context(), getUserIDFromContext(c), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, messages)
}

func (h *ChatHandler) SendMessage(c echo.Context) error {
	var req sendMessageRequest
	if err := bindAndValidate(c, &req); err != nil {
		return response.Error(c, err)
	}

	input := usecase.SendMessageInput{
		Content:    req.Content,
		ImageURL:   req.ImageURL,
		ReceiverID: req.ReceiverID,
	}
	if req.Metadata != nil {
		input.Metadata = &entity.MessageMetadata{Type: req.Metadata.Type}
	}
	msg, err := h.chatUseCase.SendMessage(c.Request().Context(), getUserIDFromContext(c), c.Param("id"), input)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Created(c, msg)
}

func (h *ChatHandler) MarkAsRead(c echo.Context) error {
	updated, err := h.chatUseCase.MarkRoomAsRead(c.Request().Context(), getUserIDFromContext(c), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, map[string]int{"updated": updated})
}

func (h *ChatHandler) MarkMessageAsRead(c echo.Context) error {
	changed, err := h.chatUseCase.MarkMessageAsRead(c.Request().Context(), getUserIDFromContext(c), c.Param("id"), c.Param("messageId"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, map[string]bool{"updated": changed})
}

// UploadImage stores a picture for the room and returns its URL; the client
// then sends it with SendMessage.
func (h *ChatHandler) UploadImage(c echo.Context) error {
	upload, src, err := formFile(c, "image")
	if err != nil {
		return response.Error(c, err)
	}
	defer src.Close()

	url, err := h.chatUseCase.UploadChatImage(c.Request().Context(), getUserIDFromContext(c), c.Param("id"), upload)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, map[string]string{"url": url})
}
