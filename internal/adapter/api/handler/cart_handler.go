package handler

import (
	"github.com/labstack/echo/v4"

	"lapakda/internal/usecase"
	"lapakda/pkg/response"
)

type CartHandler struct {
	cartUseCase *usecase.CartUseCase
}

func NewCartHandler(cartUseCase *usecase.CartUseCase) *CartHandler {
	return &CartHandler{
		cartUseCase: cartUseCase,
	}
}

type addToCartRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,min=1"`
}

type updateCartRequest struct {
	Quantity int `json:"quantity" validate:"required,min=1"`
}

func (h *CartHandler) GetCart(c echo.Context) error {
	cart, err := h.cartUseCase.GetCartItems(c.Request().Context(), getUserIDFromContext(c))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, cart)
}

func (h *CartHandler) AddToCart(c echo.Context) error {
	var req addToCartRequest
	if err := bindAndValidate(c, &req); err != nil {
		return response.Error(c, err)
	}

	item, err := h.cartUseCase.AddToCart(c.Request().Context(), getUserIDFromContext(c), req.ProductID, req.Quantity)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Created(c, item)
}

func (h *CartHandler) UpdateQuantity(c echo.Context) error {
	var req updateCartRequest
	if err := bindAndValidate(c, &req); err != nil {
		return response.Error(c, err)
	}

	item, err := h.cartUseCase.UpdateCartItemQuantity(c.Request().Context(), getUserIDFromContext(c), c.Param("id"), req.Quantity)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, item)
}

func (h *CartHandler) RemoveItem(c echo.Context) error {
	if err := h.cartUseCase.RemoveFromCart(c.Request().Context(), getUserIDFromContext(c), c.Param("id")); err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, map[string]string{"message": "Item removed"})
}
