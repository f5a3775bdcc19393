package handler

import (
	"github.com/labstack/echo/v4"

	"lapakda/internal/usecase"
	"lapakda/pkg/response"
	"lapakda/pkg/utils"
)

// AdminHandler serves the order back office. Routes are mounted behind
// AdminOnly.
type AdminHandler struct {
	orderUseCase *usecase.OrderUseCase
}

func NewAdminHandler(orderUseCase *usecase.OrderUseCase) *AdminHandler {
	return &AdminHandler{
		orderUseCase: orderUseCase,
	}
}

type statusRequest struct {
	Status string `json:"status" validate:"required"`
}

func (h *AdminHandler) ListOrders(c echo.Context) error {
	orders, err := h.orderUseCase.GetAllOrders(c.Request().Context(), c.QueryParam("status"))
	if err != nil {
		return response.Error(c, err)
	}
	p := utils.GetPaginationParams(c)
	return response.Paginated(c, utils.Paginate(orders, p), int64(len(orders)), p.Page, p.PageSize)
}

func (h *AdminHandler) OrderStats(c echo.Context) error {
	stats, err := h.orderUseCase.GetOrderStats(c.Request().Context())
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, stats)
}

func (h *AdminHandler) UpdateOrderStatus(c echo.Context) error {
	var req statusRequest
	if err := bindAndValidate(c, &req); err != nil {
		return response.Error(c, err)
	}

	order, err := h.orderUseCase.UpdateOrderStatus(c.Request().Context(), c.Param("id"), req.Status)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, order)
}

func (h *AdminHandler) UpdatePaymentStatus(c echo.Context) error {
	var req statusRequest
	if err := bindAndValidate(c, &req); err != nil {
		return response.Error(c, err)
	}

	order, err := h.orderUseCase.UpdatePaymentStatus(c.Request().Context(), c.Param("id"), req.Status)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, order)
}
