package handler

import (
	"github.com/labstack/echo/v4"

	"lapakda/internal/usecase"
	"lapakda/pkg/response"
)

type AddressHandler struct {
	addressUseCase *usecase.AddressUseCase
}

func NewAddressHandler(addressUseCase *usecase.AddressUseCase) *AddressHandler {
	return &AddressHandler{
		addressUseCase: addressUseCase,
	}
}

type addressRequest struct {
	ReceiverName string `json:"receiver_name" validate:"required,max=100"`
	Phone        string `json:"phone" validate:"required,max=20"`
	District     string `json:"district" validate:"required"`
	Subdistrict  string `json:"subdistrict" validate:"required"`
	Address      string `json:"address" validate:"required,max=500"`
}

func (r addressRequest) input() usecase.AddressInput {
	return usecase.AddressInput{
		ReceiverName: r.ReceiverName,
		Phone:        r.Phone,
		District:     r.District,
		Subdistrict:  r.Subdistrict,
		Address:      r.Address,
	}
}

func (h *AddressHandler) ListAddresses(c echo.Context) error {
	list, err := h.addressUseCase.GetUserAddresses(c.Request().Context(), getUserIDFromContext(c))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, list)
}

func (h *AddressHandler) AddAddress(c echo.Context) error {
	var req addressRequest
	if err := bindAndValidate(c, &req); err != nil {
		return response.Error(c, err)
	}

	addr, err := h.addressUseCase.AddAddress(c.Request().Context(), getUserIDFromContext(c), req.input())
	if err != nil {
		return response.Error(c, err)
	}
	return response.Created(c, addr)
}

func (h *AddressHandler) GetAddress(c echo.Context) error {
	addr, err := h.addressUseCase.GetAddress(c.Request().Context(), getUserIDFromContext(c), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, addr)
}

func (h *AddressHandler) UpdateAddress(c echo.Context) error {
	var req addressRequest
	if err := bindAndValidate(c, &req); err != nil {
		return response.Error(c, err)
	}

	addr, err := h.addressUseCase.UpdateAddress(c.Request().Context(), getUserIDFromContext(c), c.Param("id"), req.input())
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, addr)
}

func (h *AddressHandler) DeleteAddress(c echo.Context) error {
	if err := h.addressUseCase.DeleteAddress(c.Request().Context(), getUserIDFromContext(c), c.Param("id")); err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, map[string]string{"message": "Address deleted"})
}
