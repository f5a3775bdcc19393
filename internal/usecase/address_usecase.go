package usecase

import (
	"context"

	"lapakda/internal/domain/entity"
	"lapakda/internal/domain/repository"
	"lapakda/internal/infrastructure/ratelimit"
	"lapakda/pkg/errors"
	"lapakda/pkg/logger"
)

type AddressUseCase struct {
	addressRepo repository.AddressRepository
	clock       ratelimit.Clock
}

func NewAddressUseCase(addressRepo repository.AddressRepository, clock ratelimit.Clock) *AddressUseCase {
	if clock == nil {
		clock = ratelimit.SystemClock
	}
	return &AddressUseCase{addressRepo: addressRepo, clock: clock}
}

type AddressInput struct {
	ReceiverName string
	Phone        string
	District     string
	Subdistrict  string
	Address      string
}

func (in *AddressInput) validate() error {
	in.ReceiverName = sanitizeInput(in.ReceiverName)
	in.Phone = sanitizeInput(in.Phone)
	in.Address = sanitizeInput(in.Address)

	if in.ReceiverName == "" || in.Phone == "" || in.Address == "" {
		return errors.BadRequest("Nama penerima, nomor telepon, dan alamat wajib diisi", nil)
	}
	if !entity.IsValidLocation(in.District, in.Subdistrict) {
		return errors.BadRequest("Lokasi tidak valid", nil)
	}
	return nil
}

func (uc *AddressUseCase) AddAddress(ctx context.Context, userID string, input AddressInput) (*entity.Address, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	now := uc.clock.Now()
	addr := &entity.Address{
		UserID:       userID,
		ReceiverName: input.ReceiverName,
		Phone:        input.Phone,
		District:     input.District,
		Subdistrict:  input.Subdistrict,
		Address:      input.Address,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := uc.addressRepo.Create(ctx, addr); err != nil {
		logger.Op("AddressUseCase.AddAddress", err, map[string]string{"user": userID})
		return nil, errors.Internal("Failed to save address", err)
	}
	return addr, nil
}

func (uc *AddressUseCase) GetUserAddresses(ctx context.Context, userID string) ([]*entity.Address, error) {
	list, err := uc.addressRepo.ListByUser(ctx, userID, entity.MaxListedAddresses)
	if err != nil {
		logger.Op("AddressUseCase.GetUserAddresses", err, map[string]string{"user": userID})
		return nil, appErr(err, "Failed to list addresses")
	}
	return list, nil
}

func (uc *AddressUseCase) GetAddress(ctx context.Context, userID, id string) (*entity.Address, error) {
	addr, err := uc.addressRepo.GetByID(ctx, id)
	if err != nil {
		return nil, appErr(err, "Failed to load address")
	}
	if addr.UserID != userID {
		return nil, errors.Forbidden("You don't have access to this address", nil)
	}
	return addr, nil
}

func (uc *AddressUseCase) UpdateAddress(ctx context.Context, userID, id string, input AddressInput) (*entity.Address, error) {
	addr, err := uc.GetAddress(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if err := input.validate(); err != nil {
		return nil, err
	}

	addr.ReceiverName = input.ReceiverName
	addr.Phone = input.Phone
	addr.District = input.District
	addr.Subdistrict = input.Subdistrict
	addr.Address = input.Address
	addr.UpdatedAt = uc.clock.Now()

	if err := uc.addressRepo.Update(ctx, addr); err != nil {
		logger.Op("AddressUseCase.UpdateAddress", err, map[string]string{"address": id})
		return nil, appErr(err, "Failed to update address")
	}
	return addr, nil
}

func (uc *AddressUseCase) DeleteAddress(ctx context.Context, userID, id string) error {
	if _, err := uc.GetAddress(ctx, userID, id); err != nil {
		return err
	}
	if err := uc.addressRepo.Delete(ctx, id); err != nil {
		logger.Op("AddressUseCase.DeleteAddress", err, map[string]string{"address": id})
		return appErr(err, "Failed to delete address")
	}
	return nil
}
