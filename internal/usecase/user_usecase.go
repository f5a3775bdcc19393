package usecase

import (
	"context"
	"time"

	"lapakda/internal/domain/entity"
	"lapakda/internal/domain/repository"
	"lapakda/internal/infrastructure/ratelimit"
	"lapakda/pkg/errors"
	"lapakda/pkg/logger"
)

type UserUseCase struct {
	userRepo    repository.UserRepository
	productRepo repository.ProductRepository
	files       *FileUseCase
	clock       ratelimit.Clock
}

func NewUserUseCase(userRepo repository.UserRepository, productRepo repository.ProductRepository, files *FileUseCase, clock ratelimit.Clock) *UserUseCase {
	if clock == nil {
		clock = ratelimit.SystemClock
	}
	return &UserUseCase{
		userRepo:    userRepo,
		productRepo: productRepo,
		files:       files,
		clock:       clock,
	}
}

type UpdateProfileInput struct {
	DisplayName *string
	PhoneNumber *string
	Address     *string
}

type ShopInput struct {
	ShopName        string
	ShopDescription string
}

// Shop is a seller's public storefront.
type Shop struct {
	Seller   *entity.UserProfile `json:"seller"`
	Products []*entity.Product   `json:"products"`
}

func defaultProfile(uid, email string, now time.Time) *entity.UserProfile {
	return &entity.UserProfile{
		UID:       uid,
		Email:     email,
		Role:      entity.RoleUser,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func sanitizePtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := sanitizeInput(*s)
	return &v
}

func (uc *UserUseCase) CreateUserProfile(ctx context.Context, uid, email, displayName string) (*entity.UserProfile, error) {
	user := defaultProfile(uid, sanitizeInput(email), uc.clock.Now())
	user.DisplayName = sanitizeInput(displayName)
	if err := uc.userRepo.Save(ctx, user); err != nil {
		logger.Op("UserUseCase.CreateUserProfile", err, map[string]string{"uid": uid})
		return nil, errors.Internal("Failed to create user profile", err)
	}
	return user, nil
}

// GetUserProfile returns a blank profile when none has been written yet.
func (uc *UserUseCase) GetUserProfile(ctx context.Context, uid string) (*entity.UserProfile, error) {
	user, err := uc.userRepo.GetByID(ctx, uid)
	if err != nil {
		if errors.Is(err, errors.CodeNotFound) {
			return defaultProfile(uid, "", uc.clock.Now()), nil
		}
		logger.Op("UserUseCase.GetUserProfile", err, map[string]string{"uid": uid})
		return nil, appErr(err, "Failed to load user profile")
	}
	return user, nil
}

func (uc *UserUseCase) update(ctx context.Context, uid string, change entity.ProfileUpdate) (*entity.UserProfile, error) {
	user, err := uc.GetUserProfile(ctx, uid)
	if err != nil {
		return nil, err
	}
	change.Apply(user)
	user.UpdatedAt = uc.clock.Now()

	if err := uc.userRepo.Save(ctx, user); err != nil {
		logger.Op("UserUseCase.update", err, map[string]string{"uid": uid})
		return nil, errors.Internal("Failed to update user profile", err)
	}
	return user, nil
}

func (uc *UserUseCase) UpdateUserProfile(ctx context.Context, uid string, input UpdateProfileInput) (*entity.UserProfile, error) {
	change := entity.ProfileUpdate{
		DisplayName: sanitizePtr(input.DisplayName),
		PhoneNumber: sanitizePtr(input.PhoneNumber),
		Address:     sanitizePtr(input.Address),
	}
	if change.DisplayName != nil && *change.DisplayName == "" {
		return nil, errors.BadRequest("Nama tidak boleh kosong", nil)
	}
	return uc.update(ctx, uid, change)
}

func (uc *UserUseCase) UploadProfileImage(ctx context.Context, uid string, f Upload) (*entity.UserProfile, error) {
	url, err := uc.files.Upload(ctx, uid, "users/"+uid, f)
	if err != nil {
		return nil, err
	}
	return uc.update(ctx, uid, entity.ProfileUpdate{PhotoURL: &url})
}

func (uc *UserUseCase) UpdateShop(ctx context.Context, uid string, input ShopInput) (*entity.UserProfile, error) {
	name := sanitizeInput(input.ShopName)
	desc := sanitizeInput(input.ShopDescription)
	if name == "" {
		return nil, errors.BadRequest("Nama toko wajib diisi", nil)
	}
	return uc.update(ctx, uid, entity.ProfileUpdate{ShopName: &name, ShopDescription: &desc})
}

func (uc *UserUseCase) GetShop(ctx context.Context, sellerID string) (*Shop, error) {
	seller, err := uc.userRepo.GetByID(ctx, sellerID)
	if err != nil {
		return nil, appErr(err, "Failed to load shop")
	}
	products, err := uc.productRepo.List(ctx, entity.ProductFilter{SellerID: sellerID, ActiveOnly: true})
	if err != nil {
		logger.Op("UserUseCase.GetShop", err, map[string]string{"seller": sellerID})
		return nil, appErr(err, "Failed to load shop products")
	}
	seller.Email = ""
	seller.PhoneNumber = ""
	seller.Address = ""
	return &Shop{Seller: seller, Products: products}, nil
}
