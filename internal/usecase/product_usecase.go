package usecase

import (
	"context"

	"lapakda/internal/domain/entity"
	"lapakda/internal/domain/repository"
	"lapakda/internal/infrastructure/ratelimit"
	"lapakda/pkg/errors"
	"lapakda/pkg/logger"
)

type ProductUseCase struct {
	productRepo repository.ProductRepository
	userRepo    repository.UserRepository
	files       *FileUseCase
	clock       ratelimit.Clock
}

func NewProductUseCase(productRepo repository.ProductRepository, userRepo repository.UserRepository, files *FileUseCase, clock ratelimit.Clock) *ProductUseCase {
	if clock == nil {
		clock = ratelimit.SystemClock
	}
	return &ProductUseCase{
		productRepo: productRepo,
		userRepo:    userRepo,
		files:       files,
		clock:       clock,
	}
}

type ProductInput struct {
	Name        string
	Description string
	Price       int64
	Stock       int
	Category    string
	Condition   string
	Weight      int
	Images      []string
	District    string
	Subdistrict string
	Status      string
}

func (in *ProductInput) validate() error {
	in.Name = sanitizeInput(in.Name)
	in.Description = sanitizeInput(in.Description)

	switch {
	case in.Name == "":
		return errors.BadRequest("Nama produk wajib diisi", nil)
	case in.Price < 0:
		return errors.BadRequest("Harga tidak boleh negatif", nil)
	case in.Stock < 0:
		return errors.BadRequest("Stock tidak boleh negatif", nil)
	case in.Weight < 0:
		return errors.BadRequest("Berat tidak boleh negatif", nil)
	case !entity.IsCategory(in.Category):
		return errors.BadRequest("Kategori tidak valid", nil)
	case in.Condition != entity.ConditionNew && in.Condition != entity.ConditionUsed:
		return errors.BadRequest("Kondisi produk tidak valid", nil)
	case len(in.Images) > entity.MaxProductImages:
		return errors.BadRequest("Maksimal 5 foto produk", nil)
	case !entity.IsValidLocation(in.District, in.Subdistrict):
		return errors.BadRequest("Lokasi tidak valid", nil)
	}
	if in.Status != "" && in.Status != entity.ProductStatusActive && in.Status != entity.ProductStatusInactive {
		return errors.BadRequest("Status produk tidak valid", nil)
	}
	return nil
}

func (uc *ProductUseCase) sellerName(ctx context.Context, sellerID string) string {
	seller, err := uc.userRepo.GetByID(ctx, sellerID)
	if err != nil {
		return ""
	}
	if seller.ShopName != "" {
		return seller.ShopName
	}
	return seller.DisplayName
}

func (uc *ProductUseCase) AddProduct(ctx context.Context, sellerID string, input ProductInput) (*entity.Product, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	now := uc.clock.Now()
	product := &entity.Product{
		SellerID:    sellerID,
		SellerName:  uc.sellerName(ctx, sellerID),
		Name:        input.Name,
		Description: input.Description,
		Price:       input.Price,
		Stock:       input.Stock,
		Category:    input.Category,
		Condition:   input.Condition,
		Weight:      input.Weight,
		Images:      append([]string{}, input.Images...),
		District:    input.District,
		Subdistrict: input.Subdistrict,
		Status:      entity.ProductStatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := uc.productRepo.Create(ctx, product); err != nil {
		logger.Op("ProductUseCase.AddProduct", err, map[string]string{"seller": sellerID})
		return nil, errors.Internal("Failed to create product", err)
	}
	return product, nil
}

func (uc *ProductUseCase) GetProduct(ctx context.Context, id string) (*entity.Product, error) {
	product, err := uc.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, appErr(err, "Failed to load product")
	}
	return product, nil
}

// GetProducts lists active products, optionally in one category.
func (uc *ProductUseCase) GetProducts(ctx context.Context, category string) ([]*entity.Product, error) {
	if category != "" && !entity.IsCategory(category) {
		return nil, errors.BadRequest("Kategori tidak valid", nil)
	}
	products, err := uc.productRepo.List(ctx, entity.ProductFilter{Category: category, ActiveOnly: true})
	if err != nil {
		logger.Op("ProductUseCase.GetProducts", err, map[string]string{"category": category})
		return nil, appErr(err, "Failed to list products")
	}
	return products, nil
}

func (uc *ProductUseCase) GetProductsByUser(ctx context.Context, sellerID string) ([]*entity.Product, error) {
	products, err := uc.productRepo.List(ctx, entity.ProductFilter{SellerID: sellerID})
	if err != nil {
		logger.Op("ProductUseCase.GetProductsByUser", err, map[string]string{"seller": sellerID})
		return nil, appErr(err, "Failed to list products")
	}
	return products, nil
}

func (uc *ProductUseCase) owned(ctx context.Context, id, sellerID string) (*entity.Product, error) {
	product, err := uc.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, appErr(err, "Failed to load product")
	}
	if product.SellerID != sellerID {
		return nil, errors.Forbidden("You don't have permission to modify this product", nil)
	}
	return product, nil
}

func (uc *ProductUseCase) UpdateProduct(ctx context.Context, id, sellerID string, input ProductInput) (*entity.Product, error) {
	product, err := uc.owned(ctx, id, sellerID)
	if err != nil {
		return nil, err
	}
	if err := input.validate(); err != nil {
		return nil, err
	}

	product.Name = input.Name
	product.Description = input.Description
	product.Price = input.Price
	product.Stock = input.Stock
	product.Category = input.Category
	product.Condition = input.Condition
	product.Weight = input.Weight
	product.Images = append([]string{}, input.Images...)
	product.District = input.District
	product.Subdistrict = input.Subdistrict
	if input.Status != "" {
		product.Status = input.Status
	}
	product.UpdatedAt = uc.clock.Now()

	if err := uc.productRepo.Update(ctx, product); err != nil {
		logger.Op("ProductUseCase.UpdateProduct", err, map[string]string{"product": id})
		return nil, appErr(err, "Failed to update product")
	}
	return product, nil
}

// DeleteProduct hides the product; carts and orders keep referring to it.
func (uc *ProductUseCase) DeleteProduct(ctx context.Context, id, sellerID string) error {
	if _, err := uc.owned(ctx, id, sellerID); err != nil {
		return err
	}
	if err := uc.productRepo.SoftDelete(ctx, id, uc.clock.Now()); err != nil {
		logger.Op("ProductUseCase.DeleteProduct", err, map[string]string{"product": id})
		return appErr(err, "Failed to delete product")
	}
	return nil
}

func (uc *ProductUseCase) UploadProductImages(ctx context.Context, sellerID string, files []Upload) ([]string, error) {
	if len(files) == 0 {
		return nil, errors.BadRequest("Missing file", nil)
	}
	if len(files) > entity.MaxProductImages {
		return nil, errors.BadRequest("Maksimal 5 foto produk", nil)
	}
	return uc.files.UploadMany(ctx, sellerID, "products/"+sellerID, files)
}
