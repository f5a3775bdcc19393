package usecase

import (
	"context"

	"golang.org/x/sync/errgroup"

	"lapakda/internal/domain/entity"
	"lapakda/internal/domain/repository"
	"lapakda/internal/infrastructure/ratelimit"
	"lapakda/pkg/errors"
	"lapakda/pkg/logger"
)

const hydrateConcurrency = 8

type CartUseCase struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
	clock       ratelimit.Clock
}

func NewCartUseCase(cartRepo repository.CartRepository, productRepo repository.ProductRepository, clock ratelimit.Clock) *CartUseCase {
	if clock == nil {
		clock = ratelimit.SystemClock
	}
	return &CartUseCase{
		cartRepo:    cartRepo,
		productRepo: productRepo,
		clock:       clock,
	}
}

type Cart struct {
	Items    []entity.CartLine `json:"items"`
	Subtotal int64             `json:"subtotal"`
}

func (uc *CartUseCase) AddToCart(ctx context.Context, userID, productID string, quantity int) (*entity.CartItem, error) {
	if quantity < 1 {
		return nil, errors.BadRequest("Jumlah minimal 1", nil)
	}
	product, err := uc.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, appErr(err, "Failed to load product")
	}
	if !product.IsActive() {
		return nil, errors.BadRequest("Produk tidak tersedia", nil)
	}
	if product.SellerID == userID {
		return nil, errors.BadRequest("Tidak dapat membeli produk sendiri", nil)
	}

	item, err := uc.cartRepo.AddItem(ctx, userID, productID, quantity, uc.clock.Now())
	if err != nil {
		if !errors.Is(err, errors.CodeStockExceeded) {
			logger.Op("CartUseCase.AddToCart", err, map[string]string{"user": userID, "product": productID})
		}
		return nil, appErr(err, "Failed to add to cart")
	}
	return item, nil
}

// hydrate pairs cart rows with their products. Rows whose product is gone
// are dropped.
func (uc *CartUseCase) hydrate(ctx context.Context, items []*entity.CartItem) ([]entity.CartLine, error) {
	products := make([]*entity.Product, len(items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(hydrateConcurrency)
	for i, item := range items {
		i, item := i, item
		g.Go(func() error {
			p, err := uc.productRepo.GetByID(gctx, item.ProductID)
			if err != nil {
				if errors.Is(err, errors.CodeNotFound) {
					return nil
				}
				return err
			}
			products[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	lines := make([]entity.CartLine, 0, len(items))
	for i, item := range items {
		if products[i] == nil {
			continue
		}
		lines = append(lines, entity.CartLine{CartItem: *item, Product: products[i]})
	}
	return lines, nil
}

func (uc *CartUseCase) GetCartItems(ctx context.Context, userID string) (*Cart, error) {
	items, err := uc.cartRepo.ListByUser(ctx, userID)
	if err != nil {
		logger.Op("CartUseCase.GetCartItems", err, map[string]string{"user": userID})
		return nil, appErr(err, "Failed to load cart")
	}
	lines, err := uc.hydrate(ctx, items)
	if err != nil {
		logger.Op("CartUseCase.GetCartItems", err, map[string]string{"user": userID})
		return nil, appErr(err, "Failed to load cart products")
	}

	cart := &Cart{Items: lines}
	for _, l := range lines {
		cart.Subtotal += l.LineTotal()
	}
	return cart, nil
}

func (uc *CartUseCase) owned(ctx context.Context, userID, itemID string) (*entity.CartItem, error) {
	item, err := uc.cartRepo.GetByID(ctx, itemID)
	if err != nil {
		return nil, appErr(err, "Failed to load cart item")
	}
	if item.UserID != userID {
		return nil, errors.Forbidden("You don't have access to this cart item", nil)
	}
	return item, nil
}

func (uc *CartUseCase) UpdateCartItemQuantity(ctx context.Context, userID, itemID string, quantity int) (*entity.CartItem, error) {
	if quantity < 1 {
		return nil, errors.BadRequest("Jumlah minimal 1", nil)
	}
	if _, err := uc.owned(ctx, userID, itemID); err != nil {
		return nil, err
	}
	item, err := uc.cartRepo.SetQuantity(ctx, itemID, quantity, uc.clock.Now())
	if err != nil {
		return nil, appErr(err, "Failed to update cart item")
	}
	return item, nil
}

func (uc *CartUseCase) RemoveFromCart(ctx context.Context, userID, itemID string) error {
	if _, err := uc.owned(ctx, userID, itemID); err != nil {
		return err
	}
	if err := uc.cartRepo.Delete(ctx, itemID); err != nil {
		logger.Op("CartUseCase.RemoveFromCart", err, map[string]string{"item": itemID})
		return appErr(err, "Failed to remove cart item")
	}
	return nil
}

// lines loads the user's hydrated cart for checkout.
func (uc *CartUseCase) lines(ctx context.Context, userID string) ([]entity.CartLine, error) {
	cart, err := uc.GetCartItems(ctx, userID)
	if err != nil {
		return nil, err
	}
	return cart.Items, nil
}
