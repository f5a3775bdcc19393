package repository

import (
	"context"
	"time"

	"lapakda/internal/domain/entity"
)

type CartRepository interface {
	// AddItem adds quantity to the user's row for productID, creating it if
	// needed. The product's stock is read in the same transaction and the
	// write is refused with a STOCK_EXCEEDED error when the new quantity
	// would exceed it.
	AddItem(ctx context.Context, userID, productID string, quantity int, at time.Time) (*entity.CartItem, error)
	// SetQuantity replaces a row's quantity under the same stock guard.
	SetQuantity(ctx context.Context, itemID string, quantity int, at time.Time) (*entity.CartItem, error)
	GetByID(ctx context.Context, itemID string) (*entity.CartItem, error)
	ListByUser(ctx context.Context, userID string) ([]*entity.CartItem, error)
	Delete(ctx context.Context, itemID string) error
}

type AddressRepository interface {
	Create(ctx context.Context, address *entity.Address) error
	GetByID(ctx context.Context, id string) (*entity.Address, error)
	// ListByUser returns the user's newest addresses first, at most limit.
	ListByUser(ctx context.Context, userID string, limit int) ([]*entity.Address, error)
	Update(ctx context.Context, address *entity.Address) error
	Delete(ctx context.Context, id string) error
}

type OrderRepository interface {
	// Place stores order and removes the consumed cart rows atomically.
	Place(ctx context.Context, order *entity.Order, consumedCartItemIDs []string) error
	GetByID(ctx context.Context, id string) (*entity.Order, error)
	ListByUser(ctx context.Context, userID string) ([]*entity.Order, error)
	// List returns all orders newest first, optionally filtered by status.
	List(ctx context.Context, status string) ([]*entity.Order, error)
	UpdateStatus(ctx context.Context, id, status string, at time.Time) error
	UpdatePaymentStatus(ctx context.Context, id, paymentStatus string, at time.Time) error
	CountByStatus(ctx context.Context) (map[string]int, error)
}
