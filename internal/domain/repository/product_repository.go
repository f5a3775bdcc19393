package repository

import (
	"context"
	"time"

	"lapakda/internal/domain/entity"
)

type ProductRepository interface {
	Create(ctx context.Context, product *entity.Product) error
	GetByID(ctx context.Context, id string) (*entity.Product, error)
	// List returns matching products, newest first.
	List(ctx context.Context, filter entity.ProductFilter) ([]*entity.Product, error)
	Update(ctx context.Context, product *entity.Product) error
	SoftDelete(ctx context.Context, id string, at time.Time) error
}
