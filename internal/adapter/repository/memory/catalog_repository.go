package memory

import (
	"context"
	"sort"
	"time"

	"lapakda/internal/domain/entity"
	"lapakda/internal/domain/repository"
	"lapakda/pkg/errors"
)

type UserRepository struct {
	s *Store
}

var _ repository.UserRepository = (*UserRepository)(nil)

func (r *UserRepository) GetByID(ctx context.Context, uid string) (*entity.UserProfile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[uid]
	if !ok {
		return nil, errors.NotFound("User", nil)
	}
	return clone(u), nil
}

func (r *UserRepository) Save(ctx context.Context, user *entity.UserProfile) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.users[user.UID] = clone(user)
	return nil
}

type ProductRepository struct {
	s *Store
}

var _ repository.ProductRepository = (*ProductRepository)(nil)

func cloneProduct(p *entity.Product) *entity.Product {
	c := clone(p)
	c.Images = append([]string(nil), p.Images...)
	return c
}

func (r *ProductRepository) Create(ctx context.Context, product *entity.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if product.ID == "" {
		product.ID = r.s.newID()
	}
	r.s.products[product.ID] = cloneProduct(product)
	return nil
}

func (r *ProductRepository) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.products[id]
	if !ok {
		return nil, errors.NotFound("Product", nil)
	}
	return cloneProduct(p), nil
}

func (r *ProductRepository) List(ctx context.Context, filter entity.ProductFilter) ([]*entity.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	products := make([]*entity.Product, 0)
	for _, p := range r.s.products {
		if filter.ActiveOnly && !p.IsActive() {
			continue
		}
		if filter.Category != "" && p.Category != filter.Category {
			continue
		}
		if filter.SellerID != "" && p.SellerID != filter.SellerID {
			continue
		}
		products = append(products, cloneProduct(p))
	}
	sort.SliceStable(products, func(i, j int) bool {
		return products[i].CreatedAt.After(products[j].CreatedAt)
	})
	return products, nil
}

func (r *ProductRepository) Update(ctx context.Context, product *entity.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.products[product.ID]; !ok {
		return errors.NotFound("Product", nil)
	}
	r.s.products[product.ID] = cloneProduct(product)
	return nil
}

func (r *ProductRepository) SoftDelete(ctx context.Context, id string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.products[id]
	if !ok {
		return errors.NotFound("Product", nil)
	}
	p.Status = entity.ProductStatusInactive
	p.UpdatedAt = at
	return nil
}
