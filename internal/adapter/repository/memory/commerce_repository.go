package memory

import (
	"context"
	"sort"
	"time"

	"lapakda/internal/domain/entity"
	"lapakda/internal/domain/repository"
	"lapakda/pkg/errors"
)

type CartRepository struct {
	s *Store
}

var _ repository.CartRepository = (*CartRepository)(nil)

// stockFor must be called with s.mu held.
func (r *CartRepository) stockFor(productID string) (int, error) {
	p, ok := r.s.products[productID]
	if !ok {
		return 0, errors.NotFound("Product", nil)
	}
	if !p.IsActive() {
		return 0, errors.BadRequest("Product is no longer available", nil)
	}
	return p.Stock, nil
}

func (r *CartRepository) AddItem(ctx context.Context, userID, productID string, quantity int, at time.Time) (*entity.CartItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stock, err := r.stockFor(productID)
	if err != nil {
		return nil, err
	}

	id := entity.CartItemID(userID, productID)
	item, exists := r.s.cart[id]
	current := 0
	if exists {
		current = item.Quantity
	}
	if current+quantity > stock {
		return nil, errors.StockExceeded(stock)
	}

	if !exists {
		item = &entity.CartItem{
			ID:        id,
			UserID:    userID,
			ProductID: productID,
			CreatedAt: at,
		}
		r.s.cart[id] = item
	}
	item.Quantity = current + quantity
	item.UpdatedAt = at
	return clone(item), nil
}

func (r *CartRepository) SetQuantity(ctx context.Context, itemID string, quantity int, at time.Time) (*entity.CartItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	item, ok := r.s.cart[itemID]
	if !ok {
		return nil, errors.NotFound("Cart item", nil)
	}
	stock, err := r.stockFor(item.ProductID)
	if err != nil {
		return nil, err
	}
	if quantity > stock {
		return nil, errors.StockExceeded(stock)
	}
	item.Quantity = quantity
	item.UpdatedAt = at
	return clone(item), nil
}

func (r *CartRepository) GetByID(ctx context.Context, itemID string) (*entity.CartItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	item, ok := r.s.cart[itemID]
	if !ok {
		return nil, errors.NotFound("Cart item", nil)
	}
	return clone(item), nil
}

func (r *CartRepository) ListByUser(ctx context.Context, userID string) ([]*entity.CartItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	items := make([]*entity.CartItem, 0)
	for _, item := range r.s.cart {
		if item.UserID == userID {
			items = append(items, clone(item))
		}
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	return items, nil
}

func (r *CartRepository) Delete(ctx context.Context, itemID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.cart[itemID]; !ok {
		return errors.NotFound("Cart item", nil)
	}
	delete(r.s.cart, itemID)
	return nil
}

type AddressRepository struct {
	s *Store
}

var _ repository.AddressRepository = (*AddressRepository)(nil)

func (r *AddressRepository) Create(ctx context.Context, address *entity.Address) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if address.ID == "" {
		address.ID = r.s.newID()
	}
	r.s.addresses[address.ID] = clone(address)
	return nil
}

func (r *AddressRepository) GetByID(ctx context.Context, id string) (*entity.Address, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	a, ok := r.s.addresses[id]
	if !ok {
		return nil, errors.NotFound("Address", nil)
	}
	return clone(a), nil
}

func (r *AddressRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*entity.Address, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	list := make([]*entity.Address, 0)
	for _, a := range r.s.addresses {
		if a.UserID == userID {
			list = append(list, clone(a))
		}
	}
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

func (r *AddressRepository) Update(ctx context.Context, address *entity.Address) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.addresses[address.ID]; !ok {
		return errors.NotFound("Address", nil)
	}
	r.s.addresses[address.ID] = clone(address)
	return nil
}

func (r *AddressRepository) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.addresses[id]; !ok {
		return errors.NotFound("Address", nil)
	}
	delete(r.s.addresses, id)
	return nil
}

type OrderRepository struct {
	s *Store
}

var _ repository.OrderRepository = (*OrderRepository)(nil)

func cloneOrder(o *entity.Order) *entity.Order {
	c := clone(o)
	c.Items = append([]entity.OrderItem(nil), o.Items...)
	return c
}

func (r *OrderRepository) Place(ctx context.Context, order *entity.Order, consumedCartItemIDs []string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if order.ID == "" {
		order.ID = r.s.newID()
	}
	r.s.orders[order.ID] = cloneOrder(order)
	for _, id := range consumedCartItemIDs {
		delete(r.s.cart, id)
	}
	return nil
}

func (r *OrderRepository) GetByID(ctx context.Context, id string) (*entity.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	o, ok := r.s.orders[id]
	if !ok {
		return nil, errors.NotFound("Order", nil)
	}
	return cloneOrder(o), nil
}

func (r *OrderRepository) collect(match func(*entity.Order) bool) []*entity.Order {
	list := make([]*entity.Order, 0)
	for _, o := range r.s.orders {
		if match(o) {
			list = append(list, cloneOrder(o))
		}
	}
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
	return list
}

func (r *OrderRepository) ListByUser(ctx context.Context, userID string) ([]*entity.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.collect(func(o *entity.Order) bool { return o.UserID == userID }), nil
}

func (r *OrderRepository) List(ctx context.Context, status string) ([]*entity.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.collect(func(o *entity.Order) bool { return status == "" || o.Status == status }), nil
}

func (r *OrderRepository) UpdateStatus(ctx context.Context, id, status string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	o, ok := r.s.orders[id]
	if !ok {
		return errors.NotFound("Order", nil)
	}
	o.Status = status
	o.UpdatedAt = at
	return nil
}

func (r *OrderRepository) UpdatePaymentStatus(ctx context.Context, id, paymentStatus string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	o, ok := r.s.orders[id]
	if !ok {
		return errors.NotFound("Order", nil)
	}
	o.PaymentStatus = paymentStatus
	o.UpdatedAt = at
	return nil
}

func (r *OrderRepository) CountByStatus(ctx context.Context) (map[string]int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	counts := make(map[string]int, len(entity.OrderStatuses))
	for _, s := range entity.OrderStatuses {
		counts[s] = 0
	}
	for _, o := range r.s.orders {
		counts[o.Status]++
	}
	return counts, nil
}
