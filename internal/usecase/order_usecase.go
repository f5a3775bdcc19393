package usecase

import (
	"context"

	"lapakda/internal/domain/entity"
	"lapakda/internal/domain/repository"
	"lapakda/internal/infrastructure/ratelimit"
	"lapakda/pkg/errors"
	"lapakda/pkg/logger"
)

type OrderUseCase struct {
	orderRepo repository.OrderRepository
	userRepo  repository.UserRepository
	cart      *CartUseCase
	addresses *AddressUseCase
	clock     ratelimit.Clock
}

func NewOrderUseCase(
	orderRepo repository.OrderRepository,
	userRepo repository.UserRepository,
	cart *CartUseCase,
	addresses *AddressUseCase,
	clock ratelimit.Clock,
) *OrderUseCase {
	if clock == nil {
		clock = ratelimit.SystemClock
	}
	return &OrderUseCase{
		orderRepo: orderRepo,
		userRepo:  userRepo,
		cart:      cart,
		addresses: addresses,
		clock:     clock,
	}
}

type CheckoutInput struct {
	AddressID      string
	ShippingMethod string
	PaymentMethod  string
}

// OrderStats is the admin dashboard summary.
type OrderStats struct {
	Total    int            `json:"total"`
	ByStatus map[string]int `json:"by_status"`
}

// CreateOrder turns the user's cart into a pending order priced from the
// current products, and clears the rows it consumed.
func (uc *OrderUseCase) CreateOrder(ctx context.Context, userID string, input CheckoutInput) (*entity.Order, error) {
	shipping, ok := entity.FindShippingMethod(input.ShippingMethod)
	if !ok {
		return nil, errors.BadRequest("Metode pengiriman tidak valid", nil)
	}
	if !entity.IsPaymentMethod(input.PaymentMethod) {
		return nil, errors.BadRequest("Metode pembayaran tidak valid", nil)
	}
	addr, err := uc.addresses.GetAddress(ctx, userID, input.AddressID)
	if err != nil {
		return nil, err
	}

	lines, err := uc.cart.lines(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, errors.BadRequest("Keranjang belanja kosong", nil)
	}

	items := make([]entity.OrderItem, 0, len(lines))
	consumed := make([]string, 0, len(lines))
	var subtotal int64
	for _, l := range lines {
		if !l.Product.IsActive() {
			return nil, errors.BadRequest("Produk \""+l.Product.Name+"\" tidak tersedia lagi", nil)
		}
		if l.Quantity > l.Product.Stock {
			return nil, errors.StockExceeded(l.Product.Stock).WithDetail("product_id", l.Product.ID)
		}
		items = append(items, entity.OrderItem{
			ProductID: l.Product.ID,
			Name:      l.Product.Name,
			Quantity:  l.Quantity,
			Price:     l.Product.Price,
		})
		consumed = append(consumed, l.ID)
		subtotal += l.LineTotal()
	}

	now := uc.clock.Now()
	order := &entity.Order{
		UserID: userID,
		Items:  items,
		ShippingAddress: entity.ShippingAddress{
			ReceiverName: addr.ReceiverName,
			Phone:        addr.Phone,
			Address:      addr.Address,
			District:     addr.District,
			Subdistrict:  addr.Subdistrict,
		},
		ShippingMethod: entity.OrderShippingMethod{ID: shipping.ID, Name: shipping.Name, Cost: shipping.Cost},
		PaymentMethod:  input.PaymentMethod,
		Subtotal:       subtotal,
		ShippingCost:   shipping.Cost,
		TotalAmount:    subtotal + shipping.Cost,
		Status:         entity.OrderStatusPending,
		PaymentStatus:  entity.PaymentStatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := uc.orderRepo.Place(ctx, order, consumed); err != nil {
		logger.Op("OrderUseCase.CreateOrder", err, map[string]string{"user": userID})
		return nil, appErr(err, "Failed to create order")
	}
	logger.Info("Order %s placed by %s, total %d", order.ID, userID, order.TotalAmount)
	return order, nil
}

func (uc *OrderUseCase) isAdmin(ctx context.Context, userID string) bool {
	user, err := uc.userRepo.GetByID(ctx, userID)
	return err == nil && user.IsAdmin()
}

// GetOrder is visible to the buyer and to admins.
func (uc *OrderUseCase) GetOrder(ctx context.Context, userID, id string) (*entity.Order, error) {
	order, err := uc.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, appErr(err, "Failed to load order")
	}
	if order.UserID != userID && !uc.isAdmin(ctx, userID) {
		return nil, errors.Forbidden("You don't have access to this order", nil)
	}
	return order, nil
}

func (uc *OrderUseCase) GetUserOrders(ctx context.Context, userID string) ([]*entity.Order, error) {
	orders, err := uc.orderRepo.ListByUser(ctx, userID)
	if err != nil {
		logger.Op("OrderUseCase.GetUserOrders", err, map[string]string{"user": userID})
		return nil, appErr(err, "Failed to list orders")
	}
	return orders, nil
}

func (uc *OrderUseCase) GetAllOrders(ctx context.Context, status string) ([]*entity.Order, error) {
	if status != "" && !entity.IsOrderStatus(status) {
		return nil, errors.BadRequest("Status pesanan tidak valid", nil)
	}
	orders, err := uc.orderRepo.List(ctx, status)
	if err != nil {
		logger.Op("OrderUseCase.GetAllOrders", err, map[string]string{"status": status})
		return nil, appErr(err, "Failed to list orders")
	}
	return orders, nil
}

func (uc *OrderUseCase) UpdateOrderStatus(ctx context.Context, id, status string) (*entity.Order, error) {
	if !entity.IsOrderStatus(status) {
		return nil, errors.BadRequest("Status pesanan tidak valid", nil)
	}
	if err := uc.orderRepo.UpdateStatus(ctx, id, status, uc.clock.Now()); err != nil {
		logger.Op("OrderUseCase.UpdateOrderStatus", err, map[string]string{"order": id})
		return nil, appErr(err, "Failed to update order status")
	}
	return uc.orderRepo.GetByID(ctx, id)
}

func (uc *OrderUseCase) UpdatePaymentStatus(ctx context.Context, id, status string) (*entity.Order, error) {
	if !entity.IsPaymentStatus(status) {
		return nil, errors.BadRequest("Status pembayaran tidak valid", nil)
	}
	if err := uc.orderRepo.UpdatePaymentStatus(ctx, id, status, uc.clock.Now()); err != nil {
		logger.Op("OrderUseCase.UpdatePaymentStatus", err, map[string]string{"order": id})
		return nil, appErr(err, "Failed to update payment status")
	}
	return uc.orderRepo.GetByID(ctx, id)
}

func (uc *OrderUseCase) GetOrderStats(ctx context.Context) (*OrderStats, error) {
	counts, err := uc.orderRepo.CountByStatus(ctx)
	if err != nil {
		logger.Op("OrderUseCase.GetOrderStats", err, nil)
		return nil, appErr(err, "Failed to count orders")
	}
	stats := &OrderStats{ByStatus: make(map[string]int, len(entity.OrderStatuses))}
	for _, s := range entity.OrderStatuses {
		stats.ByStatus[s] = counts[s]
		stats.Total += counts[s]
	}
	return stats, nil
}
