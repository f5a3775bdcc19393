package usecase

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lapakda/internal/domain/entity"
	"lapakda/internal/domain/repository"
	"lapakda/internal/infrastructure/storage"
	"lapakda/pkg/errors"
)

func (e *env) address(t *testing.T, userID string) *entity.Address {
	t.Helper()
	addr, err := e.addressUC.AddAddress(context.Background(), userID, AddressInput{
		ReceiverName: "Siti",
		Phone:        "08123456789",
		District:     "Sekupang",
		Subdistrict:  "Tiban Baru",
		Address:      "Jl. Mawar No. 1",
	})
	require.NoError(t, err)
	return addr
}

func TestAddToCartStockGuard(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()
	p := e.product(t, "seller", 50000, 5)

	item, err := e.cartUC.AddToCart(ctx, "buyer", p.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, entity.CartItemID("buyer", p.ID), item.ID)
	assert.Equal(t, 3, item.Quantity)

	_, err = e.cartUC.AddToCart(ctx, "buyer", p.ID, 3)
	require.Error(t, err)
	ae, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, errors.CodeStockExceeded, ae.Code)
	assert.Equal(t, 5, ae.Details["available"])

	cart, err := e.cartUC.GetCartItems(ctx, "buyer")
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 3, cart.Items[0].Quantity)

	item, err = e.cartUC.AddToCart(ctx, "buyer", p.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, 5, item.Quantity)
}

func TestAddToCartValidation(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()
	p := e.product(t, "seller", 50000, 5)

	_, err := e.cartUC.AddToCart(ctx, "buyer", p.ID, 0)
	assert.True(t, errors.Is(err, errors.CodeBadRequest))

	_, err = e.cartUC.AddToCart(ctx, "buyer", "missing", 1)
	assert.True(t, errors.Is(err, errors.CodeNotFound))

	_, err = e.cartUC.AddToCart(ctx, "seller", p.ID, 1)
	assert.True(t, errors.Is(err, errors.CodeBadRequest))

	require.NoError(t, e.productUC.DeleteProduct(ctx, p.ID, "seller"))
	_, err = e.cartUC.AddToCart(ctx, "buyer", p.ID, 1)
	assert.True(t, errors.Is(err, errors.CodeBadRequest))
}

func TestCartOwnership(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()
	p := e.product(t, "seller", 20000, 10)
	item, err := e.cartUC.AddToCart(ctx, "buyer", p.ID, 1)
	require.NoError(t, err)

	_, err = e.cartUC.UpdateCartItemQuantity(ctx, "other", item.ID, 2)
	assert.True(t, errors.Is(err, errors.CodeForbidden))
	assert.True(t, errors.Is(e.cartUC.RemoveFromCart(ctx, "other", item.ID), errors.CodeForbidden))

	updated, err := e.cartUC.UpdateCartItemQuantity(ctx, "buyer", item.ID, 10)
	require.NoError(t, err)
	assert.Equal(t, 10, updated.Quantity)

	_, err = e.cartUC.UpdateCartItemQuantity(ctx, "buyer", item.ID, 11)
	assert.True(t, errors.Is(err, errors.CodeStockExceeded))

	require.NoError(t, e.cartUC.RemoveFromCart(ctx, "buyer", item.ID))
	cart, err := e.cartUC.GetCartItems(ctx, "buyer")
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
}

type hidingProducts struct {
	repository.ProductRepository
	hidden string
}

func (h hidingProducts) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	if id == h.hidden {
		return nil, errors.NotFound("Product", nil)
	}
	return h.ProductRepository.GetByID(ctx, id)
}

func TestGetCartItemsSkipsVanishedProducts(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()
	a := e.product(t, "seller", 10000, 10)
	b := e.product(t, "seller", 25000, 10)
	gone := e.product(t, "seller", 1, 10)

	for _, p := range []*entity.Product{a, b, gone} {
		_, err := e.cartUC.AddToCart(ctx, "buyer", p.ID, 1)
		require.NoError(t, err)
		e.clock.Advance(time.Second)
	}
	_, err := e.cartUC.AddToCart(ctx, "buyer", a.ID, 2)
	require.NoError(t, err)

	uc := NewCartUseCase(e.store.Cart(), hidingProducts{ProductRepository: e.store.Products(), hidden: gone.ID}, e.clock)
	cart, err := uc.GetCartItems(ctx, "buyer")
	require.NoError(t, err)
	assert.Len(t, cart.Items, 2)
	assert.Equal(t, int64(3*10000+25000), cart.Subtotal)
}

func TestCreateOrderTotalsAndClearsCart(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()
	p := e.product(t, "seller", 50000, 5)
	addr := e.address(t, "buyer")

	_, err := e.cartUC.AddToCart(ctx, "buyer", p.ID, 2)
	require.NoError(t, err)

	order, err := e.orderUC.CreateOrder(ctx, "buyer", CheckoutInput{
		AddressID:      addr.ID,
		ShippingMethod: "kurirda",
		PaymentMethod:  "cod",
	})
	require.NoError(t, err)

	assert.Equal(t, int64(100000), order.Subtotal)
	assert.Equal(t, int64(10000), order.ShippingCost)
	assert.Equal(t, int64(110000), order.TotalAmount)
	assert.Equal(t, entity.OrderStatusPending, order.Status)
	assert.Equal(t, entity.PaymentStatusPending, order.PaymentStatus)
	require.Len(t, order.Items, 1)
	assert.Equal(t, int64(50000), order.Items[0].Price)
	assert.Equal(t, "Siti", order.ShippingAddress.ReceiverName)

	cart, err := e.cartUC.GetCartItems(ctx, "buyer")
	require.NoError(t, err)
	assert.Empty(t, cart.Items)

	// price changes after checkout do not touch the order
	_, err = e.productUC.UpdateProduct(ctx, p.ID, "seller", ProductInput{
		Name: p.Name, Price: 99999, Stock: p.Stock, Category: p.Category,
		Condition: p.Condition, District: p.District, Subdistrict: p.Subdistrict,
	})
	require.NoError(t, err)
	stored, err := e.orderUC.GetOrder(ctx, "buyer", order.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(110000), stored.TotalAmount)
}

func TestCreateOrderValidation(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()
	addr := e.address(t, "buyer")
	other := e.address(t, "someone")

	_, err := e.orderUC.CreateOrder(ctx, "buyer", CheckoutInput{AddressID: addr.ID, ShippingMethod: "kurirda", PaymentMethod: "cod"})
	assert.True(t, errors.Is(err, errors.CodeBadRequest), "empty cart")

	p := e.product(t, "seller", 1000, 1)
	_, err = e.cartUC.AddToCart(ctx, "buyer", p.ID, 1)
	require.NoError(t, err)

	_, err = e.orderUC.CreateOrder(ctx, "buyer", CheckoutInput{AddressID: addr.ID, ShippingMethod: "drone", PaymentMethod: "cod"})
	assert.True(t, errors.Is(err, errors.CodeBadRequest))
	_, err = e.orderUC.CreateOrder(ctx, "buyer", CheckoutInput{AddressID: addr.ID, ShippingMethod: "meetup", PaymentMethod: "crypto"})
	assert.True(t, errors.Is(err, errors.CodeBadRequest))
	_, err = e.orderUC.CreateOrder(ctx, "buyer", CheckoutInput{AddressID: other.ID, ShippingMethod: "meetup", PaymentMethod: "cod"})
	assert.True(t, errors.Is(err, errors.CodeForbidden))

	order, err := e.orderUC.CreateOrder(ctx, "buyer", CheckoutInput{AddressID: addr.ID, ShippingMethod: "meetup", PaymentMethod: "transfer"})
	require.NoError(t, err)
	assert.Equal(t, int64(1000), order.TotalAmount)
}

type rejectingOrders struct {
	repository.OrderRepository
	err error
}

func (r *rejectingOrders) Place(ctx context.Context, order *entity.Order, consumedCartItemIDs []string) error {
	return r.err
}

func TestCreateOrderKeepsRepositoryErrorCode(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()
	addr := e.address(t, "buyer")
	p := e.product(t, "seller", 1000, 3)
	_, err := e.cartUC.AddToCart(ctx, "buyer", p.ID, 1)
	require.NoError(t, err)

	orders := &rejectingOrders{
		OrderRepository: e.store.Orders(),
		err:             errors.BadRequest("Too many items in a single order", nil),
	}
	uc := NewOrderUseCase(orders, e.store.Users(), e.cartUC, e.addressUC, e.clock)

	_, err = uc.CreateOrder(ctx, "buyer", CheckoutInput{AddressID: addr.ID, ShippingMethod: "meetup", PaymentMethod: "cod"})
	require.True(t, errors.Is(err, errors.CodeBadRequest), "got %v", err)
	ae, _ := errors.As(err)
	assert.Equal(t, "Too many items in a single order", ae.Message)

	orders.err = context.DeadlineExceeded
	_, err = uc.CreateOrder(ctx, "buyer", CheckoutInput{AddressID: addr.ID, ShippingMethod: "meetup", PaymentMethod: "cod"})
	assert.True(t, errors.Is(err, errors.CodeInternal), "got %v", err)
}

func TestOrderAdminFlow(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()
	require.NoError(t, e.store.Users().Save(ctx, &entity.UserProfile{UID: "admin", Role: entity.RoleAdmin}))

	p := e.product(t, "seller", 1000, 10)
	addr := e.address(t, "buyer")
	for i := 0; i < 2; i++ {
		_, err := e.cartUC.AddToCart(ctx, "buyer", p.ID, 1)
		require.NoError(t, err)
		e.clock.Advance(time.Minute)
		_, err = e.orderUC.CreateOrder(ctx, "buyer", CheckoutInput{AddressID: addr.ID, ShippingMethod: "meetup", PaymentMethod: "cod"})
		require.NoError(t, err)
	}

	orders, err := e.orderUC.GetUserOrders(ctx, "buyer")
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.True(t, orders[0].CreatedAt.After(orders[1].CreatedAt))

	_, err = e.orderUC.GetOrder(ctx, "stranger", orders[0].ID)
	assert.True(t, errors.Is(err, errors.CodeForbidden))
	_, err = e.orderUC.GetOrder(ctx, "admin", orders[0].ID)
	assert.NoError(t, err)

	updated, err := e.orderUC.UpdateOrderStatus(ctx, orders[0].ID, entity.OrderStatusShipped)
	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusShipped, updated.Status)
	_, err = e.orderUC.UpdateOrderStatus(ctx, orders[0].ID, "lost")
	assert.True(t, errors.Is(err, errors.CodeBadRequest))

	paid, err := e.orderUC.UpdatePaymentStatus(ctx, orders[1].ID, entity.PaymentStatusPaid)
	require.NoError(t, err)
	assert.Equal(t, entity.PaymentStatusPaid, paid.PaymentStatus)

	shipped, err := e.orderUC.GetAllOrders(ctx, entity.OrderStatusShipped)
	require.NoError(t, err)
	assert.Len(t, shipped, 1)

	stats, err := e.orderUC.GetOrderStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.ByStatus[entity.OrderStatusPending])
	assert.Equal(t, 1, stats.ByStatus[entity.OrderStatusShipped])
	assert.Equal(t, 0, stats.ByStatus[entity.OrderStatusCancelled])
}

func TestAddressLifecycle(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()

	_, err := e.addressUC.AddAddress(ctx, "buyer", AddressInput{
		ReceiverName: "Siti", Phone: "0812", Address: "Jl. A",
		District: "Sekupang", Subdistrict: "Belian",
	})
	assert.True(t, errors.Is(err, errors.CodeBadRequest))

	for i := 0; i < entity.MaxListedAddresses+2; i++ {
		e.address(t, "buyer")
		e.clock.Advance(time.Second)
	}
	list, err := e.addressUC.GetUserAddresses(ctx, "buyer")
	require.NoError(t, err)
	assert.Len(t, list, entity.MaxListedAddresses)
	assert.True(t, list[0].CreatedAt.After(list[1].CreatedAt))

	addr := list[0]
	_, err = e.addressUC.UpdateAddress(ctx, "other", addr.ID, AddressInput{})
	assert.True(t, errors.Is(err, errors.CodeForbidden))

	updated, err := e.addressUC.UpdateAddress(ctx, "buyer", addr.ID, AddressInput{
		ReceiverName: "<b>Budi</b>", Phone: "0813", Address: "Jl. B",
		District: "Nongsa", Subdistrict: "Kabil",
	})
	require.NoError(t, err)
	assert.Equal(t, "Budi", updated.ReceiverName)
	assert.Equal(t, "Nongsa", updated.District)

	require.NoError(t, e.addressUC.DeleteAddress(ctx, "buyer", addr.ID))
	_, err = e.addressUC.GetAddress(ctx, "buyer", addr.ID)
	assert.True(t, errors.Is(err, errors.CodeNotFound))
}

func TestProductLifecycle(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()
	_, err := e.userUC.UpdateShop(ctx, "seller", ShopInput{ShopName: "Toko Budi"})
	require.NoError(t, err)

	p := e.product(t, "seller", 75000, 3)
	assert.Equal(t, "Toko Budi", p.SellerName)
	assert.Equal(t, entity.ProductStatusActive, p.Status)

	_, err = e.productUC.AddProduct(ctx, "seller", ProductInput{
		Name: "X", Category: "weapons", Condition: entity.ConditionNew,
		District: "Batam Kota", Subdistrict: "Belian",
	})
	assert.True(t, errors.Is(err, errors.CodeBadRequest))

	_, err = e.productUC.AddProduct(ctx, "seller", ProductInput{
		Name: "X", Category: "home", Condition: entity.ConditionNew,
		District: "Batam Kota", Subdistrict: "Belian",
		Images: []string{"1", "2", "3", "4", "5", "6"},
	})
	assert.True(t, errors.Is(err, errors.CodeBadRequest))

	_, err = e.productUC.AddProduct(ctx, "seller", ProductInput{
		Name: "X", Price: 1000, Weight: -1, Category: "home", Condition: entity.ConditionNew,
		District: "Batam Kota", Subdistrict: "Belian",
	})
	assert.True(t, errors.Is(err, errors.CodeBadRequest), "negative weight")

	_, err = e.productUC.UpdateProduct(ctx, p.ID, "seller", ProductInput{
		Name: p.Name, Price: p.Price, Stock: p.Stock, Weight: -250, Category: p.Category,
		Condition: p.Condition, District: p.District, Subdistrict: p.Subdistrict,
	})
	assert.True(t, errors.Is(err, errors.CodeBadRequest), "negative weight on update")

	_, err = e.productUC.UpdateProduct(ctx, p.ID, "thief", ProductInput{})
	assert.True(t, errors.Is(err, errors.CodeForbidden))

	listed, err := e.productUC.GetProducts(ctx, "home")
	require.NoError(t, err)
	assert.Len(t, listed, 1)

	require.NoError(t, e.productUC.DeleteProduct(ctx, p.ID, "seller"))
	listed, err = e.productUC.GetProducts(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, listed)

	mine, err := e.productUC.GetProductsByUser(ctx, "seller")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, entity.ProductStatusInactive, mine[0].Status)

	shop, err := e.userUC.GetShop(ctx, "seller")
	require.NoError(t, err)
	assert.Empty(t, shop.Products)
}

func TestUploadProductImages(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()

	files := []Upload{
		{Reader: strings.NewReader("a"), Size: 1, ContentType: "image/png"},
		{Reader: strings.NewReader("b"), Size: 1, ContentType: "image/webp"},
	}
	urls, err := e.productUC.UploadProductImages(ctx, "seller", files)
	require.NoError(t, err)
	require.Len(t, urls, 2)
	assert.True(t, strings.HasPrefix(urls[0], "http://files.test/products/seller/"))

	bad := []Upload{
		{Reader: strings.NewReader("a"), Size: 1, ContentType: "image/png"},
		{Reader: strings.NewReader("b"), Size: 1, ContentType: "text/plain"},
	}
	_, err = e.productUC.UploadProductImages(ctx, "seller", bad)
	assert.True(t, errors.Is(err, errors.CodeBadRequest))

	six := make([]Upload, 6)
	_, err = e.productUC.UploadProductImages(ctx, "seller", six)
	assert.True(t, errors.Is(err, errors.CodeBadRequest))
}

type flakyFiles struct {
	*storage.MemoryFileStore
	failOn int
	calls  int
	stored []string
}

func (f *flakyFiles) UploadFile(ctx context.Context, file io.Reader, contentType, folder string) (string, error) {
	f.calls++
	if f.calls == f.failOn {
		return "", fmt.Errorf("bucket unavailable")
	}
	url, err := f.MemoryFileStore.UploadFile(ctx, file, contentType, folder)
	if err == nil {
		f.stored = append(f.stored, url)
	}
	return url, err
}

func TestUploadManyRemovesStoredFilesOnFailure(t *testing.T) {
	ctx := context.Background()
	files := &flakyFiles{MemoryFileStore: storage.NewMemoryFileStore("http://files.test"), failOn: 3}
	uc := NewFileUseCase(files, nil, 0)

	batch := []Upload{
		{Reader: strings.NewReader("a"), Size: 1, ContentType: "image/png"},
		{Reader: strings.NewReader("b"), Size: 1, ContentType: "image/png"},
		{Reader: strings.NewReader("c"), Size: 1, ContentType: "image/png"},
	}
	urls, err := uc.UploadMany(ctx, "seller", "products", batch)
	require.True(t, errors.Is(err, errors.CodeInternal), "got %v", err)
	assert.Nil(t, urls)

	require.Len(t, files.stored, 2)
	for _, url := range files.stored {
		_, ok := files.Object(strings.TrimPrefix(url, "http://files.test/"))
		assert.False(t, ok, "%s left behind", url)
	}
}

func TestUserProfile(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()

	profile, err := e.userUC.GetUserProfile(ctx, "fresh")
	require.NoError(t, err)
	assert.Equal(t, "fresh", profile.UID)
	assert.Equal(t, entity.RoleUser, profile.Role)

	name := "  Budi <script>x</script> "
	phone := "0812"
	updated, err := e.userUC.UpdateUserProfile(ctx, "fresh", UpdateProfileInput{DisplayName: &name, PhoneNumber: &phone})
	require.NoError(t, err)
	assert.Equal(t, "Budi x", updated.DisplayName)

	addr := "Jl. C"
	updated, err = e.userUC.UpdateUserProfile(ctx, "fresh", UpdateProfileInput{Address: &addr})
	require.NoError(t, err)
	assert.Equal(t, "Budi x", updated.DisplayName)
	assert.Equal(t, "0812", updated.PhoneNumber)
	assert.Equal(t, "Jl. C", updated.Address)

	withPhoto, err := e.userUC.UploadProfileImage(ctx, "fresh", Upload{Reader: strings.NewReader("p"), Size: 1, ContentType: "image/gif"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(withPhoto.PhotoURL, "http://files.test/users/fresh/"))
}
