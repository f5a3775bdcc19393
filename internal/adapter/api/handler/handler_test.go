package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lapakda/internal/adapter/api"
	"lapakda/internal/adapter/api/handler"
	"lapakda/internal/adapter/api/middleware"
	"lapakda/internal/adapter/api/router"
	"lapakda/internal/adapter/repository/memory"
	"lapakda/internal/domain/entity"
	"lapakda/internal/infrastructure/firebase"
	"lapakda/internal/infrastructure/ratelimit"
	"lapakda/internal/infrastructure/storage"
	ws "lapakda/internal/infrastructure/websocket"
	"lapakda/internal/usecase"
	"lapakda/pkg/config"
)

const goodPassword = "Rahasia1!"

// stubAuth accepts "tok-<uid>" bearer tokens and one password for everyone.
type stubAuth struct{}

func (stubAuth) CreateUser(ctx context.Context, email, password, displayName string) (string, error) {
	return "u-" + strings.Split(email, "@")[0], nil
}

func (stubAuth) VerifyToken(ctx context.Context, token string) (string, error) {
	if !strings.HasPrefix(token, "tok-") {
		return "", fmt.Errorf("bad token")
	}
	return strings.TrimPrefix(token, "tok-"), nil
}

func (stubAuth) SignInWithPassword(ctx context.Context, email, password string) (*firebase.Tokens, error) {
	if password != goodPassword {
		return nil, &firebase.SignInError{Status: 400, Message: "INVALID_LOGIN_CREDENTIALS"}
	}
	uid := "u-" + strings.Split(email, "@")[0]
	return &firebase.Tokens{IDToken: "tok-" + uid, RefreshToken: "rt", ExpiresIn: "3600", UID: uid}, nil
}

func (stubAuth) RefreshIDToken(ctx context.Context, refreshToken string) (*firebase.Tokens, error) {
	return nil, &firebase.SignInError{Status: 400, Message: "INVALID_REFRESH_TOKEN"}
}

func (stubAuth) RevokeTokens(ctx context.Context, uid string) error { return nil }

type server struct {
	e     *echo.Echo
	store *memory.Store
}

func newServer(t *testing.T) *server {
	t.Helper()

	store := memory.NewStore()
	files := storage.NewMemoryFileStore("http://files.test")
	limiter := ratelimit.NewRateLimiter(nil, nil)
	attempts := ratelimit.NewAttemptLimiter(5, time.Minute, nil, nil)
	manager := ws.NewManager()

	fileUC := usecase.NewFileUseCase(files, limiter, 5*1024*1024)
	cartUC := usecase.NewCartUseCase(store.Cart(), store.Products(), nil)
	addressUC := usecase.NewAddressUseCase(store.Addresses(), nil)
	chatUC := usecase.NewChatUseCase(store.Chats(), store.Users(), store.Products(), fileUC, manager, limiter, nil)

	handler.Setup(handler.UseCases{
		Auth:    usecase.NewAuthUseCase(store.Users(), stubAuth{}, attempts, nil),
		User:    usecase.NewUserUseCase(store.Users(), store.Products(), fileUC, nil),
		Product: usecase.NewProductUseCase(store.Products(), store.Users(), fileUC, nil),
		Cart:    cartUC,
		Address: addressUC,
		Order:   usecase.NewOrderUseCase(store.Orders(), store.Users(), cartUC, addressUC, nil),
		Chat:    chatUC,
		File:    fileUC,
	}, config.DataStoreMemory)
	handler.SetupWebSocket(handler.NewWebSocketHandler(manager, chatUC, nil))

	e := echo.New()
	e.Validator = api.NewValidator()
	router.Setup(e, middleware.NewAuthMiddleware(stubAuth{}), middleware.NewAdminMiddleware(store.Users()), limiter)

	return &server{e: e, store: store}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string                 `json:"code"`
		Message string                 `json:"message"`
		Details map[string]interface{} `json:"details"`
	} `json:"error"`
}

func (s *server) do(t *testing.T, method, path, uid string, body interface{}) (int, envelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if uid != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer tok-"+uid)
	}
	return s.serve(t, req)
}

func (s *server) serve(t *testing.T, req *http.Request) (int, envelope) {
	t.Helper()
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec.Code, env
}

func decode(t *testing.T, env envelope, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(env.Data, out))
}

func (s *server) createProduct(t *testing.T, sellerID string, price int64, stock int) entity.Product {
	t.Helper()
	code, env := s.do(t, http.MethodPost, "/v1/my-products", sellerID, map[string]interface{}{
		"name":        "Sepeda Lipat",
		"description": "Jarang dipakai",
		"price":       price,
		"stock":       stock,
		"category":    "sport",
		"condition":   "used",
		"district":    "Sekupang",
		"subdistrict": "Tiban Baru",
	})
	require.Equal(t, http.StatusCreated, code, env.Error)

	var p entity.Product
	decode(t, env, &p)
	return p
}

func TestHealthCheck(t *testing.T) {
	s := newServer(t)

	code, env := s.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, code)

	var body map[string]string
	decode(t, env, &body)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, config.DataStoreMemory, body["data_store"])
}

func TestProtectedRoutesNeedToken(t *testing.T) {
	s := newServer(t)

	code, env := s.do(t, http.MethodGet, "/v1/cart", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "UNAUTHORIZED", env.Error.Code)

	req := httptest.NewRequest(http.MethodGet, "/v1/cart", nil)
	req.Header.Set(echo.HeaderAuthorization, "Token abc")
	code, _ = s.serve(t, req)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestRegisterAndLoginThrottle(t *testing.T) {
	s := newServer(t)

	code, env := s.do(t, http.MethodPost, "/v1/auth/register", "", map[string]string{
		"email":        "rina@example.com",
		"password":     goodPassword,
		"display_name": "Rina",
	})
	require.Equal(t, http.StatusCreated, code, env.Error)

	code, env = s.do(t, http.MethodPost, "/v1/auth/register", "", map[string]string{"email": "bukan-email"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)

	for i := 0; i < 5; i++ {
		code, _ = s.do(t, http.MethodPost, "/v1/auth/login", "", map[string]string{"email": "rina@example.com", "password": "salah"})
		assert.Equal(t, http.StatusUnauthorized, code)
	}
	code, env = s.do(t, http.MethodPost, "/v1/auth/login", "", map[string]string{"email": "rina@example.com", "password": goodPassword})
	assert.Equal(t, http.StatusTooManyRequests, code)
	assert.Equal(t, "TOO_MANY_REQUESTS", env.Error.Code)
	assert.EqualValues(t, 60, env.Error.Details["retryAfter"])
}

func TestCartCheckoutFlow(t *testing.T) {
	s := newServer(t)
	product := s.createProduct(t, "seller", 75000, 3)

	code, env := s.do(t, http.MethodPost, "/v1/cart", "buyer", map[string]interface{}{"product_id": product.ID, "quantity": 5})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "STOCK_EXCEEDED", env.Error.Code)
	assert.EqualValues(t, 3, env.Error.Details["available"])

	code, env = s.do(t, http.MethodPost, "/v1/cart", "buyer", map[string]interface{}{"product_id": product.ID, "quantity": 0})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)

	code, _ = s.do(t, http.MethodPost, "/v1/cart", "buyer", map[string]interface{}{"product_id": product.ID, "quantity": 2})
	require.Equal(t, http.StatusCreated, code)

	code, env = s.do(t, http.MethodGet, "/v1/cart", "buyer", nil)
	require.Equal(t, http.StatusOK, code)
	var cart usecase.Cart
	decode(t, env, &cart)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, int64(150000), cart.Subtotal)

	code, env = s.do(t, http.MethodPost, "/v1/addresses", "buyer", map[string]string{
		"receiver_name": "Rina",
		"phone":         "081234567890",
		"district":      "Batam Kota",
		"subdistrict":   "Belian",
		"address":       "Jl. Ahmad Yani No. 1",
	})
	require.Equal(t, http.StatusCreated, code, env.Error)
	var addr entity.Address
	decode(t, env, &addr)

	code, env = s.do(t, http.MethodPost, "/v1/orders", "buyer", map[string]string{
		"address_id":      addr.ID,
		"shipping_method": "kurirda",
		"payment_method":  "cod",
	})
	require.Equal(t, http.StatusCreated, code, env.Error)
	var order entity.Order
	decode(t, env, &order)
	assert.Equal(t, int64(160000), order.TotalAmount)
	assert.Equal(t, entity.OrderStatusPending, order.Status)

	code, env = s.do(t, http.MethodGet, "/v1/cart", "buyer", nil)
	require.Equal(t, http.StatusOK, code)
	decode(t, env, &cart)
	assert.Empty(t, cart.Items)

	code, _ = s.do(t, http.MethodGet, "/v1/orders/"+order.ID, "someone-else", nil)
	assert.Equal(t, http.StatusForbidden, code)
}

func TestAdminOrdersRequireAdmin(t *testing.T) {
	s := newServer(t)
	require.NoError(t, s.store.Users().Save(context.Background(), &entity.UserProfile{UID: "boss", Role: entity.RoleAdmin}))

	code, _ := s.do(t, http.MethodGet, "/v1/admin/orders", "buyer", nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, env := s.do(t, http.MethodGet, "/v1/admin/orders?status=pending&page=1&limit=10", "boss", nil)
	require.Equal(t, http.StatusOK, code)
	var page struct {
		Items []entity.Order `json:"items"`
		Total int64          `json:"total"`
		Page  int            `json:"page"`
	}
	decode(t, env, &page)
	assert.Equal(t, 1, page.Page)
	assert.Zero(t, page.Total)

	code, env = s.do(t, http.MethodGet, "/v1/admin/orders?status=lost", "boss", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = s.do(t, http.MethodGet, "/v1/admin/orders/stats", "boss", nil)
	require.Equal(t, http.StatusOK, code)
	var stats usecase.OrderStats
	decode(t, env, &stats)
	assert.Len(t, stats.ByStatus, len(entity.OrderStatuses))
}

func TestChatReadFlow(t *testing.T) {
	s := newServer(t)

	code, env := s.do(t, http.MethodPost, "/v1/chats", "buyer", map[string]string{"seller_id": "seller"})
	require.Equal(t, http.StatusCreated, code, env.Error)
	var room entity.ChatRoom
	decode(t, env, &room)
	assert.Equal(t, entity.RoomIDFor("buyer", "seller"), room.ID)

	code, env = s.do(t, http.MethodPost, "/v1/chats/"+room.ID+"/messages", "buyer", map[string]string{"content": "Masih ada?"})
	require.Equal(t, http.StatusCreated, code, env.Error)

	code, env = s.do(t, http.MethodPost, "/v1/chats/"+room.ID+"/messages", "buyer", map[string]string{"content": "   "})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = s.do(t, http.MethodPost, "/v1/chats/"+room.ID+"/messages", "buyer", map[string]interface{}{
		"content":  "Murah",
		"metadata": map[string]string{"type": "product_inquiry", "product_id": "no-such-product"},
	})
	assert.Equal(t, http.StatusBadRequest, code)

	search := func(q string) int {
		code, env := s.do(t, http.MethodGet, "/v1/chats?q="+q, "buyer", nil)
		require.Equal(t, http.StatusOK, code)
		var rooms []map[string]interface{}
		decode(t, env, &rooms)
		return len(rooms)
	}
	assert.Equal(t, 1, search("MASIH"))
	assert.Equal(t, 0, search("sepeda"))

	unread := func(uid string) int {
		code, env := s.do(t, http.MethodGet, "/v1/chats/unread-count", uid, nil)
		require.Equal(t, http.StatusOK, code)
		var out map[string]int
		decode(t, env, &out)
		return out["count"]
	}
	assert.Equal(t, 1, unread("seller"))
	assert.Equal(t, 0, unread("buyer"))

	code, _ = s.do(t, http.MethodPut, "/v1/chats/"+room.ID+"/read", "seller", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 0, unread("seller"))

	code, env = s.do(t, http.MethodGet, "/v1/chats/"+room.ID+"/messages", "seller", nil)
	require.Equal(t, http.StatusOK, code)
	var messages []entity.ChatMessage
	decode(t, env, &messages)
	require.Len(t, messages, 1)
	assert.True(t, messages[0].Read)

	code, _ = s.do(t, http.MethodGet, "/v1/chats/"+room.ID, "stranger", nil)
	assert.Equal(t, http.StatusForbidden, code)
}

func TestUploadFile(t *testing.T) {
	s := newServer(t)

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	require.NoError(t, w.WriteField("folder", "banners"))
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="a.png"`)
	h.Set("Content-Type", "image/png")
	part, err := w.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write([]byte("\x89PNG\r\n\x1a\n"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/upload", &body)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	req.Header.Set(echo.HeaderAuthorization, "Bearer tok-buyer")

	code, env := s.serve(t, req)
	require.Equal(t, http.StatusCreated, code, env.Error)
	var out map[string]string
	decode(t, env, &out)
	assert.True(t, strings.HasPrefix(out["secure_url"], "http://files.test/banners/"), out["secure_url"])
	assert.Equal(t, out["secure_url"], out["url"])
}

func TestCatalogAndProductListing(t *testing.T) {
	s := newServer(t)
	s.createProduct(t, "seller", 100000, 1)

	code, env := s.do(t, http.MethodGet, "/v1/products?category=sport", "", nil)
	require.Equal(t, http.StatusOK, code)
	var page struct {
		Items []entity.Product `json:"items"`
		Total int64            `json:"total"`
	}
	decode(t, env, &page)
	assert.EqualValues(t, 1, page.Total)

	code, env = s.do(t, http.MethodGet, "/v1/products?category=food", "", nil)
	require.Equal(t, http.StatusOK, code)
	decode(t, env, &page)
	assert.Zero(t, page.Total)

	code, env = s.do(t, http.MethodGet, "/v1/catalog", "", nil)
	require.Equal(t, http.StatusOK, code)
	var catalog map[string]json.RawMessage
	decode(t, env, &catalog)
	assert.Contains(t, catalog, "categories")
	assert.Contains(t, catalog, "shipping_methods")
}
