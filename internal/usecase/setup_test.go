package usecase

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"lapakda/internal/adapter/repository/memory"
	"lapakda/internal/domain/entity"
	"lapakda/internal/infrastructure/firebase"
	"lapakda/internal/infrastructure/ratelimit"
	"lapakda/internal/infrastructure/storage"
	ws "lapakda/internal/infrastructure/websocket"
)

var epoch = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

type recordingNotifier struct {
	mu   sync.Mutex
	sent map[string][]ws.WSMessage
}

func (n *recordingNotifier) SendToUser(userID string, msg ws.WSMessage) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.sent == nil {
		n.sent = make(map[string][]ws.WSMessage)
	}
	n.sent[userID] = append(n.sent[userID], msg)
	return 1
}

func (n *recordingNotifier) frames(userID string) []ws.WSMessage {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]ws.WSMessage(nil), n.sent[userID]...)
}

type fakeAuth struct {
	mu      sync.Mutex
	users   map[string]string // email -> password
	uids    map[string]string // email -> uid
	revoked []string
	signIns int
}

func newFakeAuth() *fakeAuth {
	return &fakeAuth{users: map[string]string{}, uids: map[string]string{}}
}

func (f *fakeAuth) CreateUser(ctx context.Context, email, password, displayName string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[email]; ok {
		return "", fmt.Errorf("email exists")
	}
	uid := fmt.Sprintf("uid-%d", len(f.users)+1)
	f.users[email] = password
	f.uids[email] = uid
	return uid, nil
}

func (f *fakeAuth) VerifyToken(ctx context.Context, token string) (string, error) {
	return "", fmt.Errorf("not used")
}

func (f *fakeAuth) SignInWithPassword(ctx context.Context, email, password string) (*firebase.Tokens, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signIns++
	if pw, ok := f.users[email]; !ok || pw != password {
		return nil, &firebase.SignInError{Status: 400, Message: "INVALID_LOGIN_CREDENTIALS"}
	}
	return &firebase.Tokens{IDToken: "id-" + f.uids[email], RefreshToken: "rt-" + f.uids[email], ExpiresIn: "3600", UID: f.uids[email]}, nil
}

func (f *fakeAuth) RefreshIDToken(ctx context.Context, refreshToken string) (*firebase.Tokens, error) {
	if refreshToken != "rt-uid-1" {
		return nil, &firebase.SignInError{Status: 400, Message: "INVALID_REFRESH_TOKEN"}
	}
	return &firebase.Tokens{IDToken: "id-2", RefreshToken: refreshToken, ExpiresIn: "3600", UID: "uid-1"}, nil
}

func (f *fakeAuth) RevokeTokens(ctx context.Context, uid string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.revoked = append(f.revoked, uid)
	return nil
}

type env struct {
	store    *memory.Store
	clock    *ratelimit.ManualClock
	files    *storage.MemoryFileStore
	notifier *recordingNotifier
	auth     *fakeAuth

	fileUC    *FileUseCase
	authUC    *AuthUseCase
	userUC    *UserUseCase
	productUC *ProductUseCase
	cartUC    *CartUseCase
	addressUC *AddressUseCase
	orderUC   *OrderUseCase
	chatUC    *ChatUseCase
}

func newEnv(t *testing.T, policies map[string]ratelimit.Policy) *env {
	t.Helper()
	e := &env{
		store:    memory.NewStore(),
		clock:    ratelimit.NewManualClock(epoch),
		files:    storage.NewMemoryFileStore("http://files.test"),
		notifier: &recordingNotifier{},
		auth:     newFakeAuth(),
	}
	if policies == nil {
		policies = map[string]ratelimit.Policy{
			ratelimit.ActionCreateChat:  {Burst: 100, Every: time.Second},
			ratelimit.ActionSendMessage: {Burst: 100, Every: time.Second},
			ratelimit.ActionUpload:      {Burst: 100, Every: time.Second},
		}
	}
	limiter := ratelimit.NewRateLimiter(e.clock, policies)
	attempts := ratelimit.NewAttemptLimiter(5, time.Minute, e.clock, nil)

	e.fileUC = NewFileUseCase(e.files, limiter, 5*1024*1024)
	e.authUC = NewAuthUseCase(e.store.Users(), e.auth, attempts, e.clock)
	e.userUC = NewUserUseCase(e.store.Users(), e.store.Products(), e.fileUC, e.clock)
	e.productUC = NewProductUseCase(e.store.Products(), e.store.Users(), e.fileUC, e.clock)
	e.cartUC = NewCartUseCase(e.store.Cart(), e.store.Products(), e.clock)
	e.addressUC = NewAddressUseCase(e.store.Addresses(), e.clock)
	e.orderUC = NewOrderUseCase(e.store.Orders(), e.store.Users(), e.cartUC, e.addressUC, e.clock)
	e.chatUC = NewChatUseCase(e.store.Chats(), e.store.Users(), e.store.Products(), e.fileUC, e.notifier, limiter, e.clock)
	return e
}

func (e *env) product(t *testing.T, sellerID string, price int64, stock int) *entity.Product {
	t.Helper()
	p, err := e.productUC.AddProduct(context.Background(), sellerID, ProductInput{
		Name:        "Kipas Angin",
		Description: "Masih bagus",
		Price:       price,
		Stock:       stock,
		Category:    "home",
		Condition:   entity.ConditionUsed,
		District:    "Batam Kota",
		Subdistrict: "Belian",
	})
	require.NoError(t, err)
	return p
}
