// Package memory is an in-process implementation of the repository
// contracts. A single mutex serializes every operation, so each method call
// behaves as one transaction.
package memory

import (
	"sync"

	"github.com/google/uuid"

	"lapakda/internal/domain/entity"
)

type Store struct {
	mu sync.Mutex

	users     map[string]*entity.UserProfile
	products  map[string]*entity.Product
	cart      map[string]*entity.CartItem
	addresses map[string]*entity.Address
	orders    map[string]*entity.Order
	rooms     map[string]*entity.ChatRoom
	messages  map[string]map[string]*entity.ChatMessage

	watchers *watchHub
	newID    func() string
}

func NewStore() *Store {
	return &Store{
		users:     make(map[string]*entity.UserProfile),
		products:  make(map[string]*entity.Product),
		cart:      make(map[string]*entity.CartItem),
		addresses: make(map[string]*entity.Address),
		orders:    make(map[string]*entity.Order),
		rooms:     make(map[string]*entity.ChatRoom),
		messages:  make(map[string]map[string]*entity.ChatMessage),
		watchers:  newWatchHub(),
		newID:     uuid.NewString,
	}
}

func (s *Store) Users() *UserRepository        { return &UserRepository{s: s} }
func (s *Store) Products() *ProductRepository  { return &ProductRepository{s: s} }
func (s *Store) Cart() *CartRepository         { return &CartRepository{s: s} }
func (s *Store) Addresses() *AddressRepository { return &AddressRepository{s: s} }
func (s *Store) Orders() *OrderRepository      { return &OrderRepository{s: s} }
func (s *Store) Chats() *ChatRepository        { return &ChatRepository{s: s} }

func clone[T any](v *T) *T {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
