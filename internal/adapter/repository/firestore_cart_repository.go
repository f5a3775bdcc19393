package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"lapakda/internal/domain/entity"
	"lapakda/internal/domain/repository"
	"lapakda/pkg/errors"
)

type firestoreCartRepository struct {
	client *firestore.Client
}

func NewFirestoreCartRepository(client *firestore.Client) repository.CartRepository {
	return &firestoreCartRepository{
		client: client,
	}
}

func (r *firestoreCartRepository) stock(tx *firestore.Transaction, productID string) (int, error) {
	doc, err := tx.Get(r.client.Collection(productsCollection).Doc(productID))
	if err != nil {
		return 0, readErr("Product", err)
	}
	var product entity.Product
	if err := doc.DataTo(&product); err != nil {
		return 0, err
	}
	if !product.IsActive() {
		return 0, errors.BadRequest("Product is no longer available", nil)
	}
	return product.Stock, nil
}

func (r *firestoreCartRepository) AddItem(ctx context.Context, userID, productID string, quantity int, at time.Time) (*entity.CartItem, error) {
	ref := r.client.Collection(cartCollection).Doc(entity.CartItemID(userID, productID))

	var result entity.CartItem
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		stock, err := r.stock(tx, productID)
		if err != nil {
			return err
		}

		item := entity.CartItem{
			ID:        ref.ID,
			UserID:    userID,
			ProductID: productID,
			CreatedAt: at,
		}
		doc, err := tx.Get(ref)
		switch {
		case err == nil:
			if err := doc.DataTo(&item); err != nil {
				return err
			}
		case status.Code(err) != codes.NotFound:
			return err
		}

		if item.Quantity+quantity > stock {
			return errors.StockExceeded(stock)
		}
		item.Quantity += quantity
		item.UpdatedAt = at
		result = item
		return tx.Set(ref, &item)
	})
	if err != nil {
		return nil, passThrough("Failed to add item to cart", err)
	}
	return &result, nil
}

func (r *firestoreCartRepository) SetQuantity(ctx context.Context, itemID string, quantity int, at time.Time) (*entity.CartItem, error) {
	ref := r.client.Collection(cartCollection).Doc(itemID)

	var result entity.CartItem
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(ref)
		if err != nil {
			return readErr("Cart item", err)
		}
		var item entity.CartItem
		if err := doc.DataTo(&item); err != nil {
			return err
		}

		stock, err := r.stock(tx, item.ProductID)
		if err != nil {
			return err
		}
		if quantity > stock {
			return errors.StockExceeded(stock)
		}

		item.Quantity = quantity
		item.UpdatedAt = at
		result = item
		return tx.Update(ref, []firestore.Update{
			{Path: "quantity", Value: quantity},
			{Path: "updatedAt", Value: at},
		})
	})
	if err != nil {
		return nil, passThrough("Failed to update cart item", err)
	}
	return &result, nil
}

func (r *firestoreCartRepository) GetByID(ctx context.Context, itemID string) (*entity.CartItem, error) {
	doc, err := r.client.Collection(cartCollection).Doc(itemID).Get(ctx)
	if err != nil {
		return nil, readErr("Cart item", err)
	}
	var item entity.CartItem
	if err := doc.DataTo(&item); err != nil {
		return nil, errors.Internal("Failed to parse cart item", err)
	}
	return &item, nil
}

func (r *firestoreCartRepository) ListByUser(ctx context.Context, userID string) ([]*entity.CartItem, error) {
	items, err := decodeAll[entity.CartItem](
		r.client.Collection(cartCollection).Where("userId", "==", userID).Documents(ctx),
	)
	if err != nil {
		return nil, errors.Internal("Failed to list cart items", err)
	}
	return items, nil
}

func (r *firestoreCartRepository) Delete(ctx context.Context, itemID string) error {
	_, err := r.client.Collection(cartCollection).Doc(itemID).Delete(ctx, firestore.Exists)
	if err != nil {
		return readErr("Cart item", err)
	}
	return nil
}
