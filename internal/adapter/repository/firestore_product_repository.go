package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"

	"lapakda/internal/domain/entity"
	"lapakda/internal/domain/repository"
	"lapakda/pkg/errors"
)

type firestoreProductRepository struct {
	client *firestore.Client
}

func NewFirestoreProductRepository(client *firestore.Client) repository.ProductRepository {
	return &firestoreProductRepository{
		client: client,
	}
}

func (r *firestoreProductRepository) Create(ctx context.Context, product *entity.Product) error {
	if product.ID == "" {
		doc := r.client.Collection(productsCollection).NewDoc()
		product.ID = doc.ID
	}

	_, err := r.client.Collection(productsCollection).Doc(product.ID).Set(ctx, product)
	if err != nil {
		return errors.Internal("Failed to create product", err)
	}

	return nil
}

func (r *firestoreProductRepository) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	doc, err := r.client.Collection(productsCollection).Doc(id).Get(ctx)
	if err != nil {
		return nil, readErr("Product", err)
	}

	var product entity.Product
	if err := doc.DataTo(&product); err != nil {
		return nil, errors.Internal("Failed to parse product data", err)
	}

	return &product, nil
}

func (r *firestoreProductRepository) List(ctx context.Context, filter entity.ProductFilter) ([]*entity.Product, error) {
	query := r.client.Collection(productsCollection).Query

	if filter.ActiveOnly {
		query = query.Where("status", "==", entity.ProductStatusActive)
	}
	if filter.Category != "" {
		query = query.Where("category", "==", filter.Category)
	}
	if filter.SellerID != "" {
		query = query.Where("sellerId", "==", filter.SellerID)
	}
	query = query.OrderBy("createdAt", firestore.Desc)

	products, err := decodeAll[entity.Product](query.Documents(ctx))
	if err != nil {
		return nil, errors.Internal("Failed to list products", err)
	}
	return products, nil
}

func (r *firestoreProductRepository) Update(ctx context.Context, product *entity.Product) error {
	ref := r.client.Collection(productsCollection).Doc(product.ID)
	if _, err := ref.Set(ctx, product); err != nil {
		return errors.Internal("Failed to update product", err)
	}
	return nil
}

func (r *firestoreProductRepository) SoftDelete(ctx context.Context, id string, at time.Time) error {
	_, err := r.client.Collection(productsCollection).Doc(id).Update(ctx, []firestore.Update{
		{Path: "status", Value: entity.ProductStatusInactive},
		{Path: "updatedAt", Value: at},
	})
	if err != nil {
		return readErr("Product", err)
	}

	return nil
}
