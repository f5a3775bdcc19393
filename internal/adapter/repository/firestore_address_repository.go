package repository

import (
	"context"

	"cloud.google.com/go/firestore"

	"lapakda/internal/domain/entity"
	"lapakda/internal/domain/repository"
	"lapakda/pkg/errors"
)

type firestoreAddressRepository struct {
	client *firestore.Client
}

func NewFirestoreAddressRepository(client *firestore.Client) repository.AddressRepository {
	return &firestoreAddressRepository{
		client: client,
	}
}

func (r *firestoreAddressRepository) Create(ctx context.Context, address *entity.Address) error {
	if address.ID == "" {
		address.ID = r.client.Collection(addressesCollection).NewDoc().ID
	}
	if _, err := r.client.Collection(addressesCollection).Doc(address.ID).Set(ctx, address); err != nil {
		return errors.Internal("Failed to create address", err)
	}
	return nil
}

func (r *firestoreAddressRepository) GetByID(ctx context.Context, id string) (*entity.Address, error) {
	doc, err := r.client.Collection(addressesCollection).Doc(id).Get(ctx)
	if err != nil {
		return nil, readErr("Address", err)
	}
	var address entity.Address
	if err := doc.DataTo(&address); err != nil {
		return nil, errors.Internal("Failed to parse address", err)
	}
	return &address, nil
}

func (r *firestoreAddressRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*entity.Address, error) {
	query := r.client.Collection(addressesCollection).
		Where("userId", "==", userID).
		OrderBy("createdAt", firestore.Desc)
	if limit > 0 {
		query = query.Limit(limit)
	}

	list, err := decodeAll[entity.Address](query.Documents(ctx))
	if err != nil {
		return nil, errors.Internal("Failed to list addresses", err)
	}
	return list, nil
}

func (r *firestoreAddressRepository) Update(ctx context.Context, address *entity.Address) error {
	_, err := r.client.Collection(addressesCollection).Doc(address.ID).Set(ctx, address)
	if err != nil {
		return errors.Internal("Failed to update address", err)
	}
	return nil
}

func (r *firestoreAddressRepository) Delete(ctx context.Context, id string) error {
	_, err := r.client.Collection(addressesCollection).Doc(id).Delete(ctx, firestore.Exists)
	if err != nil {
		return readErr("Address", err)
	}
	return nil
}
