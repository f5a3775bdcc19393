package repository

import (
	"context"

	"cloud.google.com/go/firestore"

	"lapakda/internal/domain/entity"
	"lapakda/internal/domain/repository"
	"lapakda/pkg/errors"
)

type firestoreUserRepository struct {
	client *firestore.Client
}

func NewFirestoreUserRepository(client *firestore.Client) repository.UserRepository {
	return &firestoreUserRepository{
		client: client,
	}
}

func (r *firestoreUserRepository) GetByID(ctx context.Context, uid string) (*entity.UserProfile, error) {
	doc, err := r.client.Collection(usersCollection).Doc(uid).Get(ctx)
	if err != nil {
		return nil, readErr("User", err)
	}

	var user entity.UserProfile
	if err := doc.DataTo(&user); err != nil {
		return nil, errors.Internal("Failed to parse user data", err)
	}

	return &user, nil
}

func (r *firestoreUserRepository) Save(ctx context.Context, user *entity.UserProfile) error {
	_, err := r.client.Collection(usersCollection).Doc(user.UID).Set(ctx, user)
	if err != nil {
		return errors.Internal("Failed to save user profile", err)
	}
	return nil
}
