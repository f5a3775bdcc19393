package repository

import (
	"context"

	"lapakda/internal/domain/entity"
)

type UserRepository interface {
	GetByID(ctx context.Context, uid string) (*entity.UserProfile, error)
	// Save writes the whole profile, creating it when missing.
	Save(ctx context.Context, user *entity.UserProfile) error
}
