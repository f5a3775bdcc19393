package usecase

import (
	"context"

	"lapakda/internal/infrastructure/firebase"
	ws "lapakda/internal/infrastructure/websocket"
)

type AuthProvider interface {
	CreateUser(ctx context.Context, email, password, displayName string) (string, error)
	VerifyToken(ctx context.Context, token string) (string, error)
	SignInWithPassword(ctx context.Context, email, password string) (*firebase.Tokens, error)
	RefreshIDToken(ctx context.Context, refreshToken string) (*firebase.Tokens, error)
	RevokeTokens(ctx context.Context, uid string) error
}

// Notifier pushes a frame to every live socket of a user.
type Notifier interface {
	SendToUser(userID string, msg ws.WSMessage) int
}

var (
	_ AuthProvider = (*firebase.FirebaseAuthClient)(nil)
	_ Notifier     = (*ws.Manager)(nil)
)
