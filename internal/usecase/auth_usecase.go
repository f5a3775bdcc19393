package usecase

import (
	"context"
	stderrors "errors"
	"strings"
	"time"

	"lapakda/internal/domain/entity"
	"lapakda/internal/domain/repository"
	"lapakda/internal/infrastructure/firebase"
	"lapakda/internal/infrastructure/ratelimit"
	"lapakda/pkg/errors"
	"lapakda/pkg/logger"
)

const tooManyAttemptsMessage = "Terlalu banyak percobaan. Silakan tunggu beberapa saat."

type AuthUseCase struct {
	userRepo repository.UserRepository
	auth     AuthProvider
	attempts *ratelimit.AttemptLimiter
	clock    ratelimit.Clock
}

func NewAuthUseCase(userRepo repository.UserRepository, auth AuthProvider, attempts *ratelimit.AttemptLimiter, clock ratelimit.Clock) *AuthUseCase {
	if clock == nil {
		clock = ratelimit.SystemClock
	}
	return &AuthUseCase{
		userRepo: userRepo,
		auth:     auth,
		attempts: attempts,
		clock:    clock,
	}
}

type SignUpInput struct {
	Email       string
	Password    string
	DisplayName string
}

type AuthResult struct {
	User         *entity.UserProfile `json:"user"`
	Token        string              `json:"token"`
	RefreshToken string              `json:"refresh_token"`
	ExpiresIn    string              `json:"expires_in,omitempty"`
}

func (uc *AuthUseCase) SignUp(ctx context.Context, input SignUpInput) (*AuthResult, error) {
	email := sanitizeInput(input.Email)
	name := sanitizeInput(input.DisplayName)
	if email == "" || name == "" {
		return nil, errors.BadRequest("Email dan nama wajib diisi", nil)
	}
	if !IsStrongPassword(input.Password) {
		return nil, errors.BadRequest("Password minimal 8 karakter dan harus mengandung huruf besar, huruf kecil, angka, dan karakter khusus", nil)
	}

	uid, err := uc.auth.CreateUser(ctx, email, input.Password, name)
	if err != nil {
		logger.Op("AuthUseCase.SignUp", err, map[string]string{"email": email})
		return nil, appErr(err, "Failed to create user in authentication provider")
	}

	now := uc.clock.Now()
	user := &entity.UserProfile{
		UID:         uid,
		Email:       email,
		DisplayName: name,
		Role:        entity.RoleUser,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := uc.userRepo.Save(ctx, user); err != nil {
		logger.Op("AuthUseCase.SignUp", err, map[string]string{"uid": uid})
		return nil, errors.Internal("Failed to create user record", err)
	}

	tokens, err := uc.auth.SignInWithPassword(ctx, email, input.Password)
	if err != nil {
		return nil, errors.Internal("Failed to generate authentication token", err)
	}
	return authResult(user, tokens), nil
}

func (uc *AuthUseCase) SignIn(ctx context.Context, email, password string) (*AuthResult, error) {
	email = sanitizeInput(email)
	if email == "" || password == "" {
		return nil, errors.BadRequest("Email dan password wajib diisi", nil)
	}

	// the identity provider treats addresses case-insensitively
	key := strings.ToLower(email)
	if uc.attempts != nil {
		if ok, wait := uc.attempts.Attempt(key); !ok {
			logger.Warn("Sign-in throttled for %s, retry in %v", email, wait)
			return nil, errors.TooManyRequests(tooManyAttemptsMessage, retrySeconds(wait))
		}
	}

	tokens, err := uc.auth.SignInWithPassword(ctx, email, password)
	if err != nil {
		var rejected *firebase.SignInError
		if stderrors.As(err, &rejected) {
			return nil, errors.Unauthorized("Email atau password salah", err)
		}
		logger.Op("AuthUseCase.SignIn", err, map[string]string{"email": email})
		return nil, errors.Internal("Failed to sign in", err)
	}
	if uc.attempts != nil {
		uc.attempts.Reset(key)
	}

	user, err := uc.userRepo.GetByID(ctx, tokens.UID)
	if err != nil {
		if !errors.Is(err, errors.CodeNotFound) {
			return nil, appErr(err, "Failed to load user profile")
		}
		user = defaultProfile(tokens.UID, email, uc.clock.Now())
	}
	return authResult(user, tokens), nil
}

func (uc *AuthUseCase) SignOut(ctx context.Context, uid string) error {
	if err := uc.auth.RevokeTokens(ctx, uid); err != nil {
		logger.Op("AuthUseCase.SignOut", err, map[string]string{"uid": uid})
		return errors.Internal("Failed to sign out", err)
	}
	return nil
}

func (uc *AuthUseCase) RefreshToken(ctx context.Context, refreshToken string) (*AuthResult, error) {
	if refreshToken == "" {
		return nil, errors.BadRequest("Refresh token is required", nil)
	}
	tokens, err := uc.auth.RefreshIDToken(ctx, refreshToken)
	if err != nil {
		var rejected *firebase.SignInError
		if stderrors.As(err, &rejected) {
			return nil, errors.Unauthorized("Invalid refresh token", err)
		}
		return nil, errors.Internal("Failed to refresh token", err)
	}
	return &AuthResult{Token: tokens.IDToken, RefreshToken: tokens.RefreshToken, ExpiresIn: tokens.ExpiresIn}, nil
}

// VerifyToken resolves an ID token to its uid.
func (uc *AuthUseCase) VerifyToken(ctx context.Context, token string) (string, error) {
	uid, err := uc.auth.VerifyToken(ctx, token)
	if err != nil {
		return "", errors.Unauthorized("Invalid token", err)
	}
	return uid, nil
}

func authResult(user *entity.UserProfile, tokens *firebase.Tokens) *AuthResult {
	return &AuthResult{
		User:         user,
		Token:        tokens.IDToken,
		RefreshToken: tokens.RefreshToken,
		ExpiresIn:    tokens.ExpiresIn,
	}
}

func retrySeconds(d time.Duration) int {
	s := int(d / time.Second)
	if d%time.Second != 0 {
		s++
	}
	return s
}
