package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lapakda/internal/domain/entity"
	"lapakda/pkg/errors"
)

func TestIsStrongPassword(t *testing.T) {
	cases := map[string]bool{
		"Rahasia1!":  true,
		"rahasia1!":  false,
		"RAHASIA1!":  false,
		"Rahasia!!":  false,
		"Rahasia12":  false,
		"Ra1!":       false,
		"Lapak{da}9": true,
	}
	for pw, want := range cases {
		assert.Equal(t, want, IsStrongPassword(pw), pw)
	}
}

func TestSignUpCreatesProfileAndSignsIn(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()

	res, err := e.authUC.SignUp(ctx, SignUpInput{
		Email:       "  siti@example.com ",
		Password:    "Rahasia1!",
		DisplayName: "<i>Siti</i>",
	})
	require.NoError(t, err)
	assert.Equal(t, "uid-1", res.User.UID)
	assert.Equal(t, "Siti", res.User.DisplayName)
	assert.Equal(t, "siti@example.com", res.User.Email)
	assert.Equal(t, entity.RoleUser, res.User.Role)
	assert.Equal(t, "id-uid-1", res.Token)
	assert.Equal(t, "rt-uid-1", res.RefreshToken)

	stored, err := e.store.Users().GetByID(ctx, "uid-1")
	require.NoError(t, err)
	assert.Equal(t, "Siti", stored.DisplayName)

	_, err = e.authUC.SignUp(ctx, SignUpInput{Email: "x@example.com", Password: "weak", DisplayName: "X"})
	assert.True(t, errors.Is(err, errors.CodeBadRequest))
}

func TestSignInAttemptLimit(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()
	_, err := e.authUC.SignUp(ctx, SignUpInput{Email: "budi@example.com", Password: "Rahasia1!", DisplayName: "Budi"})
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		_, err := e.authUC.SignIn(ctx, "budi@example.com", "salah")
		assert.True(t, errors.Is(err, errors.CodeUnauthorized))
	}

	before := e.auth.signIns
	_, err = e.authUC.SignIn(ctx, "budi@example.com", "Rahasia1!")
	require.True(t, errors.Is(err, errors.CodeTooManyRequests))
	ae, _ := errors.As(err)
	assert.Equal(t, tooManyAttemptsMessage, ae.Message)
	assert.Equal(t, 60, ae.Details["retryAfter"])
	assert.Equal(t, before, e.auth.signIns, "throttled attempts never reach the provider")

	// other accounts are unaffected
	_, err = e.authUC.SignIn(ctx, "lain@example.com", "x")
	assert.True(t, errors.Is(err, errors.CodeUnauthorized))

	e.clock.Advance(60 * time.Second)
	res, err := e.authUC.SignIn(ctx, "budi@example.com", "Rahasia1!")
	require.NoError(t, err)
	assert.Equal(t, "Budi", res.User.DisplayName)
}

func TestSignInSuccessResetsAttempts(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()
	_, err := e.authUC.SignUp(ctx, SignUpInput{Email: "budi@example.com", Password: "Rahasia1!", DisplayName: "Budi"})
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		_, _ = e.authUC.SignIn(ctx, "budi@example.com", "salah")
	}
	_, err = e.authUC.SignIn(ctx, "budi@example.com", "Rahasia1!")
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		_, err := e.authUC.SignIn(ctx, "budi@example.com", "salah")
		assert.True(t, errors.Is(err, errors.CodeUnauthorized), "attempt %d", i)
	}
}

func TestRefreshAndSignOut(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()

	res, err := e.authUC.RefreshToken(ctx, "rt-uid-1")
	require.NoError(t, err)
	assert.Equal(t, "id-2", res.Token)

	_, err = e.authUC.RefreshToken(ctx, "bogus")
	assert.True(t, errors.Is(err, errors.CodeUnauthorized))
	_, err = e.authUC.RefreshToken(ctx, "")
	assert.True(t, errors.Is(err, errors.CodeBadRequest))

	require.NoError(t, e.authUC.SignOut(ctx, "uid-1"))
	assert.Equal(t, []string{"uid-1"}, e.auth.revoked)
}

func TestSignInAttemptLimitIgnoresEmailCase(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()

	variants := []string{"Budi@Example.com", "budi@example.com", "BUDI@EXAMPLE.COM", "bUdI@example.COM", "budi@EXAMPLE.com"}
	for _, email := range variants {
		_, err := e.authUC.SignIn(ctx, email, "salah")
		assert.True(t, errors.Is(err, errors.CodeUnauthorized), email)
	}
	require.Equal(t, 5, e.auth.signIns)

	for _, email := range []string{"BuDi@example.com", "budi@example.com", "BUDI@example.com"} {
		_, err := e.authUC.SignIn(ctx, email, "salah")
		assert.True(t, errors.Is(err, errors.CodeTooManyRequests), email)
	}
	assert.Equal(t, 5, e.auth.signIns, "case variants share one window")
}
