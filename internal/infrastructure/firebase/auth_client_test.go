package firebase

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignInWithPassword(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/accounts:signInWithPassword", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if body["password"] != "Secret#123" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":{"message":"INVALID_PASSWORD"}}`))
			return
		}
		_, _ = w.Write([]byte(`{"idToken":"id-1","refreshToken":"rt-1","expiresIn":"3600","localId":"uid-1"}`))
	}))
	defer srv.Close()

	c := NewFirebaseAuthClient(nil, "test-key", WithEndpoints(srv.URL, srv.URL))

	tokens, err := c.SignInWithPassword(context.Background(), "a@b.c", "Secret#123")
	require.NoError(t, err)
	assert.Equal(t, "id-1", tokens.IDToken)
	assert.Equal(t, "uid-1", tokens.UID)

	_, err = c.SignInWithPassword(context.Background(), "a@b.c", "nope")
	var signInErr *SignInError
	require.True(t, errors.As(err, &signInErr))
	assert.Equal(t, http.StatusBadRequest, signInErr.Status)
	assert.Equal(t, "INVALID_PASSWORD", signInErr.Message)
}

func TestRefreshIDToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "/token", r.URL.Path)
		assert.Equal(t, "refresh_token", r.PostForm.Get("grant_type"))
		assert.Equal(t, "rt-1", r.PostForm.Get("refresh_token"))
		_, _ = w.Write([]byte(`{"id_token":"id-2","refresh_token":"rt-2","expires_in":"3600","user_id":"uid-1"}`))
	}))
	defer srv.Close()

	c := NewFirebaseAuthClient(nil, "test-key", WithEndpoints(srv.URL, srv.URL))

	tokens, err := c.RefreshIDToken(context.Background(), "rt-1")
	require.NoError(t, err)
	assert.Equal(t, "id-2", tokens.IDToken)
	assert.Equal(t, "rt-2", tokens.RefreshToken)
}
