package firebase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"firebase.google.com/go/v4/auth"
)

const (
	identityToolkitURL = "https://identitytoolkit.googleapis.com/v1"
	secureTokenURL     = "https://securetoken.googleapis.com/v1"
)

// Tokens is the credential pair returned by a password sign-in or refresh.
type Tokens struct {
	IDToken      string `json:"id_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    string `json:"expires_in"`
	UID          string `json:"uid"`
}

// SignInError is returned when the auth backend rejects credentials.
type SignInError struct {
	Status  int
	Message string
}

func (e *SignInError) Error() string {
	return fmt.Sprintf("sign-in rejected (%d): %s", e.Status, e.Message)
}

type FirebaseAuthClient struct {
	client     *auth.Client
	apiKey     string
	httpClient *http.Client

	identityURL string
	tokenURL    string
}

type Option func(*FirebaseAuthClient)

// WithEndpoints points the REST calls somewhere else, e.g. the auth emulator.
func WithEndpoints(identity, token string) Option {
	return func(f *FirebaseAuthClient) {
		f.identityURL = identity
		f.tokenURL = token
	}
}

func WithHTTPClient(c *http.Client) Option {
	return func(f *FirebaseAuthClient) { f.httpClient = c }
}

func NewFirebaseAuthClient(client *auth.Client, apiKey string, opts ...Option) *FirebaseAuthClient {
	f := &FirebaseAuthClient{
		client:      client,
		apiKey:      apiKey,
		httpClient:  &http.Client{Timeout: 15 * time.Second},
		identityURL: identityToolkitURL,
		tokenURL:    secureTokenURL,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *FirebaseAuthClient) CreateUser(ctx context.Context, email, password, displayName string) (string, error) {
	params := (&auth.UserToCreate{}).
		Email(email).
		Password(password).
		DisplayName(displayName)

	user, err := f.client.CreateUser(ctx, params)
	if err != nil {
		return "", err
	}

	return user.UID, nil
}

func (f *FirebaseAuthClient) VerifyToken(ctx context.Context, token string) (string, error) {
	result, err := f.client.VerifyIDToken(ctx, token)
	if err != nil {
		return "", err
	}

	return result.UID, nil
}

func (f *FirebaseAuthClient) RevokeTokens(ctx context.Context, uid string) error {
	return f.client.RevokeRefreshTokens(ctx, uid)
}

func (f *FirebaseAuthClient) SignInWithPassword(ctx context.Context, email, password string) (*Tokens, error) {
	body, err := json.Marshal(map[string]interface{}{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	})
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/accounts:signInWithPassword?key=%s", f.identityURL, url.QueryEscape(f.apiKey))
	var out struct {
		IDToken      string `json:"idToken"`
		RefreshToken string `json:"refreshToken"`
		ExpiresIn    string `json:"expiresIn"`
		LocalID      string `json:"localId"`
	}
	if err := f.post(ctx, endpoint, "application/json", bytes.NewReader(body), &out); err != nil {
		return nil, err
	}

	return &Tokens{
		IDToken:      out.IDToken,
		RefreshToken: out.RefreshToken,
		ExpiresIn:    out.ExpiresIn,
		UID:          out.LocalID,
	}, nil
}

func (f *FirebaseAuthClient) RefreshIDToken(ctx context.Context, refreshToken string) (*Tokens, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)

	endpoint := fmt.Sprintf("%s/token?key=%s", f.tokenURL, url.QueryEscape(f.apiKey))
	var out struct {
		IDToken      string `json:"id_token"`
		RefreshToken string `json:"refresh_token"`
		ExpiresIn    string `json:"expires_in"`
		UserID       string `json:"user_id"`
	}
	if err := f.post(ctx, endpoint, "application/x-www-form-urlencoded", strings.NewReader(form.Encode()), &out); err != nil {
		return nil, err
	}

	return &Tokens{
		IDToken:      out.IDToken,
		RefreshToken: out.RefreshToken,
		ExpiresIn:    out.ExpiresIn,
		UID:          out.UserID,
	}, nil
}

func (f *FirebaseAuthClient) post(ctx context.Context, endpoint, contentType string, body io.Reader, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("auth backend: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		return &SignInError{Status: resp.StatusCode, Message: apiErr.Error.Message}
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
