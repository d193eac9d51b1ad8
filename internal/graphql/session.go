package graphql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// expirySkew is subtracted from a token's exp claim so requests in flight do
// not race the backend's own clock.
const expirySkew = 30 * time.Second

// StaticToken is a TokenSource for a pre-issued bearer token.
type StaticToken string

// Token returns the token unchanged.
func (t StaticToken) Token(context.Context) (string, error) {
	return string(t), nil
}

const tokenCreateMutation = `mutation TokenCreate($email: String!, $password: String!) {
  tokenCreate(email: $email, password: $password) {
    token
    errors { field message code }
  }
}`

// Session exchanges an email and password for a bearer token with the
// tokenCreate mutation and caches it until the token's exp claim passes.
type Session struct {
	client   Client
	email    string
	password string
	now      func() time.Time

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

var _ TokenSource = (*Session)(nil)

// NewSession returns a Session that logs in through client. client must not
// itself depend on the session for credentials.
func NewSession(client Client, email, password string) *Session {
	return &Session{
		client:   client,
		email:    email,
		password: password,
		now:      time.Now,
	}
}

// Authenticate performs one tokenCreate mutation and caches the result.
// A response without a token, or with mutation errors, is reported as
// ErrAuthentication. There is no retry.
func (s *Session) Authenticate(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authenticateLocked(ctx)
}

// Token returns the cached token, logging in first when there is none or the
// cached one has expired.
func (s *Session) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token != "" && (s.expiresAt.IsZero() || s.now().Before(s.expiresAt.Add(-expirySkew))) {
		return s.token, nil
	}
	return s.authenticateLocked(ctx)
}

func (s *Session) authenticateLocked(ctx context.Context) (string, error) {
	data, err := s.client.Execute(ctx, tokenCreateMutation, map[string]any{
		"email":    s.email,
		"password": s.password,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrAuthentication, err)
	}

	var resp struct {
		TokenCreate *struct {
			Token  string `json:"token"`
			Errors []struct {
				Field   string `json:"field"`
				Message string `json:"message"`
				Code    string `json:"code"`
			} `json:"errors"`
		} `json:"tokenCreate"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", fmt.Errorf("%w: decode tokenCreate: %w", ErrAuthentication, err)
	}
	if resp.TokenCreate == nil {
		return "", fmt.Errorf("%w: empty tokenCreate payload", ErrAuthentication)
	}
	if len(resp.TokenCreate.Errors) > 0 {
		e := resp.TokenCreate.Errors[0]
		return "", fmt.Errorf("%w: %s (%s)", ErrAuthentication, e.Message, e.Code)
	}
	if resp.TokenCreate.Token == "" {
		return "", fmt.Errorf("%w: response carried no token", ErrAuthentication)
	}

	s.token = resp.TokenCreate.Token
	s.expiresAt = tokenExpiry(s.token)
	return s.token, nil
}

// tokenExpiry reads the exp claim without verifying the signature. Tokens
// that are not JWTs, or carry no exp, yield the zero time and never expire
// locally.
func tokenExpiry(token string) time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}

// IsAuthError reports whether err stems from a failed login or an HTTP 401.
func IsAuthError(err error) bool {
	return errors.Is(err, ErrAuthentication) || errors.Is(err, ErrUnauthorized)
}
