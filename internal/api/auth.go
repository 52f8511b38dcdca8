package api

import (
	"context"

	"github.com/securechat/msgr/internal/rest"
)

// AuthClient wraps the /auth endpoints.
type AuthClient struct {
	gw *rest.Gateway
}

// NewAuthClient creates an auth client on the given gateway.
func NewAuthClient(gw *rest.Gateway) *AuthClient {
	return &AuthClient{gw: gw}
}

// Login exchanges credentials for a token. The returned AuthResult may carry
// an empty token when the backend responded without a recognized token field;
// the session controller turns that into an auth error.
func (c *AuthClient) Login(ctx context.Context, email, password string) (AuthResult, error) {
	data, err := c.gw.Post(ctx, "/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, rest.Options{})
	if err != nil {
		return AuthResult{}, err
	}
	return normalizeAuth(data), nil
}

// Register creates an account and returns the same shape as Login.
func (c *AuthClient) Register(ctx context.Context, email, password, displayName string) (AuthResult, error) {
	data, err := c.gw.Post(ctx, "/auth/register", map[string]string{
		"email":       email,
		"password":    password,
		"displayName": displayName,
	}, rest.Options{})
	if err != nil {
		return AuthResult{}, err
	}
	return normalizeAuth(data), nil
}

// Me fetches the current user's profile. A nil user with nil error means the
// backend answered with an empty or unrecognized body.
func (c *AuthClient) Me(ctx context.Context, token string) (*User, error) {
	data, err := c.gw.Get(ctx, "/auth/me", rest.Options{Token: token})
	if err != nil {
		return nil, err
	}
	return normalizeUser(data), nil
}
