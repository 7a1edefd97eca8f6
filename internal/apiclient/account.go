package apiclient

import (
	"context"
	"net/http"

	"github.com/utafrali/storefront/internal/domain"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type passwordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// Login calls POST /auth/login.
func (c *Client) Login(ctx context.Context, email, password string) (*domain.AuthResult, error) {
	var out domain.AuthResult
	err := c.do(ctx, call{
		op: "login", method: http.MethodPost, path: "/auth/login",
		body: loginRequest{Email: email, Password: password}, out: &out,
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Signup calls POST /auth/signup.
func (c *Client) Signup(ctx context.Context, name, email, password string) (*domain.AuthResult, error) {
	var out domain.AuthResult
	err := c.do(ctx, call{
		op: "signup", method: http.MethodPost, path: "/auth/signup",
		body: signupRequest{Name: name, Email: email, Password: password}, out: &out,
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// GetProfile calls GET /profile.
func (c *Client) GetProfile(ctx context.Context) (*domain.Profile, error) {
	var out domain.Profile
	if err := c.do(ctx, call{op: "get_profile", method: http.MethodGet, path: "/profile", auth: true, out: &out}); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateProfile calls PUT /profile and returns the saved profile.
func (c *Client) UpdateProfile(ctx context.Context, p domain.Profile) (*domain.Profile, error) {
	var out domain.Profile
	err := c.do(ctx, call{op: "update_profile", method: http.MethodPut, path: "/profile", auth: true, body: p, out: &out})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ChangePassword calls PUT /profile/password.
func (c *Client) ChangePassword(ctx context.Context, current, next string) error {
	return c.do(ctx, call{
		op: "change_password", method: http.MethodPut, path: "/profile/password", auth: true,
		body: passwordRequest{CurrentPassword: current, NewPassword: next},
	})
}
