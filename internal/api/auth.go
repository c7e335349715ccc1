package api

import (
	"context"
	"errors"
	"net/http"

	"golang.org/x/oauth2"
)

const (
	pathLogin          = "/auth/login"
	pathMe             = "/auth/me"
	pathSignup         = "/auth/signup"
	pathForgotPassword = "/auth/forgot-password"
	pathResetPassword  = "/auth/reset-password"
)

// Login exchanges credentials for an access token.
func (c *Client) Login(ctx context.Context, email, password string) (*oauth2.Token, error) {
	var resp tokenResponse
	if err := c.do(ctx, http.MethodPost, pathLogin, loginRequest{Email: email, Password: password}, &resp); err != nil {
		return nil, err
	}
	if resp.AccessToken == "" {
		return nil, errors.New("login response has no access token")
	}
	tokenType := resp.TokenType
	if tokenType == "" {
		tokenType = "Bearer"
	}
	return &oauth2.Token{AccessToken: resp.AccessToken, TokenType: tokenType}, nil
}

// Me returns the profile of the authenticated user.
func (c *Client) Me(ctx context.Context) (*User, error) {
	var user User
	if err := c.do(ctx, http.MethodGet, pathMe, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Signup creates an account. It does not log in.
func (c *Client) Signup(ctx context.Context, email, password, fullName string) (*User, error) {
	var user User
	req := signupRequest{Email: email, Password: password, FullName: fullName}
	if err := c.do(ctx, http.MethodPost, pathSignup, req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// ForgotPassword requests a reset email. The API answers the same way
// whether or not the account exists.
func (c *Client) ForgotPassword(ctx context.Context, email string) error {
	return c.do(ctx, http.MethodPost, pathForgotPassword, forgotPasswordRequest{Email: email}, nil)
}

// ResetPassword sets a new password using a reset token.
func (c *Client) ResetPassword(ctx context.Context, token, newPassword string) error {
	return c.do(ctx, http.MethodPost, pathResetPassword, resetPasswordRequest{Token: token, NewPassword: newPassword}, nil)
}
