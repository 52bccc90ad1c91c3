package api

import (
	"context"
	"errors"
	"net/http"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	var out struct {
		Token string `json:"token"`
	}
	if err := c.do(ctx, http.MethodPost, "/auth/login", loginRequest{username, password}, &out); err != nil {
		return "", err
	}
	if out.Token == "" {
		return "", errors.New("login: response carried no token")
	}
	return out.Token, nil
}

// Register creates an account. The response body is ignored.
func (c *Client) Register(ctx context.Context, username, email, password string) error {
	return c.do(ctx, http.MethodPost, "/auth/register", registerRequest{username, email, password}, nil)
}
