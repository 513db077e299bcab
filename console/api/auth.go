package api

import (
	"context"
	"net/http"

	"github.com/amidaware/schedctl/shared"
)

func (c *Client) Login(ctx context.Context, username, password string) Result[shared.LoginResponse] {
	var resp shared.LoginResponse
	req := shared.LoginRequest{Username: username, Password: password}
	if err := c.do(ctx, call{op: "login", method: http.MethodPost, path: "/auth/login", body: req, out: &resp}); err != nil {
		return Err[shared.LoginResponse](err)
	}
	if resp.Token == "" {
		return Err[shared.LoginResponse](&Error{Status: http.StatusOK, Message: "login response did not include a token"})
	}
	return Ok(resp)
}

func (c *Client) Register(ctx context.Context, username, password string) Result[shared.User] {
	var user shared.User
	req := shared.LoginRequest{Username: username, Password: password}
	if err := c.do(ctx, call{op: "register", method: http.MethodPost, path: "/auth/register", body: req, out: &user}); err != nil {
		return Err[shared.User](err)
	}
	return Ok(user)
}

func (c *Client) ChangePassword(ctx context.Context, oldPassword, newPassword string) Result[Empty] {
	req := shared.ChangePasswordRequest{OldPassword: oldPassword, NewPassword: newPassword}
	if err := c.do(ctx, call{op: "change_password", method: http.MethodPost, path: "/auth/change-password", body: req}); err != nil {
		return Err[Empty](err)
	}
	return Ok(Empty{})
}
