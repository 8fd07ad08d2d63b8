package erpclient

import (
	"context"
	"net/http"
)

const (
	loginPath          = "/api/v1/auth/login/"
	registerPath       = "/api/v1/auth/register/"
	currentUserPath    = "/api/v1/auth/current/"
	profilePath        = "/api/v1/auth/profile/"
	changePasswordPath = "/api/v1/auth/change-password/"
	logoutPath         = "/api/v1/auth/logout/"
	refreshPath        = "/api/v1/auth/refresh/"
	usersPath          = "/api/v1/auth/users/"
)

// Login authenticates with email and password. When the cookie jar holds
// no CSRF cookie yet, a pre-flight call obtains one first.
func (c *Client) Login(ctx context.Context, body LoginRequest) (LoginResponse, error) {
	var ret LoginResponse
	if err := c.Do(ctx, http.MethodPost, loginPath, RequestOptions{Body: body, NoAuth: true}, &ret); err != nil {
		return LoginResponse{}, err
	}
	return ret, nil
}

func (c *Client) Register(ctx context.Context, body RegisterRequest) (RegisterResponse, error) {
	var ret RegisterResponse
	if err := c.Do(ctx, http.MethodPost, registerPath, RequestOptions{Body: body, NoAuth: true}, &ret); err != nil {
		return RegisterResponse{}, err
	}
	return ret, nil
}

// Current returns the profile of the authenticated user. Also serves as
// the session check.
func (c *Client) Current(ctx context.Context) (Profile, error) {
	var ret Profile
	if err := c.Do(ctx, http.MethodGet, currentUserPath, RequestOptions{}, &ret); err != nil {
		return Profile{}, err
	}
	return ret, nil
}

func (c *Client) GetProfile(ctx context.Context) (Profile, error) {
	var ret Profile
	if err := c.Do(ctx, http.MethodGet, profilePath, RequestOptions{}, &ret); err != nil {
		return Profile{}, err
	}
	return ret, nil
}

// PutProfile replaces the whole profile.
func (c *Client) PutProfile(ctx context.Context, body Profile) (Profile, error) {
	var ret Profile
	if err := c.Do(ctx, http.MethodPut, profilePath, RequestOptions{Body: body}, &ret); err != nil {
		return Profile{}, err
	}
	return ret, nil
}

// PatchProfile sends only the populated fields.
func (c *Client) PatchProfile(ctx context.Context, body Profile) (Profile, error) {
	var ret Profile
	if err := c.Do(ctx, http.MethodPatch, profilePath, RequestOptions{Body: body}, &ret); err != nil {
		return Profile{}, err
	}
	return ret, nil
}

func (c *Client) ChangePassword(ctx context.Context, body ChangePasswordRequest) error {
	return c.Do(ctx, http.MethodPost, changePasswordPath, RequestOptions{Body: body}, nil)
}

func (c *Client) Logout(ctx context.Context) error {
	return c.Do(ctx, http.MethodPost, logoutPath, RequestOptions{}, nil)
}

// Refresh exchanges a refresh token explicitly. Most callers never need
// this; the client refreshes on its own after a 401.
func (c *Client) Refresh(ctx context.Context, body RefreshRequest) (RefreshResponse, error) {
	var ret RefreshResponse
	if err := c.Do(ctx, http.MethodPost, refreshPath, RequestOptions{Body: body, NoAuth: true}, &ret); err != nil {
		return RefreshResponse{}, err
	}
	return ret, nil
}

// ListUsers returns one page of the admin users list.
func (c *Client) ListUsers(ctx context.Context, query UsersListQuery) (UsersListResponse, error) {
	var ret UsersListResponse
	if err := c.Do(ctx, http.MethodGet, usersPath, RequestOptions{Query: query.Values()}, &ret); err != nil {
		return UsersListResponse{}, err
	}
	return ret, nil
}
