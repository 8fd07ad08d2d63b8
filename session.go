package erpclient

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"
)

// Cache key roots. Detail and sub-list keys extend the accounts root so
// one prefix invalidation covers lists, details and shipping addresses.
const (
	keyAuthCurrent = "auth/current"
	keyAuthProfile = "auth/profile"
	keyAuthUsers   = "auth/users"
	keyAccounts    = "core/accounts"
)

func accountsListKey(query AccountsListQuery) string {
	return keyAccounts + "?" + query.Values().encode()
}

func accountDetailKey(id int) string {
	return fmt.Sprintf("%s/%d", keyAccounts, id)
}

func shippingAddressesKey(id int) string {
	return fmt.Sprintf("%s/%d/shipping_addresses", keyAccounts, id)
}

func usersListKey(query UsersListQuery) string {
	return keyAuthUsers + "?" + query.Values().encode()
}

// Session ties a Client to a QueryCache and keeps the two consistent:
// reads are cached and deduplicated, mutations invalidate the entries
// they made stale, login and logout manage the stored tokens.
type Session struct {
	client *Client
	cache  QueryCache
	group  singleflight.Group
}

// NewSession wraps client with cache. A nil cache gets an in-process one
// with a one minute staleness window.
func NewSession(client *Client, cache QueryCache) *Session {
	if cache == nil {
		cache = NewMemoryCache(time.Minute)
	}
	return &Session{client: client, cache: cache}
}

func (s *Session) Client() *Client {
	return s.client
}

func (s *Session) Cache() QueryCache {
	return s.cache
}

// cachedFetch serves key from the cache, coalescing concurrent identical
// fetches into one call. Errors are never cached.
func cachedFetch[T any](s *Session, key string, fetch func() (T, error)) (T, error) {
	if value, ok := s.cache.Get(key); ok {
		if typed, ok := value.(T); ok {
			return typed, nil
		}
	}
	value, err, _ := s.group.Do(key, func() (any, error) {
		ret, err := fetch()
		if err != nil {
			return nil, err
		}
		s.cache.Set(key, ret)
		return ret, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return value.(T), nil
}

func (s *Session) captureTokens(res LoginResponse) {
	pair, ok := res.Pair()
	if !ok {
		return
	}
	s.client.Tokens().Set(TokenUpdate{
		Access:  String(pair.Access),
		Refresh: String(pair.Refresh),
	})
}

// Login authenticates, stores whatever tokens came back, and marks the
// current-user entry stale.
func (s *Session) Login(ctx context.Context, body LoginRequest) (LoginResponse, error) {
	res, err := s.client.Login(ctx, body)
	if err != nil {
		return LoginResponse{}, err
	}
	s.captureTokens(res)
	s.cache.Remove(keyAuthCurrent)
	return res, nil
}

func (s *Session) Register(ctx context.Context, body RegisterRequest) (RegisterResponse, error) {
	res, err := s.client.Register(ctx, body)
	if err != nil {
		return RegisterResponse{}, err
	}
	s.captureTokens(res)
	s.cache.Remove(keyAuthCurrent)
	return res, nil
}

// Logout ends the server session, then drops the tokens and the whole
// cache.
func (s *Session) Logout(ctx context.Context) error {
	if err := s.client.Logout(ctx); err != nil {
		return err
	}
	s.client.Tokens().Clear()
	s.cache.Clear()
	return nil
}

func (s *Session) CurrentUser(ctx context.Context) (Profile, error) {
	return cachedFetch(s, keyAuthCurrent, func() (Profile, error) {
		return s.client.Current(ctx)
	})
}

func (s *Session) Profile(ctx context.Context) (Profile, error) {
	return cachedFetch(s, keyAuthProfile, func() (Profile, error) {
		return s.client.GetProfile(ctx)
	})
}

// UpdateProfile patches the profile and marks both profile views stale.
func (s *Session) UpdateProfile(ctx context.Context, body Profile) (Profile, error) {
	res, err := s.client.PatchProfile(ctx, body)
	if err != nil {
		return Profile{}, err
	}
	s.cache.Remove(keyAuthProfile)
	s.cache.Remove(keyAuthCurrent)
	return res, nil
}

func (s *Session) ChangePassword(ctx context.Context, body ChangePasswordRequest) error {
	return s.client.ChangePassword(ctx, body)
}

func (s *Session) Users(ctx context.Context, query UsersListQuery) (UsersListResponse, error) {
	return cachedFetch(s, usersListKey(query), func() (UsersListResponse, error) {
		return s.client.ListUsers(ctx, query)
	})
}

func (s *Session) Accounts(ctx context.Context, query AccountsListQuery) (AccountsListResponse, error) {
	return cachedFetch(s, accountsListKey(query), func() (AccountsListResponse, error) {
		return s.client.ListAccounts(ctx, query)
	})
}

func (s *Session) Account(ctx context.Context, id int) (Account, error) {
	return cachedFetch(s, accountDetailKey(id), func() (Account, error) {
		return s.client.GetAccount(ctx, id)
	})
}

func (s *Session) ShippingAddresses(ctx context.Context, id int) ([]ShippingAddress, error) {
	return cachedFetch(s, shippingAddressesKey(id), func() ([]ShippingAddress, error) {
		return s.client.AccountShippingAddresses(ctx, id)
	})
}

func (s *Session) CreateAccount(ctx context.Context, payload AccountPayload) (Account, error) {
	res, err := s.client.CreateAccount(ctx, payload)
	if err != nil {
		return Account{}, err
	}
	s.cache.Invalidate(keyAccounts)
	return res, nil
}

func (s *Session) UpdateAccount(ctx context.Context, id int, payload AccountPayload) (Account, error) {
	res, err := s.client.UpdateAccount(ctx, id, payload)
	if err != nil {
		return Account{}, err
	}
	s.cache.Invalidate(keyAccounts)
	return res, nil
}

func (s *Session) DeleteAccount(ctx context.Context, id int) error {
	if err := s.client.DeleteAccount(ctx, id); err != nil {
		return err
	}
	s.cache.Invalidate(keyAccounts)
	return nil
}
