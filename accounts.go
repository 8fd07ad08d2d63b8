package erpclient

import (
	"context"
	"fmt"
	"net/http"
)

const accountsPath = "/api/v1/core/accounts/"

// ListAccounts returns one page of accounts matching the query. Filters
// are passed through to the server unmodified after normalization.
func (c *Client) ListAccounts(ctx context.Context, query AccountsListQuery) (AccountsListResponse, error) {
	var ret AccountsListResponse
	if err := c.Do(ctx, http.MethodGet, accountsPath, RequestOptions{Query: query.Values()}, &ret); err != nil {
		return AccountsListResponse{}, err
	}
	return ret, nil
}

func (c *Client) GetAccount(ctx context.Context, id int) (Account, error) {
	var ret Account
	if err := c.Do(ctx, http.MethodGet, fmt.Sprintf("%s%d/", accountsPath, id), RequestOptions{}, &ret); err != nil {
		return Account{}, err
	}
	return ret, nil
}

func (c *Client) CreateAccount(ctx context.Context, payload AccountPayload) (Account, error) {
	var ret Account
	if err := c.Do(ctx, http.MethodPost, accountsPath, RequestOptions{Body: payload}, &ret); err != nil {
		return Account{}, err
	}
	return ret, nil
}

// UpdateAccount is a full replace of the writable fields.
func (c *Client) UpdateAccount(ctx context.Context, id int, payload AccountPayload) (Account, error) {
	var ret Account
	if err := c.Do(ctx, http.MethodPut, fmt.Sprintf("%s%d/", accountsPath, id), RequestOptions{Body: payload}, &ret); err != nil {
		return Account{}, err
	}
	return ret, nil
}

func (c *Client) DeleteAccount(ctx context.Context, id int) error {
	return c.Do(ctx, http.MethodDelete, fmt.Sprintf("%s%d/", accountsPath, id), RequestOptions{}, nil)
}

// AccountShippingAddresses lists the shipping addresses scoped to an
// account, tolerating both response shapes of the endpoint.
func (c *Client) AccountShippingAddresses(ctx context.Context, id int) ([]ShippingAddress, error) {
	var ret ShippingAddressList
	path := fmt.Sprintf("%s%d/shipping_addresses/", accountsPath, id)
	if err := c.Do(ctx, http.MethodGet, path, RequestOptions{}, &ret); err != nil {
		return nil, err
	}
	return []ShippingAddress(ret), nil
}
