package erpclient

import "encoding/json"

// PaginatedResponse is the server's page envelope for list endpoints.
// Results ordering is server-determined via the "ordering" parameter.
type PaginatedResponse[T any] struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

// Account is the managed customer account resource. ID and CompanyName are
// always present on a materialized account; nullable columns map to
// pointer fields. The *_name fields and timestamps are server-computed.
type Account struct {
	ID                 int               `json:"id"`
	AccountManagerName *string           `json:"account_manager_name"`
	PaymentMethodName  *string           `json:"payment_method_name"`
	CarrierName        *string           `json:"carrier_name"`
	VatRateName        *string           `json:"vat_rate_name"`
	ShippingAddresses  []ShippingAddress `json:"shipping_addresses,omitempty"`
	CreatedAt          string            `json:"created_at"`
	UpdatedAt          string            `json:"updated_at"`
	Code               string            `json:"code"`
	CompanyName        string            `json:"company_name"`
	VatNumber          *string           `json:"vat_number"`
	TaxCode            *string           `json:"tax_code"`
	Address            *string           `json:"address"`
	City               *string           `json:"city"`
	Province           *string           `json:"province"`
	PostalCode         *string           `json:"postal_code"`
	Country            *string           `json:"country"`
	Email              *string           `json:"email"`
	Phone              *string           `json:"phone"`
	Website            *string           `json:"website"`
	Abi                *string           `json:"abi"`
	Cab                *string           `json:"cab"`
	Iban               *string           `json:"iban"`
	RecipientCode      *string           `json:"recipient_code"`
	CertifiedEmail     *string           `json:"certified_email"`
	Notes              *string           `json:"notes"`
	IsActive           bool              `json:"is_active"`
	LegacyID           *int              `json:"legacy_id"`
	CrmID              *string           `json:"crm_id"`
	CreatedBy          *int              `json:"created_by"`
	UpdatedBy          *int              `json:"updated_by"`
	AccountManager     *int              `json:"account_manager"`
	PaymentMethod      *int              `json:"payment_method"`
	Carrier            *string           `json:"carrier"`
	VatRate            *int              `json:"vat_rate"`
	ShippingAddress    *int              `json:"shipping_address"`
}

// AccountPayload is the writable subset sent on create and update. Absent
// optional values serialize as explicit nulls.
type AccountPayload struct {
	CompanyName     string  `json:"company_name"`
	VatNumber       *string `json:"vat_number"`
	TaxCode         *string `json:"tax_code"`
	Address         *string `json:"address"`
	City            *string `json:"city"`
	Province        *string `json:"province"`
	PostalCode      *string `json:"postal_code"`
	Country         *string `json:"country"`
	Email           *string `json:"email"`
	Phone           *string `json:"phone"`
	Website         *string `json:"website"`
	Abi             *string `json:"abi"`
	Cab             *string `json:"cab"`
	Iban            *string `json:"iban"`
	RecipientCode   *string `json:"recipient_code"`
	CertifiedEmail  *string `json:"certified_email"`
	Notes           *string `json:"notes"`
	IsActive        bool    `json:"is_active"`
	LegacyID        *int    `json:"legacy_id"`
	CrmID           *string `json:"crm_id"`
	AccountManager  *int    `json:"account_manager"`
	PaymentMethod   *int    `json:"payment_method"`
	Carrier         *string `json:"carrier"`
	VatRate         *int    `json:"vat_rate"`
	ShippingAddress *int    `json:"shipping_address"`
}

type ShippingAddress struct {
	ID           int     `json:"id"`
	AccountName  string  `json:"account_name"`
	CreatedAt    string  `json:"created_at"`
	UpdatedAt    string  `json:"updated_at"`
	Name         string  `json:"name"`
	Address      string  `json:"address"`
	City         string  `json:"city"`
	Province     string  `json:"province"`
	PostalCode   string  `json:"postal_code"`
	Country      string  `json:"country"`
	Phone        string  `json:"phone"`
	Email        string  `json:"email"`
	Notes        *string `json:"notes"`
	ExternalCode *string `json:"external_code"`
	IsActive     bool    `json:"is_active"`
	LegacyID     *int    `json:"legacy_id"`
	CreatedBy    *int    `json:"created_by"`
	UpdatedBy    *int    `json:"updated_by"`
	Account      int     `json:"account"`
}

// ShippingAddressList absorbs both shapes the shipping address endpoint is
// known to return: a bare array, or an object wrapping one.
type ShippingAddressList []ShippingAddress

func (l *ShippingAddressList) UnmarshalJSON(data []byte) error {
	var plain []ShippingAddress
	if err := json.Unmarshal(data, &plain); err == nil {
		*l = plain
		return nil
	}
	var wrapped struct {
		ShippingAddresses []ShippingAddress `json:"shipping_addresses"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return err
	}
	*l = wrapped.ShippingAddresses
	return nil
}

// AccountsListQuery filters, sorts and paginates the accounts list.
type AccountsListQuery struct {
	Search         string
	Country        string
	AccountManager *int
	PaymentMethod  *int
	IsActive       *bool
	Ordering       string
	Page           int
}

// Values maps the query onto wire parameter names. Unset fields are left
// out entirely; false and zero survive normalization when set explicitly.
func (q AccountsListQuery) Values() Query {
	values := Query{}
	if q.Search != "" {
		values["search"] = q.Search
	}
	if q.Country != "" {
		values["country"] = q.Country
	}
	if q.AccountManager != nil {
		values["account_manager"] = *q.AccountManager
	}
	if q.PaymentMethod != nil {
		values["payment_method"] = *q.PaymentMethod
	}
	if q.IsActive != nil {
		values["is_active"] = *q.IsActive
	}
	if q.Ordering != "" {
		values["ordering"] = q.Ordering
	}
	if q.Page > 0 {
		values["page"] = q.Page
	}
	return values
}

type AccountsListResponse = PaginatedResponse[Account]

// TokenPair is the access/refresh credential pair as it appears on the
// wire.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse covers the shapes the login endpoint is known to return:
// a nested token pair, a top-level pair, or no tokens at all.
type LoginResponse struct {
	Email   string     `json:"email,omitempty"`
	Access  string     `json:"access,omitempty"`
	Refresh string     `json:"refresh,omitempty"`
	Tokens  *TokenPair `json:"tokens,omitempty"`
}

// Pair extracts the credential pair from whichever position it occupies.
// ok is false when the response carried no tokens.
func (r LoginResponse) Pair() (pair TokenPair, ok bool) {
	if r.Tokens != nil && (r.Tokens.Access != "" || r.Tokens.Refresh != "") {
		return *r.Tokens, true
	}
	if r.Access != "" || r.Refresh != "" {
		return TokenPair{Access: r.Access, Refresh: r.Refresh}, true
	}
	return TokenPair{}, false
}

type RegisterRequest struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
}

type RegisterResponse = LoginResponse

type Profile struct {
	Email        string `json:"email,omitempty"`
	Username     string `json:"username,omitempty"`
	FirstName    string `json:"first_name,omitempty"`
	LastName     string `json:"last_name,omitempty"`
	FullName     string `json:"full_name,omitempty"`
	Phone        string `json:"phone,omitempty"`
	EmployeeID   string `json:"employee_id,omitempty"`
	Department   string `json:"department,omitempty"`
	Position     string `json:"position,omitempty"`
	Manager      *int   `json:"manager,omitempty"`
	UserIsActive *bool  `json:"user__is_active,omitempty"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

type RefreshRequest struct {
	Refresh string `json:"refresh"`
}

type RefreshResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh,omitempty"`
}

// UsersListQuery filters the admin users list.
type UsersListQuery struct {
	Department   string
	Position     string
	Search       string
	Ordering     string
	Page         int
	UserIsActive *bool
}

func (q UsersListQuery) Values() Query {
	values := Query{}
	if q.Department != "" {
		values["department"] = q.Department
	}
	if q.Position != "" {
		values["position"] = q.Position
	}
	if q.Search != "" {
		values["search"] = q.Search
	}
	if q.Ordering != "" {
		values["ordering"] = q.Ordering
	}
	if q.Page > 0 {
		values["page"] = q.Page
	}
	if q.UserIsActive != nil {
		values["user__is_active"] = *q.UserIsActive
	}
	return values
}

type UsersListResponse = PaginatedResponse[Profile]
