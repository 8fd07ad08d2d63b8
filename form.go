package erpclient

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// AccountFormValues is the string-typed editing representation of an
// Account: every optional field is a plain string, foreign keys are
// integer strings, and empty means unset.
type AccountFormValues struct {
	CompanyName     string `json:"company_name" validate:"required"`
	VatNumber       string `json:"vat_number"`
	TaxCode         string `json:"tax_code"`
	Address         string `json:"address"`
	City            string `json:"city"`
	Province        string `json:"province"`
	PostalCode      string `json:"postal_code"`
	Country         string `json:"country"`
	Email           string `json:"email" validate:"omitempty,email"`
	Phone           string `json:"phone"`
	Website         string `json:"website" validate:"omitempty,url"`
	Abi             string `json:"abi"`
	Cab             string `json:"cab"`
	Iban            string `json:"iban"`
	RecipientCode   string `json:"recipient_code"`
	CertifiedEmail  string `json:"certified_email" validate:"omitempty,email"`
	Notes           string `json:"notes"`
	IsActive        bool   `json:"is_active"`
	LegacyID        string `json:"legacy_id" validate:"omitempty,intstring"`
	CrmID           string `json:"crm_id"`
	AccountManager  string `json:"account_manager" validate:"omitempty,intstring"`
	PaymentMethod   string `json:"payment_method" validate:"omitempty,intstring"`
	Carrier         string `json:"carrier"`
	VatRate         string `json:"vat_rate" validate:"omitempty,intstring"`
	ShippingAddress string `json:"shipping_address" validate:"omitempty,intstring"`
}

// DefaultAccountFormValues returns the blank form: everything empty, new
// accounts active.
func DefaultAccountFormValues() AccountFormValues {
	return AccountFormValues{IsActive: true}
}

var intStringPattern = regexp.MustCompile(`^\d+$`)

var (
	formValidatorOnce sync.Once
	formValidator     *validator.Validate
)

// accountFormValidator lazily initializes the shared validator with the
// integer-string rule and json-tag field names.
func accountFormValidator() *validator.Validate {
	formValidatorOnce.Do(func() {
		formValidator = validator.New()
		formValidator.RegisterTagNameFunc(func(field reflect.StructField) string {
			name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
			if name == "" || name == "-" {
				return field.Name
			}
			return name
		})
		formValidator.RegisterValidation("intstring", func(fl validator.FieldLevel) bool {
			return intStringPattern.MatchString(fl.Field().String())
		})
	})
	return formValidator
}

// ValidationError reports client-side form rule violations, one message
// per offending field.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	if len(e.Messages) == 0 {
		return "validation failed"
	}
	return strings.Join(e.Messages, "; ")
}

func fieldMessage(fieldError validator.FieldError) string {
	label := startCase(fieldError.Field())
	switch fieldError.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", label)
	case "email":
		return fmt.Sprintf("%s: Enter a valid email", label)
	case "url":
		return fmt.Sprintf("%s: Enter a valid URL", label)
	case "intstring":
		return fmt.Sprintf("%s: Enter a whole number", label)
	}
	return fmt.Sprintf("%s is invalid", label)
}

// Normalized returns a copy with every text field trimmed.
func (v AccountFormValues) Normalized() AccountFormValues {
	fields := []*string{
		&v.CompanyName, &v.VatNumber, &v.TaxCode, &v.Address, &v.City,
		&v.Province, &v.PostalCode, &v.Country, &v.Email, &v.Phone,
		&v.Website, &v.Abi, &v.Cab, &v.Iban, &v.RecipientCode,
		&v.CertifiedEmail, &v.Notes, &v.LegacyID, &v.CrmID,
		&v.AccountManager, &v.PaymentMethod, &v.Carrier, &v.VatRate,
		&v.ShippingAddress,
	}
	for _, field := range fields {
		*field = strings.TrimSpace(*field)
	}
	return v
}

// Validate checks the trimmed values against the form rules and returns a
// *ValidationError listing every violation.
func (v AccountFormValues) Validate() error {
	err := accountFormValidator().Struct(v.Normalized())
	if err == nil {
		return nil
	}
	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return err
	}
	messages := make([]string, 0, len(fieldErrors))
	for _, fieldError := range fieldErrors {
		messages = append(messages, fieldMessage(fieldError))
	}
	return &ValidationError{Messages: messages}
}

func stringValue(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func intString(p *int) string {
	if p == nil {
		return ""
	}
	return strconv.Itoa(*p)
}

// AccountToFormValues projects an account into its editing representation.
// Inverse of Payload for the non-derived fields.
func AccountToFormValues(account Account) AccountFormValues {
	return AccountFormValues{
		CompanyName:     account.CompanyName,
		VatNumber:       stringValue(account.VatNumber),
		TaxCode:         stringValue(account.TaxCode),
		Address:         stringValue(account.Address),
		City:            stringValue(account.City),
		Province:        stringValue(account.Province),
		PostalCode:      stringValue(account.PostalCode),
		Country:         stringValue(account.Country),
		Email:           stringValue(account.Email),
		Phone:           stringValue(account.Phone),
		Website:         stringValue(account.Website),
		Abi:             stringValue(account.Abi),
		Cab:             stringValue(account.Cab),
		Iban:            stringValue(account.Iban),
		RecipientCode:   stringValue(account.RecipientCode),
		CertifiedEmail:  stringValue(account.CertifiedEmail),
		Notes:           stringValue(account.Notes),
		IsActive:        account.IsActive,
		LegacyID:        intString(account.LegacyID),
		CrmID:           stringValue(account.CrmID),
		AccountManager:  intString(account.AccountManager),
		PaymentMethod:   intString(account.PaymentMethod),
		Carrier:         stringValue(account.Carrier),
		VatRate:         intString(account.VatRate),
		ShippingAddress: intString(account.ShippingAddress),
	}
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func optionalNumber(s string) *int {
	if s == "" {
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &n
}

// Payload converts the trimmed form values into the typed API payload:
// empty optional strings become nulls, integer strings become numbers.
// Total and deterministic, so payload to form to payload is stable for
// populated values.
func (v AccountFormValues) Payload() AccountPayload {
	n := v.Normalized()
	return AccountPayload{
		CompanyName:     n.CompanyName,
		VatNumber:       nullableString(n.VatNumber),
		TaxCode:         nullableString(n.TaxCode),
		Address:         nullableString(n.Address),
		City:            nullableString(n.City),
		Province:        nullableString(n.Province),
		PostalCode:      nullableString(n.PostalCode),
		Country:         nullableString(n.Country),
		Email:           nullableString(n.Email),
		Phone:           nullableString(n.Phone),
		Website:         nullableString(n.Website),
		Abi:             nullableString(n.Abi),
		Cab:             nullableString(n.Cab),
		Iban:            nullableString(n.Iban),
		RecipientCode:   nullableString(n.RecipientCode),
		CertifiedEmail:  nullableString(n.CertifiedEmail),
		Notes:           nullableString(n.Notes),
		IsActive:        n.IsActive,
		LegacyID:        optionalNumber(n.LegacyID),
		CrmID:           nullableString(n.CrmID),
		AccountManager:  optionalNumber(n.AccountManager),
		PaymentMethod:   optionalNumber(n.PaymentMethod),
		Carrier:         nullableString(n.Carrier),
		VatRate:         optionalNumber(n.VatRate),
		ShippingAddress: optionalNumber(n.ShippingAddress),
	}
}
