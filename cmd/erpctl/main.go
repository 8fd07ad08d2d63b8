package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/fabbricasoft/erpclient"
)

func usage() {
	fmt.Println("erpctl <command> [flags...]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  login               authenticate and persist the session tokens")
	fmt.Println("  logout              end the session and drop the tokens")
	fmt.Println("  current             show the signed-in user")
	fmt.Println("  profile             show the full profile")
	fmt.Println("  profile-update      update profile fields")
	fmt.Println("  change-password     change the account password")
	fmt.Println("  users               list users (admin)")
	fmt.Println("  accounts            list customer accounts")
	fmt.Println("  account             show one account")
	fmt.Println("  account-create      create an account")
	fmt.Println("  account-update      update an account")
	fmt.Println("  account-delete      delete an account")
	fmt.Println("  shipping-addresses  list an account's shipping addresses")
}

type cmdHandler func(*erpclient.Session, []string) error

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Fprintln(os.Stderr, "no .env file found; relying on environment")
	}

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		With().Timestamp().Logger().Level(zerolog.InfoLevel)
	if level, err := zerolog.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil && level != zerolog.NoLevel {
		logger = logger.Level(level)
	}

	client := erpclient.NewClient(
		os.Getenv("ERP_API_BASE_URL"),
		erpclient.WithTokenStore(tokenStore(logger)),
		erpclient.WithLogger(logger),
		erpclient.WithUserAgent("erpctl"),
	)
	session := erpclient.NewSession(client, erpclient.NewMemoryCache(time.Minute))

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	handlers := map[string]cmdHandler{
		"login":              handleLogin,
		"logout":             handleLogout,
		"current":            handleCurrent,
		"profile":            handleProfile,
		"profile-update":     handleProfileUpdate,
		"change-password":    handleChangePassword,
		"users":              handleUsers,
		"accounts":           handleAccounts,
		"account":            handleAccount,
		"account-create":     handleAccountCreate,
		"account-update":     handleAccountUpdate,
		"account-delete":     handleAccountDelete,
		"shipping-addresses": handleShippingAddresses,
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	handler, ok := handlers[cmd]
	if !ok {
		usage()
		os.Exit(2)
	}

	if err := handler(session, args); err != nil {
		renderError(cmd, err)
		os.Exit(1)
	}
}

// tokenStore picks a durable location under the user config dir, falling
// back to process memory when none is available.
func tokenStore(logger zerolog.Logger) erpclient.TokenStore {
	configDir, err := os.UserConfigDir()
	if err != nil {
		logger.Warn().Err(err).Msg("no user config dir, tokens will not persist")
		return erpclient.NewMemoryTokenStore()
	}
	return erpclient.NewFileTokenStore(filepath.Join(configDir, "erpctl", "tokens.json"))
}

// renderError prints the primary message plus bulleted details, the same
// contract the console UI uses for APIError rendering.
func renderError(cmd string, err error) {
	messages := erpclient.ErrorMessages(err)
	var validationErr *erpclient.ValidationError
	if errors.As(err, &validationErr) && len(validationErr.Messages) > 0 {
		messages = validationErr.Messages
	}
	if len(messages) == 0 {
		messages = []string{err.Error()}
	}
	fmt.Fprintf(os.Stderr, "%s failed: %s\n", cmd, messages[0])
	for _, detail := range messages[1:] {
		fmt.Fprintf(os.Stderr, "  - %s\n", detail)
	}
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

// parseBoolFlag interprets a tri-state string flag: empty means unset.
func parseBoolFlag(value string) (*bool, error) {
	if value == "" {
		return nil, nil
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return nil, fmt.Errorf("expected true or false, got %q", value)
	}
	return &parsed, nil
}

func handleLogin(s *erpclient.Session, args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", os.Getenv("ERP_EMAIL"), "login email")
	password := fs.String("password", os.Getenv("ERP_PASSWORD"), "login password")
	fs.Parse(args)

	if *email == "" || *password == "" {
		return errors.New("-email and -password are required")
	}

	res, err := s.Login(context.Background(), erpclient.LoginRequest{
		Email:    *email,
		Password: *password,
	})
	if err != nil {
		return err
	}
	if _, ok := res.Pair(); !ok {
		fmt.Println("signed in, but no tokens were returned")
		return nil
	}
	fmt.Println("signed in")
	return nil
}

func handleLogout(s *erpclient.Session, args []string) error {
	if err := s.Logout(context.Background()); err != nil {
		return err
	}
	fmt.Println("signed out")
	return nil
}

func handleCurrent(s *erpclient.Session, args []string) error {
	profile, err := s.CurrentUser(context.Background())
	if err != nil {
		return err
	}
	return printJSON(profile)
}

func handleProfile(s *erpclient.Session, args []string) error {
	profile, err := s.Profile(context.Background())
	if err != nil {
		return err
	}
	return printJSON(profile)
}

func handleProfileUpdate(s *erpclient.Session, args []string) error {
	fs := flag.NewFlagSet("profile-update", flag.ExitOnError)
	var body erpclient.Profile
	fs.StringVar(&body.FirstName, "first-name", "", "first name")
	fs.StringVar(&body.LastName, "last-name", "", "last name")
	fs.StringVar(&body.Phone, "phone", "", "phone number")
	fs.StringVar(&body.Department, "department", "", "department")
	fs.StringVar(&body.Position, "position", "", "position")
	fs.Parse(args)

	profile, err := s.UpdateProfile(context.Background(), body)
	if err != nil {
		return err
	}
	return printJSON(profile)
}

func handleChangePassword(s *erpclient.Session, args []string) error {
	fs := flag.NewFlagSet("change-password", flag.ExitOnError)
	oldPassword := fs.String("old", "", "current password")
	newPassword := fs.String("new", "", "new password")
	fs.Parse(args)

	if *oldPassword == "" || *newPassword == "" {
		return errors.New("-old and -new are required")
	}

	if err := s.ChangePassword(context.Background(), erpclient.ChangePasswordRequest{
		OldPassword: *oldPassword,
		NewPassword: *newPassword,
	}); err != nil {
		return err
	}
	fmt.Println("password changed")
	return nil
}

func handleUsers(s *erpclient.Session, args []string) error {
	fs := flag.NewFlagSet("users", flag.ExitOnError)
	var query erpclient.UsersListQuery
	fs.StringVar(&query.Search, "search", "", "search text")
	fs.StringVar(&query.Department, "department", "", "filter by department")
	fs.StringVar(&query.Position, "position", "", "filter by position")
	fs.StringVar(&query.Ordering, "ordering", "", "sort field")
	fs.IntVar(&query.Page, "page", 0, "page number")
	active := fs.String("active", "", "filter by active state (true/false)")
	fs.Parse(args)

	isActive, err := parseBoolFlag(*active)
	if err != nil {
		return err
	}
	query.UserIsActive = isActive

	res, err := s.Users(context.Background(), query)
	if err != nil {
		return err
	}
	return printJSON(res)
}

func handleAccounts(s *erpclient.Session, args []string) error {
	fs := flag.NewFlagSet("accounts", flag.ExitOnError)
	var query erpclient.AccountsListQuery
	fs.StringVar(&query.Search, "search", "", "search text")
	fs.StringVar(&query.Country, "country", "", "filter by country")
	fs.StringVar(&query.Ordering, "ordering", "", "sort field")
	fs.IntVar(&query.Page, "page", 0, "page number")
	manager := fs.Int("manager", 0, "filter by account manager id")
	paymentMethod := fs.Int("payment-method", 0, "filter by payment method id")
	active := fs.String("active", "", "filter by active state (true/false)")
	fs.Parse(args)

	if *manager > 0 {
		query.AccountManager = manager
	}
	if *paymentMethod > 0 {
		query.PaymentMethod = paymentMethod
	}
	isActive, err := parseBoolFlag(*active)
	if err != nil {
		return err
	}
	query.IsActive = isActive

	res, err := s.Accounts(context.Background(), query)
	if err != nil {
		return err
	}
	return printJSON(res)
}

func handleAccount(s *erpclient.Session, args []string) error {
	fs := flag.NewFlagSet("account", flag.ExitOnError)
	id := fs.Int("id", 0, "account id (required)")
	fs.Parse(args)

	if *id <= 0 {
		return errors.New("-id is required")
	}

	account, err := s.Account(context.Background(), *id)
	if err != nil {
		return err
	}
	return printJSON(account)
}

// accountFlags binds the editable account fields onto a flag set.
func accountFlags(fs *flag.FlagSet, values *erpclient.AccountFormValues) {
	fs.StringVar(&values.CompanyName, "company", values.CompanyName, "company name (required)")
	fs.StringVar(&values.VatNumber, "vat", values.VatNumber, "VAT number")
	fs.StringVar(&values.TaxCode, "tax-code", values.TaxCode, "tax code")
	fs.StringVar(&values.Address, "address", values.Address, "street address")
	fs.StringVar(&values.City, "city", values.City, "city")
	fs.StringVar(&values.Province, "province", values.Province, "province")
	fs.StringVar(&values.PostalCode, "postal-code", values.PostalCode, "postal code")
	fs.StringVar(&values.Country, "country", values.Country, "country code")
	fs.StringVar(&values.Email, "email", values.Email, "contact email")
	fs.StringVar(&values.Phone, "phone", values.Phone, "phone number")
	fs.StringVar(&values.Website, "website", values.Website, "website URL")
	fs.StringVar(&values.Iban, "iban", values.Iban, "IBAN")
	fs.StringVar(&values.Notes, "notes", values.Notes, "free-form notes")
	fs.StringVar(&values.LegacyID, "legacy-id", values.LegacyID, "legacy system id")
	fs.StringVar(&values.CrmID, "crm-id", values.CrmID, "CRM id")
	fs.StringVar(&values.AccountManager, "manager", values.AccountManager, "account manager id")
	fs.StringVar(&values.PaymentMethod, "payment-method", values.PaymentMethod, "payment method id")
	fs.BoolVar(&values.IsActive, "active", values.IsActive, "account is active")
}

func handleAccountCreate(s *erpclient.Session, args []string) error {
	fs := flag.NewFlagSet("account-create", flag.ExitOnError)
	values := erpclient.DefaultAccountFormValues()
	accountFlags(fs, &values)
	fs.Parse(args)

	if err := values.Validate(); err != nil {
		return err
	}

	account, err := s.CreateAccount(context.Background(), values.Payload())
	if err != nil {
		return err
	}
	return printJSON(account)
}

func handleAccountUpdate(s *erpclient.Session, args []string) error {
	fs := flag.NewFlagSet("account-update", flag.ExitOnError)
	id := fs.Int("id", 0, "account id (required)")
	var flagValues erpclient.AccountFormValues
	accountFlags(fs, &flagValues)
	fs.Parse(args)

	if *id <= 0 {
		return errors.New("-id is required")
	}

	account, err := s.Account(context.Background(), *id)
	if err != nil {
		return err
	}

	// Start from the current state and overlay only the flags that were
	// actually set on the command line.
	values := erpclient.AccountToFormValues(account)
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "id" {
			return
		}
		overlayAccountFlag(&values, flagValues, f.Name)
	})

	if err := values.Validate(); err != nil {
		return err
	}

	updated, err := s.UpdateAccount(context.Background(), *id, values.Payload())
	if err != nil {
		return err
	}
	return printJSON(updated)
}

func overlayAccountFlag(dst *erpclient.AccountFormValues, src erpclient.AccountFormValues, name string) {
	switch name {
	case "company":
		dst.CompanyName = src.CompanyName
	case "vat":
		dst.VatNumber = src.VatNumber
	case "tax-code":
		dst.TaxCode = src.TaxCode
	case "address":
		dst.Address = src.Address
	case "city":
		dst.City = src.City
	case "province":
		dst.Province = src.Province
	case "postal-code":
		dst.PostalCode = src.PostalCode
	case "country":
		dst.Country = src.Country
	case "email":
		dst.Email = src.Email
	case "phone":
		dst.Phone = src.Phone
	case "website":
		dst.Website = src.Website
	case "iban":
		dst.Iban = src.Iban
	case "notes":
		dst.Notes = src.Notes
	case "legacy-id":
		dst.LegacyID = src.LegacyID
	case "crm-id":
		dst.CrmID = src.CrmID
	case "manager":
		dst.AccountManager = src.AccountManager
	case "payment-method":
		dst.PaymentMethod = src.PaymentMethod
	case "active":
		dst.IsActive = src.IsActive
	}
}

func handleAccountDelete(s *erpclient.Session, args []string) error {
	fs := flag.NewFlagSet("account-delete", flag.ExitOnError)
	id := fs.Int("id", 0, "account id (required)")
	fs.Parse(args)

	if *id <= 0 {
		return errors.New("-id is required")
	}

	if err := s.DeleteAccount(context.Background(), *id); err != nil {
		return err
	}
	fmt.Println("account deleted")
	return nil
}

func handleShippingAddresses(s *erpclient.Session, args []string) error {
	fs := flag.NewFlagSet("shipping-addresses", flag.ExitOnError)
	id := fs.Int("id", 0, "account id (required)")
	fs.Parse(args)

	if *id <= 0 {
		return errors.New("-id is required")
	}

	addresses, err := s.ShippingAddresses(context.Background(), *id)
	if err != nil {
		return err
	}
	return printJSON(addresses)
}
