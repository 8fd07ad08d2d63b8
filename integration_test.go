//go:build integration
// +build integration

package erpclient_test

import (
	"context"
	"net"
	"net/url"
	"os"
	"testing"
	"time"

	"github.com/fabbricasoft/erpclient"
)

func waitForURL(remoteURL string, timeout time.Duration) bool {
	u, err := url.Parse(remoteURL)
	if err != nil {
		panic(err)
	}

	ctx, cf := context.WithTimeout(context.Background(), timeout)
	defer cf()

	var d net.Dialer
	for {
		conn, err := d.DialContext(ctx, "tcp", u.Host)
		if err == nil {
			conn.Close()
			return true
		}
		if ctx.Err() != nil {
			return false
		}
	}
}

type accountLifecycleState struct {
	session *erpclient.Session
	created erpclient.Account
}

func accountCreateIntegrationTest(state *accountLifecycleState) func(*testing.T) {
	return func(t *testing.T) {
		values := erpclient.DefaultAccountFormValues()
		values.CompanyName = "Integration Test S.r.l."
		values.Country = "IT"
		values.Email = "integration@example.com"
		if err := values.Validate(); err != nil {
			t.Fatal("no error expected, got:", err)
		}

		ctx, cf := context.WithTimeout(context.Background(), 15*time.Second)
		defer cf()

		created, err := state.session.CreateAccount(ctx, values.Payload())
		if err != nil {
			t.Fatal("no error expected, got:", err)
		}
		if created.ID == 0 || created.CompanyName != "Integration Test S.r.l." {
			t.Errorf("unexpected account: %+v", created)
		}
		state.created = created
	}
}

func accountFetchIntegrationTest(state *accountLifecycleState) func(*testing.T) {
	return func(t *testing.T) {
		ctx, cf := context.WithTimeout(context.Background(), 15*time.Second)
		defer cf()

		fetched, err := state.session.Account(ctx, state.created.ID)
		if err != nil {
			t.Fatal("no error expected, got:", err)
		}
		if fetched.CompanyName != state.created.CompanyName {
			t.Errorf("unexpected account: %+v", fetched)
		}
	}
}

func accountUpdateIntegrationTest(state *accountLifecycleState) func(*testing.T) {
	return func(t *testing.T) {
		ctx, cf := context.WithTimeout(context.Background(), 15*time.Second)
		defer cf()

		values := erpclient.AccountToFormValues(state.created)
		values.City = "Torino"
		if err := values.Validate(); err != nil {
			t.Fatal("no error expected, got:", err)
		}

		updated, err := state.session.UpdateAccount(ctx, state.created.ID, values.Payload())
		if err != nil {
			t.Fatal("no error expected, got:", err)
		}
		if updated.City == nil || *updated.City != "Torino" {
			t.Errorf("unexpected account: %+v", updated)
		}
	}
}

func accountDeleteIntegrationTest(state *accountLifecycleState) func(*testing.T) {
	return func(t *testing.T) {
		ctx, cf := context.WithTimeout(context.Background(), 15*time.Second)
		defer cf()

		if err := state.session.DeleteAccount(ctx, state.created.ID); err != nil {
			t.Fatal("no error expected, got:", err)
		}
	}
}

func TestAccountLifecycleIntegration(t *testing.T) {
	baseURL := os.Getenv("ERP_API_BASE_URL")
	if baseURL == "" {
		t.Skip("ERP_API_BASE_URL is not set")
	}
	if !waitForURL(baseURL, 15*time.Second) {
		t.Fatal("could not connect to the service")
	}

	session := erpclient.NewSession(erpclient.NewClient(baseURL), nil)

	ctx, cf := context.WithTimeout(context.Background(), 15*time.Second)
	_, err := session.Login(ctx, erpclient.LoginRequest{
		Email:    os.Getenv("ERP_EMAIL"),
		Password: os.Getenv("ERP_PASSWORD"),
	})
	cf()
	if err != nil {
		t.Fatal("login failed:", err)
	}

	state := accountLifecycleState{session: session}

	if t.Run("Create", accountCreateIntegrationTest(&state)) {
		t.Run("Fetch", accountFetchIntegrationTest(&state))
		t.Run("Update", accountUpdateIntegrationTest(&state))
		t.Run("Delete", accountDeleteIntegrationTest(&state))
	}
}
