package erpclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/mux"
)

// sessionFixture serves a minimal accounts API with call counters, enough
// to observe caching and invalidation from the outside.
type sessionFixture struct {
	listCalls    int32
	detailCalls  int32
	currentCalls int32
	session      *Session
}

func newSessionFixture(t *testing.T) *sessionFixture {
	t.Helper()

	f := new(sessionFixture)

	r := mux.NewRouter()
	r.HandleFunc("/api/v1/auth/login/", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, LoginResponse{Tokens: &TokenPair{Access: "access", Refresh: "refresh"}})
	}).Methods(http.MethodPost)
	r.HandleFunc("/api/v1/auth/logout/", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}).Methods(http.MethodPost)
	r.HandleFunc("/api/v1/auth/current/", func(w http.ResponseWriter, req *http.Request) {
		atomic.AddInt32(&f.currentCalls, 1)
		writeJSON(w, http.StatusOK, Profile{Username: "admin"})
	}).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/core/accounts/", func(w http.ResponseWriter, req *http.Request) {
		switch req.Method {
		case http.MethodPost:
			var payload AccountPayload
			json.NewDecoder(req.Body).Decode(&payload)
			writeJSON(w, http.StatusCreated, Account{ID: 99, CompanyName: payload.CompanyName})
		default:
			atomic.AddInt32(&f.listCalls, 1)
			writeJSON(w, http.StatusOK, AccountsListResponse{
				Count:   1,
				Results: []Account{{ID: 7, CompanyName: "Acme"}},
			})
		}
	}).Methods(http.MethodGet, http.MethodPost)
	r.HandleFunc("/api/v1/core/accounts/{id}/", func(w http.ResponseWriter, req *http.Request) {
		switch req.Method {
		case http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		case http.MethodPut:
			writeJSON(w, http.StatusOK, Account{ID: 7, CompanyName: "Acme Renamed"})
		default:
			atomic.AddInt32(&f.detailCalls, 1)
			writeJSON(w, http.StatusOK, Account{ID: 7, CompanyName: "Acme"})
		}
	}).Methods(http.MethodGet, http.MethodPut, http.MethodDelete)

	server := httptest.NewServer(r)
	t.Cleanup(server.Close)

	f.session = NewSession(NewClient(server.URL), NewMemoryCache(time.Minute))
	return f
}

func TestSessionCachesListReads(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()
	query := AccountsListQuery{Search: "Acme"}

	for i := 0; i < 3; i++ {
		res, err := f.session.Accounts(ctx, query)
		if err != nil {
			t.Fatal("no error expected, got:", err)
		}
		if res.Count != 1 {
			t.Errorf("unexpected response: %+v", res)
		}
	}

	if got := atomic.LoadInt32(&f.listCalls); got != 1 {
		t.Error("repeated identical reads should hit the cache, calls:", got)
	}

	// A different query is a different cache key.
	if _, err := f.session.Accounts(ctx, AccountsListQuery{Search: "Other"}); err != nil {
		t.Fatal("no error expected, got:", err)
	}
	if got := atomic.LoadInt32(&f.listCalls); got != 2 {
		t.Error("distinct queries must not share entries, calls:", got)
	}
}

func TestSessionCreateInvalidatesLists(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()
	query := AccountsListQuery{}

	if _, err := f.session.Accounts(ctx, query); err != nil {
		t.Fatal("no error expected, got:", err)
	}
	if _, err := f.session.Account(ctx, 7); err != nil {
		t.Fatal("no error expected, got:", err)
	}

	if _, err := f.session.CreateAccount(ctx, AccountPayload{CompanyName: "New Co", IsActive: true}); err != nil {
		t.Fatal("no error expected, got:", err)
	}

	if _, err := f.session.Accounts(ctx, query); err != nil {
		t.Fatal("no error expected, got:", err)
	}
	if _, err := f.session.Account(ctx, 7); err != nil {
		t.Fatal("no error expected, got:", err)
	}

	if got := atomic.LoadInt32(&f.listCalls); got != 2 {
		t.Error("create must invalidate list entries, calls:", got)
	}
	if got := atomic.LoadInt32(&f.detailCalls); got != 2 {
		t.Error("create must invalidate detail entries, calls:", got)
	}
}

func TestSessionUpdateAndDeleteInvalidate(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	if _, err := f.session.Account(ctx, 7); err != nil {
		t.Fatal("no error expected, got:", err)
	}
	if _, err := f.session.UpdateAccount(ctx, 7, AccountPayload{CompanyName: "Acme Renamed"}); err != nil {
		t.Fatal("no error expected, got:", err)
	}
	if _, err := f.session.Account(ctx, 7); err != nil {
		t.Fatal("no error expected, got:", err)
	}
	if got := atomic.LoadInt32(&f.detailCalls); got != 2 {
		t.Error("update must invalidate the detail entry, calls:", got)
	}

	if err := f.session.DeleteAccount(ctx, 7); err != nil {
		t.Fatal("no error expected, got:", err)
	}
	if _, err := f.session.Account(ctx, 7); err != nil {
		t.Fatal("no error expected, got:", err)
	}
	if got := atomic.LoadInt32(&f.detailCalls); got != 3 {
		t.Error("delete must invalidate the detail entry, calls:", got)
	}
}

func TestSessionLoginStoresTokensAndLogoutClears(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	if _, err := f.session.CurrentUser(ctx); err != nil {
		t.Fatal("no error expected, got:", err)
	}

	if _, err := f.session.Login(ctx, LoginRequest{Email: "a@b.it", Password: "pw"}); err != nil {
		t.Fatal("no error expected, got:", err)
	}
	tokens := f.session.Client().Tokens().Get()
	if tokens.Access != "access" || tokens.Refresh != "refresh" {
		t.Errorf("login did not store tokens: %+v", tokens)
	}

	// Login marked the current-user entry stale.
	if _, err := f.session.CurrentUser(ctx); err != nil {
		t.Fatal("no error expected, got:", err)
	}
	if got := atomic.LoadInt32(&f.currentCalls); got != 2 {
		t.Error("login must invalidate the current-user entry, calls:", got)
	}

	if err := f.session.Logout(ctx); err != nil {
		t.Fatal("no error expected, got:", err)
	}
	if got := f.session.Client().Tokens().Get(); got != (Tokens{}) {
		t.Errorf("logout did not clear tokens: %+v", got)
	}
	if _, err := f.session.CurrentUser(ctx); err != nil {
		t.Fatal("no error expected, got:", err)
	}
	if got := atomic.LoadInt32(&f.currentCalls); got != 3 {
		t.Error("logout must clear the cache, calls:", got)
	}
}

func TestSessionDeduplicatesConcurrentReads(t *testing.T) {
	var listCalls int32
	release := make(chan struct{})

	r := mux.NewRouter()
	r.HandleFunc("/api/v1/core/accounts/", func(w http.ResponseWriter, req *http.Request) {
		atomic.AddInt32(&listCalls, 1)
		<-release
		writeJSON(w, http.StatusOK, AccountsListResponse{Count: 1})
	}).Methods(http.MethodGet)

	server := httptest.NewServer(r)
	defer server.Close()

	session := NewSession(NewClient(server.URL), NewMemoryCache(time.Minute))

	const workers = 5
	var started, done sync.WaitGroup
	started.Add(workers)
	done.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer done.Done()
			started.Done()
			if _, err := session.Accounts(context.Background(), AccountsListQuery{}); err != nil {
				t.Error("no error expected, got:", err)
			}
		}()
	}

	started.Wait()
	time.Sleep(50 * time.Millisecond)
	close(release)
	done.Wait()

	if got := atomic.LoadInt32(&listCalls); got != 1 {
		t.Error("concurrent identical reads should coalesce, calls:", got)
	}
}
