package erpclient

import (
	"os"
	"path/filepath"
	"testing"
)

func TestMemoryTokenStorePartialUpdate(t *testing.T) {
	store := NewMemoryTokenStore()
	store.Set(TokenUpdate{Access: String("A"), Refresh: String("B")})
	store.Set(TokenUpdate{Access: String("X")})

	if got := store.Get(); got.Access != "X" || got.Refresh != "B" {
		t.Errorf("unexpected tokens: %+v", got)
	}
}

func TestMemoryTokenStoreClearsSingleField(t *testing.T) {
	store := NewMemoryTokenStore()
	store.Set(TokenUpdate{Access: String("A"), Refresh: String("B")})
	store.Set(TokenUpdate{Access: String("")})

	if got := store.Get(); got.Access != "" || got.Refresh != "B" {
		t.Errorf("unexpected tokens: %+v", got)
	}
}

func TestMemoryTokenStoreClear(t *testing.T) {
	store := NewMemoryTokenStore()
	store.Set(TokenUpdate{Access: String("A"), Refresh: String("B")})
	store.Clear()

	if got := store.Get(); got != (Tokens{}) {
		t.Errorf("unexpected tokens: %+v", got)
	}
}

func TestFileTokenStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "tokens.json")

	store := NewFileTokenStore(path)
	store.Set(TokenUpdate{Access: String("A"), Refresh: String("B")})
	store.Set(TokenUpdate{Access: String("X")})

	// A fresh store on the same path sees the persisted pair.
	reopened := NewFileTokenStore(path)
	if got := reopened.Get(); got.Access != "X" || got.Refresh != "B" {
		t.Errorf("unexpected tokens: %+v", got)
	}
}

func TestFileTokenStoreClearRemovesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokens.json")

	store := NewFileTokenStore(path)
	store.Set(TokenUpdate{Access: String("A")})
	store.Clear()

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("token file still exists after Clear")
	}
	if got := store.Get(); got != (Tokens{}) {
		t.Errorf("unexpected tokens: %+v", got)
	}
}

func TestFileTokenStoreToleratesCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokens.json")
	if err := os.WriteFile(path, []byte("not json"), 0o600); err != nil {
		t.Fatal(err)
	}

	store := NewFileTokenStore(path)
	if got := store.Get(); got != (Tokens{}) {
		t.Errorf("unexpected tokens: %+v", got)
	}
}
