package erpclient

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
)

// Storage keys for the persisted credential pair.
const (
	accessTokenKey  = "auth:accessToken"
	refreshTokenKey = "auth:refreshToken"
)

// Tokens is the bearer credential pair issued by the auth endpoints.
// An empty string means the token is absent.
type Tokens struct {
	Access  string
	Refresh string
}

// TokenUpdate describes a partial change to the stored pair. A nil field
// leaves the stored value untouched; a pointer to an empty string clears
// just that field.
type TokenUpdate struct {
	Access  *string
	Refresh *string
}

// String returns a pointer to s. Handy for TokenUpdate and payload fields.
func String(s string) *string {
	return &s
}

// Int returns a pointer to n.
func Int(n int) *int {
	return &n
}

// Bool returns a pointer to b.
func Bool(b bool) *bool {
	return &b
}

// TokenStore owns the credential pair across requests. Token lifetime is
// governed solely by the server, so stores carry no expiry logic.
type TokenStore interface {
	Get() Tokens
	Set(update TokenUpdate)
	Clear()
}

func applyTokenUpdate(tokens Tokens, update TokenUpdate) Tokens {
	if update.Access != nil {
		tokens.Access = *update.Access
	}
	if update.Refresh != nil {
		tokens.Refresh = *update.Refresh
	}
	return tokens
}

// MemoryTokenStore keeps the pair in process memory. It is the fallback
// when no durable location is available, and the default for tests.
type MemoryTokenStore struct {
	mu     sync.Mutex
	tokens Tokens
}

func NewMemoryTokenStore() *MemoryTokenStore {
	return new(MemoryTokenStore)
}

func (s *MemoryTokenStore) Get() Tokens {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tokens
}

func (s *MemoryTokenStore) Set(update TokenUpdate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = applyTokenUpdate(s.tokens, update)
}

func (s *MemoryTokenStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = Tokens{}
}

// FileTokenStore persists the pair as a small JSON object under the two
// fixed storage keys. Read and parse problems degrade to an empty pair so
// a corrupt file behaves like a signed-out session.
type FileTokenStore struct {
	mu   sync.Mutex
	path string
}

func NewFileTokenStore(path string) *FileTokenStore {
	return &FileTokenStore{path: path}
}

func (s *FileTokenStore) load() Tokens {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return Tokens{}
	}
	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return Tokens{}
	}
	return Tokens{
		Access:  raw[accessTokenKey],
		Refresh: raw[refreshTokenKey],
	}
}

func (s *FileTokenStore) save(tokens Tokens) {
	raw := make(map[string]string, 2)
	if tokens.Access != "" {
		raw[accessTokenKey] = tokens.Access
	}
	if tokens.Refresh != "" {
		raw[refreshTokenKey] = tokens.Refresh
	}
	data, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return
	}
	os.WriteFile(s.path, data, 0o600)
}

func (s *FileTokenStore) Get() Tokens {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *FileTokenStore) Set(update TokenUpdate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.save(applyTokenUpdate(s.load(), update))
}

func (s *FileTokenStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	os.Remove(s.path)
}
