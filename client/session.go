package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Credentials is what a successful login or registration returns.
type Credentials struct {
	Token  string `json:"token"`
	Role   string `json:"role"`
	UserID uint   `json:"user_id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
}

// SessionStore persists credentials between process runs.
type SessionStore interface {
	// Load returns nil, nil when nothing is stored.
	Load() (*Credentials, error)
	Save(Credentials) error
	Clear() error
}

// FileStore keeps credentials in a JSON file readable only by the owner.
type FileStore struct {
	Path string
}

func (s FileStore) Load() (*Credentials, error) {
	b, err := os.ReadFile(s.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var c Credentials
	if err := json.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.Path, err)
	}
	if c.Token == "" {
		return nil, nil
	}
	return &c, nil
}

func (s FileStore) Save(c Credentials) error {
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o700); err != nil {
		return err
	}
	b, err := json.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(s.Path, b, 0o600)
}

func (s FileStore) Clear() error {
	err := os.Remove(s.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// MemoryStore is a SessionStore that lives only as long as the process.
type MemoryStore struct {
	mu    sync.Mutex
	creds *Credentials
}

func (s *MemoryStore) Load() (*Credentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.creds == nil {
		return nil, nil
	}
	c := *s.creds
	return &c, nil
}

func (s *MemoryStore) Save(c Credentials) error {
	s.mu.Lock()
	s.creds = &c
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	s.creds = nil
	s.mu.Unlock()
	return nil
}

// Session is the authenticated state shared by every request of a Client.
// Call Init once at startup; Begin after login and Teardown on logout or 401.
type Session struct {
	mu    sync.RWMutex
	store SessionStore
	creds *Credentials
}

func NewSession(store SessionStore) *Session {
	if store == nil {
		store = &MemoryStore{}
	}
	return &Session{store: store}
}

// Init loads stored credentials. A missing store entry leaves the session
// signed out.
func (s *Session) Init() error {
	c, err := s.store.Load()
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.creds = c
	s.mu.Unlock()
	return nil
}

func (s *Session) Begin(c Credentials) error {
	s.mu.Lock()
	s.creds = &c
	s.mu.Unlock()
	return s.store.Save(c)
}

func (s *Session) Teardown() error {
	s.mu.Lock()
	s.creds = nil
	s.mu.Unlock()
	return s.store.Clear()
}

// Current returns the signed-in credentials, if any.
func (s *Session) Current() (Credentials, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.creds == nil {
		return Credentials{}, false
	}
	return *s.creds, true
}

func (s *Session) token() string {
	c, _ := s.Current()
	return c.Token
}
