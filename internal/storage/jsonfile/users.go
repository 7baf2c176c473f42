package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/devpablofiz/Hotelier/internal/domain"
)

type userRecord struct {
	Username     string `json:"username"`
	PasswordHash string `json:"passwordHash"`
	ReviewsCount int    `json:"reviewsCount"`
}

// UserStore is the file-backed credential store. All state lives in memory;
// Save flushes it on the persistence tick and at shutdown.
type UserStore struct {
	path string

	mu    sync.RWMutex
	users map[string]*userRecord
}

// NewUserStore loads the register from path; a missing file starts empty.
func NewUserStore(path string) (*UserStore, error) {
	s := &UserStore{path: path, users: map[string]*userRecord{}}
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return nil, fmt.Errorf("read users %s: %w", path, err)
	}
	if err := json.Unmarshal(b, &s.users); err != nil {
		return nil, fmt.Errorf("decode users %s: %w", path, err)
	}
	return s, nil
}

func (s *UserStore) Validate(ctx context.Context, username, password string) (domain.LoginVerdict, error) {
	s.mu.RLock()
	u, ok := s.users[username]
	s.mu.RUnlock()
	if !ok {
		return domain.LoginUnknownUser, nil
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return domain.LoginBadPassword, nil
	}
	return domain.LoginOK, nil
}

func (s *UserStore) Register(ctx context.Context, username, password string) (domain.RegisterVerdict, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return 0, fmt.Errorf("hash password: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[username]; ok {
		return domain.RegisterAlreadyExists, nil
	}
	s.users[username] = &userRecord{Username: username, PasswordHash: string(hash)}
	return domain.RegisterOK, nil
}

func (s *UserStore) ReviewCount(ctx context.Context, username string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[username]
	if !ok {
		return 0, nil
	}
	return u.ReviewsCount, nil
}

func (s *UserStore) IncrementReviewCount(ctx context.Context, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[username]
	if !ok {
		return domain.ErrNotFound
	}
	u.ReviewsCount++
	return nil
}

// Save flushes the register to disk atomically.
func (s *UserStore) Save(ctx context.Context) error {
	s.mu.RLock()
	b, err := json.MarshalIndent(s.users, "", "  ")
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("encode users: %w", err)
	}
	return atomicWrite(s.path, b)
}
