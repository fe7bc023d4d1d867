package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// AccountService owns username/password credentials and login sessions.
type AccountService struct {
	KV         KeyValueStore
	BcryptCost int
	locker     *KeyLocker
}

func NewAccountService(kv KeyValueStore, bcryptCost int) *AccountService {
	if bcryptCost < bcrypt.MinCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &AccountService{KV: kv, BcryptCost: bcryptCost, locker: defaultLocker}
}

func (a *AccountService) users(ctx context.Context) (map[string]string, error) {
	raw, found, err := a.KV.Get(ctx, UsersKey)
	if err != nil {
		return nil, err
	}
	users := map[string]string{}
	if !found || raw == "" {
		return users, nil
	}
	if err := json.Unmarshal([]byte(raw), &users); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	return users, nil
}

// Register creates the account and opens a session for it.
func (a *AccountService) Register(ctx context.Context, username, password string) (string, error) {
	username = strings.TrimSpace(username)
	unlock := a.locker.Lock(UsersKey)
	defer unlock()

	users, err := a.users(ctx)
	if err != nil {
		return "", err
	}
	if _, exists := users[username]; exists {
		return "", ErrUsernameTaken
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), a.BcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	users[username] = string(hash)
	raw, err := json.Marshal(users)
	if err != nil {
		return "", err
	}
	if err := a.KV.Set(ctx, UsersKey, string(raw)); err != nil {
		return "", err
	}
	return a.openSession(ctx, username)
}

func (a *AccountService) Login(ctx context.Context, username, password string) (string, error) {
	username = strings.TrimSpace(username)
	users, err := a.users(ctx)
	if err != nil {
		return "", err
	}
	hash, ok := users[username]
	if !ok {
		return "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return "", ErrInvalidCredentials
		}
		return "", err
	}
	return a.openSession(ctx, username)
}

func (a *AccountService) openSession(ctx context.Context, username string) (string, error) {
	sessionID := uuid.NewString()
	if err := a.KV.Set(ctx, SessionKey(sessionID), username); err != nil {
		return "", err
	}
	return sessionID, nil
}

func (a *AccountService) Logout(ctx context.Context, sessionID string) error {
	return a.KV.Delete(ctx, SessionKey(sessionID))
}

// ResolveSession returns the username that owns sessionID.
func (a *AccountService) ResolveSession(ctx context.Context, sessionID string) (string, error) {
	if sessionID == "" {
		return "", ErrSessionNotFound
	}
	username, found, err := a.KV.Get(ctx, SessionKey(sessionID))
	if err != nil {
		return "", err
	}
	if !found {
		return "", ErrSessionNotFound
	}
	return username, nil
}
