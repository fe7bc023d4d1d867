package services_test

import (
	"context"
	"sync"
	"testing"

	"wardrobeapi/services"
	"wardrobeapi/test"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newAccounts(t *testing.T) (*services.AccountService, services.KeyValueStore) {
	kv, _ := test.NewRedisKV(t)
	return services.NewAccountService(kv, bcrypt.MinCost), kv
}

func TestRegisterOpensSession(t *testing.T) {
	ctx := context.Background()
	accounts, kv := newAccounts(t)

	sessionID, err := accounts.Register(ctx, "  alice ", "secret1")
	require.NoError(t, err)
	require.NotEmpty(t, sessionID)

	username, err := accounts.ResolveSession(ctx, sessionID)
	require.NoError(t, err)
	assert.Equal(t, "alice", username)

	raw, found, err := kv.Get(ctx, services.UsersKey)
	require.NoError(t, err)
	require.True(t, found)
	assert.Contains(t, raw, `"alice"`)
	assert.NotContains(t, raw, "secret1")
}

func TestRegisterRejectsTakenUsername(t *testing.T) {
	ctx := context.Background()
	accounts, _ := newAccounts(t)
	_, err := accounts.Register(ctx, "alice", "secret1")
	require.NoError(t, err)

	_, err = accounts.Register(ctx, "alice", "other")
	assert.ErrorIs(t, err, services.ErrUsernameTaken)
}

func TestRegisterConcurrentlyKeepsEveryUser(t *testing.T) {
	ctx := context.Background()
	accounts, _ := newAccounts(t)
	names := []string{"u1", "u2", "u3", "u4", "u5", "u6"}

	var wg sync.WaitGroup
	for _, name := range names {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			_, err := accounts.Register(ctx, name, "password")
			assert.NoError(t, err)
		}(name)
	}
	wg.Wait()

	for _, name := range names {
		_, err := accounts.Login(ctx, name, "password")
		assert.NoError(t, err, name)
	}
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	accounts, _ := newAccounts(t)
	first, err := accounts.Register(ctx, "alice", "secret1")
	require.NoError(t, err)

	second, err := accounts.Login(ctx, "alice", "secret1")
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	_, err = accounts.Login(ctx, "alice", "wrong")
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)
	_, err = accounts.Login(ctx, "bob", "secret1")
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)
}

func TestLogout(t *testing.T) {
	ctx := context.Background()
	accounts, _ := newAccounts(t)
	sessionID, err := accounts.Register(ctx, "alice", "secret1")
	require.NoError(t, err)

	require.NoError(t, accounts.Logout(ctx, sessionID))
	_, err = accounts.ResolveSession(ctx, sessionID)
	assert.ErrorIs(t, err, services.ErrSessionNotFound)

	_, err = accounts.ResolveSession(ctx, "")
	assert.ErrorIs(t, err, services.ErrSessionNotFound)
}
