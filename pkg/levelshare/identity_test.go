package levelshare_test

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bect/levelshare/pkg/levelshare"
	"github.com/bect/levelshare/pkg/levelshare/repo/memory"
)

func newTestIdentity(t *testing.T, cfg levelshare.IdentityConfig) (levelshare.IdentityService, *memory.Repository) {
	t.Helper()
	repo := memory.New()
	if len(cfg.SigningKey) == 0 {
		cfg.SigningKey = []byte("test-signing-key")
	}
	svc, err := levelshare.NewIdentityService(repo, cfg)
	require.NoError(t, err)
	return svc, repo
}

func TestIdentityServiceCreation(t *testing.T) {
	repo := memory.New()

	_, err := levelshare.NewIdentityService(nil, levelshare.IdentityConfig{SigningKey: []byte("k")})
	assert.Error(t, err)

	_, err = levelshare.NewIdentityService(repo, levelshare.IdentityConfig{})
	assert.Error(t, err)

	svc, err := levelshare.NewIdentityService(repo, levelshare.IdentityConfig{SigningKey: []byte("k")})
	assert.NoError(t, err)
	assert.NotNil(t, svc)
}

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestIdentity(t, levelshare.IdentityConfig{})

	user, err := svc.Register(ctx, "alice", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, levelshare.RoleUser, user.Role)
	assert.NotEqual(t, "hunter2", user.CredentialHash)

	session, err := svc.Login(ctx, "alice", "hunter2")
	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)
	assert.Equal(t, "alice", session.Username)
	assert.Equal(t, levelshare.RoleUser, session.Role)
	assert.True(t, session.ExpiresAt.After(time.Now()))

	actor, err := svc.VerifySession(ctx, session.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, actor.UserID)
	assert.Equal(t, "alice", actor.Username)
	assert.False(t, actor.IsAdmin())
}

func TestRegisterValidation(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestIdentity(t, levelshare.IdentityConfig{})

	_, err := svc.Register(ctx, "", "pw")
	assert.ErrorIs(t, err, levelshare.ErrInvalidInput)

	_, err = svc.Register(ctx, "alice", "")
	assert.ErrorIs(t, err, levelshare.ErrInvalidInput)

	_, err = svc.Register(ctx, "alice", "pw")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "alice", "other")
	assert.ErrorIs(t, err, levelshare.ErrDuplicateUsername)
}

func TestLoginFailures(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestIdentity(t, levelshare.IdentityConfig{})

	_, err := svc.Register(ctx, "alice", "hunter2")
	require.NoError(t, err)

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Login(ctx, "alice", "wrong")
		assert.ErrorIs(t, err, levelshare.ErrInvalidCredential)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := svc.Login(ctx, "nobody", "hunter2")
		assert.ErrorIs(t, err, levelshare.ErrUserNotFound)
	})

	t.Run("deleted user", func(t *testing.T) {
		require.NoError(t, repo.DeleteUser(ctx, "alice"))
		_, err := svc.Login(ctx, "alice", "hunter2")
		assert.ErrorIs(t, err, levelshare.ErrUserNotFound)
	})
}

func TestVerifySessionRejectsBadTokens(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestIdentity(t, levelshare.IdentityConfig{SigningKey: []byte("real-key")})

	user, err := svc.Register(ctx, "alice", "hunter2")
	require.NoError(t, err)

	t.Run("empty token", func(t *testing.T) {
		_, err := svc.VerifySession(ctx, "")
		assert.ErrorIs(t, err, levelshare.ErrMissingToken)
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := svc.VerifySession(ctx, "not.a.jwt")
		assert.ErrorIs(t, err, levelshare.ErrInvalidToken)
	})

	t.Run("forged with wrong key", func(t *testing.T) {
		claims := jwt.MapClaims{
			"sub":      user.ID.String(),
			"username": "alice",
			"role":     "admin",
			"exp":      jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}
		forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("attacker-key"))
		require.NoError(t, err)

		_, err = svc.VerifySession(ctx, forged)
		assert.ErrorIs(t, err, levelshare.ErrInvalidToken)
	})

	t.Run("expired token", func(t *testing.T) {
		claims := jwt.MapClaims{
			"sub":      user.ID.String(),
			"username": "alice",
			"role":     "user",
			"exp":      jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		}
		expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("real-key"))
		require.NoError(t, err)

		_, err = svc.VerifySession(ctx, expired)
		assert.ErrorIs(t, err, levelshare.ErrInvalidToken)
	})
}

func TestElevateToAdmin(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestIdentity(t, levelshare.IdentityConfig{AdminKey: []byte("open-sesame")})

	user, err := svc.Register(ctx, "alice", "hunter2")
	require.NoError(t, err)
	actor := levelshare.Identity{UserID: user.ID, Username: "alice", Role: levelshare.RoleUser}

	t.Run("wrong key", func(t *testing.T) {
		_, err := svc.ElevateToAdmin(ctx, actor, "guess")
		assert.ErrorIs(t, err, levelshare.ErrForbidden)
	})

	t.Run("correct key issues admin session", func(t *testing.T) {
		session, err := svc.ElevateToAdmin(ctx, actor, "open-sesame")
		require.NoError(t, err)
		assert.Equal(t, levelshare.RoleAdmin, session.Role)

		elevated, err := svc.VerifySession(ctx, session.Token)
		require.NoError(t, err)
		assert.True(t, elevated.IsAdmin())
	})

	t.Run("login after elevation keeps admin role", func(t *testing.T) {
		session, err := svc.Login(ctx, "alice", "hunter2")
		require.NoError(t, err)
		assert.Equal(t, levelshare.RoleAdmin, session.Role)
	})
}

func TestElevateToAdminDisabledWithoutKey(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestIdentity(t, levelshare.IdentityConfig{})

	user, err := svc.Register(ctx, "alice", "hunter2")
	require.NoError(t, err)
	actor := levelshare.Identity{UserID: user.ID, Username: "alice", Role: levelshare.RoleUser}

	// No server-side key configured means elevation is off entirely, even
	// with an empty supplied key.
	_, err = svc.ElevateToAdmin(ctx, actor, "")
	assert.ErrorIs(t, err, levelshare.ErrForbidden)
}

func TestSessionTTL(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestIdentity(t, levelshare.IdentityConfig{TokenTTL: time.Minute})

	_, err := svc.Register(ctx, "alice", "hunter2")
	require.NoError(t, err)

	session, err := svc.Login(ctx, "alice", "hunter2")
	require.NoError(t, err)

	assert.WithinDuration(t, time.Now().Add(time.Minute), session.ExpiresAt, 5*time.Second)
}
