package identity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUser(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		password string
		userName string
		role     Role
		wantErr  bool
		errCode  string
	}{
		{
			name:     "valid client",
			email:    "jane@example.com",
			password: "secret-pass-1",
			userName: "Jane Doe",
			role:     RoleClient,
		},
		{
			name:     "valid owner",
			email:    "owner@fleet.example",
			password: "secret-pass-1",
			userName: "Owner",
			role:     RoleOwner,
		},
		{
			name:     "email normalized to lowercase",
			email:    "  Jane@Example.COM ",
			password: "secret-pass-1",
			userName: "Jane",
			role:     RoleClient,
		},
		{
			name:     "empty email",
			email:    "",
			password: "secret-pass-1",
			userName: "Jane",
			role:     RoleClient,
			wantErr:  true,
			errCode:  "INVALID_EMAIL",
		},
		{
			name:     "malformed email",
			email:    "not-an-email",
			password: "secret-pass-1",
			userName: "Jane",
			role:     RoleClient,
			wantErr:  true,
			errCode:  "INVALID_EMAIL",
		},
		{
			name:     "short password",
			email:    "jane@example.com",
			password: "short",
			userName: "Jane",
			role:     RoleClient,
			wantErr:  true,
			errCode:  "INVALID_PASSWORD",
		},
		{
			name:     "unknown role",
			email:    "jane@example.com",
			password: "secret-pass-1",
			userName: "Jane",
			role:     Role("superuser"),
			wantErr:  true,
			errCode:  "INVALID_ROLE",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, err := NewUser(tt.email, tt.password, tt.userName, tt.role)

			if tt.wantErr {
				require.Error(t, err)
				assertDomainErrorCode(t, err, tt.errCode)
				return
			}

			require.NoError(t, err)
			assert.NotNil(t, user)
			assert.Equal(t, tt.role, user.Role)
			assert.Equal(t, UserStatusActive, user.Status)
			assert.Equal(t, 1, user.Version)
			assert.NotEqual(t, tt.password, user.PasswordHash)
			assert.True(t, user.VerifyPassword(tt.password))
		})
	}
}

func TestUser_ChangePassword(t *testing.T) {
	user, err := NewUser("jane@example.com", "original-pass", "Jane", RoleClient)
	require.NoError(t, err)

	t.Run("wrong old password rejected", func(t *testing.T) {
		err := user.ChangePassword("wrong-pass", "brand-new-pass")
		require.Error(t, err)
		assertDomainErrorCode(t, err, "INVALID_PASSWORD")
		assert.True(t, user.VerifyPassword("original-pass"))
	})

	t.Run("correct old password accepted", func(t *testing.T) {
		err := user.ChangePassword("original-pass", "brand-new-pass")
		require.NoError(t, err)
		assert.True(t, user.VerifyPassword("brand-new-pass"))
		assert.False(t, user.VerifyPassword("original-pass"))
	})
}

func TestUser_FailedLoginLockout(t *testing.T) {
	user, err := NewUser("jane@example.com", "secret-pass-1", "Jane", RoleClient)
	require.NoError(t, err)

	for i := 0; i < maxFailedAttempts-1; i++ {
		user.RecordFailedLogin()
		assert.False(t, user.IsLocked(), "attempt %d should not lock", i+1)
	}

	user.RecordFailedLogin()
	assert.True(t, user.IsLocked())
	assert.Equal(t, UserStatusLocked, user.Status)
	assert.False(t, user.CanLogin())

	t.Run("lock expires", func(t *testing.T) {
		past := time.Now().Add(-time.Minute)
		user.LockedUntil = &past
		assert.False(t, user.IsLocked())
		assert.True(t, user.CanLogin())
	})

	t.Run("successful login reactivates expired lock", func(t *testing.T) {
		user.RecordLogin()
		assert.Equal(t, 0, user.FailedAttempts)
		assert.Nil(t, user.LockedUntil)
		assert.Equal(t, UserStatusActive, user.Status)
		assert.False(t, user.IsLocked())
		assert.True(t, user.CanLogin())
	})
}

func TestRole(t *testing.T) {
	t.Run("valid roles", func(t *testing.T) {
		for _, role := range AllRoles() {
			assert.True(t, role.IsValid(), string(role))
		}
	})

	t.Run("unknown role invalid", func(t *testing.T) {
		assert.False(t, Role("root").IsValid())
		assert.False(t, Role("").IsValid())
	})

	t.Run("company staff", func(t *testing.T) {
		assert.True(t, RoleOwner.IsCompanyStaff())
		assert.True(t, RoleManager.IsCompanyStaff())
		assert.False(t, RoleAdmin.IsCompanyStaff())
		assert.False(t, RoleClient.IsCompanyStaff())
	})

	t.Run("one of", func(t *testing.T) {
		assert.True(t, RoleManager.OneOf(RoleOwner, RoleManager))
		assert.False(t, RoleClient.OneOf(RoleOwner, RoleManager))
	})
}
