package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"everpack/internal/core/apperror"
	"everpack/internal/core/id"
	"everpack/internal/core/security"
)

type userRepoMock struct {
	users map[id.ID]*User
}

func newUserRepoMock() *userRepoMock {
	return &userRepoMock{users: make(map[id.ID]*User)}
}

func (m *userRepoMock) Create(_ context.Context, user *User) error {
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *userRepoMock) GetByID(_ context.Context, userID id.ID) (*User, error) {
	u, ok := m.users[userID]
	if !ok {
		return nil, apperror.NewNotFound("user", userID.String())
	}
	cp := *u
	return &cp, nil
}

func (m *userRepoMock) GetByUsername(_ context.Context, username string) (*User, error) {
	for _, u := range m.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperror.NewNotFound("user", username)
}

func (m *userRepoMock) Update(_ context.Context, user *User) error {
	if _, ok := m.users[user.ID]; !ok {
		return apperror.NewNotFound("user", user.ID.String())
	}
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *userRepoMock) Delete(_ context.Context, userID id.ID) error {
	delete(m.users, userID)
	return nil
}

func (m *userRepoMock) List(_ context.Context, _ UserFilter) ([]User, int, error) {
	out := make([]User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, *u)
	}
	return out, len(out), nil
}

func (m *userRepoMock) UsernameExists(_ context.Context, username string) (bool, error) {
	for _, u := range m.users {
		if u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (m *userRepoMock) EmailExists(_ context.Context, email string) (bool, error) {
	for _, u := range m.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

type tokenRepoMock struct {
	byHash map[string]*RefreshToken
}

func newTokenRepoMock() *tokenRepoMock {
	return &tokenRepoMock{byHash: make(map[string]*RefreshToken)}
}

func (m *tokenRepoMock) SaveRefreshToken(_ context.Context, token *RefreshToken) error {
	cp := *token
	m.byHash[token.TokenHash] = &cp
	return nil
}

func (m *tokenRepoMock) GetRefreshToken(_ context.Context, tokenHash string) (*RefreshToken, error) {
	t, ok := m.byHash[tokenHash]
	if !ok {
		return nil, apperror.NewNotFound("refresh_token", tokenHash)
	}
	cp := *t
	return &cp, nil
}

func (m *tokenRepoMock) RevokeRefreshToken(_ context.Context, tokenID id.ID, reason string) error {
	for _, t := range m.byHash {
		if t.ID == tokenID {
			now := time.Now()
			t.RevokedAt = &now
			t.RevokedReason = reason
		}
	}
	return nil
}

func (m *tokenRepoMock) RevokeAllUserTokens(_ context.Context, userID id.ID, reason string) error {
	for _, t := range m.byHash {
		if t.UserID == userID && t.RevokedAt == nil {
			now := time.Now()
			t.RevokedAt = &now
			t.RevokedReason = reason
		}
	}
	return nil
}

func (m *tokenRepoMock) CleanupExpiredTokens(_ context.Context) (int, error) {
	n := 0
	for hash, t := range m.byHash {
		if time.Now().After(t.ExpiresAt) {
			delete(m.byHash, hash)
			n++
		}
	}
	return n, nil
}

func (m *tokenRepoMock) live(userID id.ID) int {
	n := 0
	for _, t := range m.byHash {
		if t.UserID == userID && t.IsValid() {
			n++
		}
	}
	return n
}

type authFixture struct {
	users  *userRepoMock
	tokens *tokenRepoMock
	svc    *Service
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	f := &authFixture{
		users:  newUserRepoMock(),
		tokens: newTokenRepoMock(),
	}
	jwtSvc := NewJWTService(DefaultJWTConfig("test-secret"))
	f.svc = NewService(f.users, f.tokens, jwtSvc, DefaultServiceConfig())
	return f
}

func (f *authFixture) addUser(t *testing.T, username, password string, role security.Role) *User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)

	u := NewUser(username, username+"@everpack.test", string(hash), role)
	require.NoError(t, f.users.Create(context.Background(), u))
	return u
}

func TestLogin(t *testing.T) {
	f := newAuthFixture(t)
	f.addUser(t, "kwame", "correct-horse", security.RoleSalesRep)

	tokens, user, err := f.svc.Login(context.Background(), Credentials{Username: "kwame", Password: "correct-horse"})
	require.NoError(t, err)

	assert.NotEmpty(t, tokens.AccessToken)
	assert.NotEmpty(t, tokens.RefreshToken)
	assert.Equal(t, "Bearer", tokens.TokenType)
	assert.Equal(t, "kwame", user.Username)

	stored := f.users.users[user.ID]
	assert.NotNil(t, stored.LastLoginAt)
	assert.Zero(t, stored.FailedLoginAttempts)
}

func TestLogin_WrongPassword(t *testing.T) {
	f := newAuthFixture(t)
	u := f.addUser(t, "kwame", "correct-horse", security.RoleSalesRep)

	_, _, err := f.svc.Login(context.Background(), Credentials{Username: "kwame", Password: "nope"})
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeUnauthorized, appErr.Code)
	assert.Equal(t, 1, f.users.users[u.ID].FailedLoginAttempts)
}

func TestLogin_UnknownUser(t *testing.T) {
	f := newAuthFixture(t)

	_, _, err := f.svc.Login(context.Background(), Credentials{Username: "ghost", Password: "whatever"})
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	// Same answer as a wrong password, no user enumeration.
	assert.Equal(t, apperror.CodeUnauthorized, appErr.Code)
}

func TestLogin_LockoutAfterRepeatedFailures(t *testing.T) {
	f := newAuthFixture(t)
	u := f.addUser(t, "kwame", "correct-horse", security.RoleSalesRep)

	for i := 0; i < 5; i++ {
		_, _, err := f.svc.Login(context.Background(), Credentials{Username: "kwame", Password: "nope"})
		require.Error(t, err)
	}

	require.NotNil(t, f.users.users[u.ID].LockedUntil)

	// The right password is also refused while the lock holds.
	_, _, err := f.svc.Login(context.Background(), Credentials{Username: "kwame", Password: "correct-horse"})
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeForbidden, appErr.Code)
}

func TestLogin_InactiveUser(t *testing.T) {
	f := newAuthFixture(t)
	u := f.addUser(t, "kwame", "correct-horse", security.RoleSalesRep)
	f.users.users[u.ID].IsActive = false

	_, _, err := f.svc.Login(context.Background(), Credentials{Username: "kwame", Password: "correct-horse"})
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeForbidden, appErr.Code)
}

func TestValidateToken_RoundTrip(t *testing.T) {
	f := newAuthFixture(t)
	u := f.addUser(t, "adwoa", "pw-long-enough", security.RoleManager)

	tokens, _, err := f.svc.Login(context.Background(), Credentials{Username: "adwoa", Password: "pw-long-enough"})
	require.NoError(t, err)

	jwtSvc := NewJWTService(DefaultJWTConfig("test-secret"))
	uc, err := jwtSvc.ValidateToken(tokens.AccessToken)
	require.NoError(t, err)

	assert.Equal(t, u.ID.String(), uc.UserID)
	assert.Equal(t, "adwoa", uc.Username)
	assert.Equal(t, string(security.RoleManager), uc.Role)
	assert.False(t, uc.IsAdmin)
	assert.Contains(t, uc.Permissions, security.PermReportsRead)
	assert.NotContains(t, uc.Permissions, "")
}

func TestValidateToken_AdminBypass(t *testing.T) {
	f := newAuthFixture(t)
	f.addUser(t, "owner", "pw-long-enough", security.RoleAdmin)

	tokens, _, err := f.svc.Login(context.Background(), Credentials{Username: "owner", Password: "pw-long-enough"})
	require.NoError(t, err)

	uc, err := NewJWTService(DefaultJWTConfig("test-secret")).ValidateToken(tokens.AccessToken)
	require.NoError(t, err)
	assert.True(t, uc.IsAdmin)
}

func TestValidateToken_WrongSecret(t *testing.T) {
	f := newAuthFixture(t)
	f.addUser(t, "kwame", "correct-horse", security.RoleSalesRep)

	tokens, _, err := f.svc.Login(context.Background(), Credentials{Username: "kwame", Password: "correct-horse"})
	require.NoError(t, err)

	_, err = NewJWTService(DefaultJWTConfig("other-secret")).ValidateToken(tokens.AccessToken)
	require.Error(t, err)
}

func TestRefreshToken_Rotates(t *testing.T) {
	f := newAuthFixture(t)
	u := f.addUser(t, "kwame", "correct-horse", security.RoleSalesRep)

	tokens, _, err := f.svc.Login(context.Background(), Credentials{Username: "kwame", Password: "correct-horse"})
	require.NoError(t, err)

	next, err := f.svc.RefreshToken(context.Background(), tokens.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, tokens.RefreshToken, next.RefreshToken)

	// The old token is spent.
	_, err = f.svc.RefreshToken(context.Background(), tokens.RefreshToken)
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeUnauthorized, appErr.Code)

	assert.Equal(t, 1, f.tokens.live(u.ID))
}

func TestLogout_RevokesAllTokens(t *testing.T) {
	f := newAuthFixture(t)
	u := f.addUser(t, "kwame", "correct-horse", security.RoleSalesRep)

	for i := 0; i < 3; i++ {
		_, _, err := f.svc.Login(context.Background(), Credentials{Username: "kwame", Password: "correct-horse"})
		require.NoError(t, err)
	}
	require.Equal(t, 3, f.tokens.live(u.ID))

	require.NoError(t, f.svc.Logout(context.Background(), u.ID))
	assert.Zero(t, f.tokens.live(u.ID))
}

func TestCreateUser(t *testing.T) {
	f := newAuthFixture(t)

	user, err := f.svc.CreateUser(context.Background(), CreateUserRequest{
		Username: "ama",
		Email:    "ama@everpack.test",
		Password: "long-enough-pw",
		Role:     security.RoleSalesRep,
	})
	require.NoError(t, err)

	assert.True(t, user.IsActive)
	assert.NotEqual(t, "long-enough-pw", user.PasswordHash)

	_, _, err = f.svc.Login(context.Background(), Credentials{Username: "ama", Password: "long-enough-pw"})
	require.NoError(t, err)
}

func TestCreateUser_Validation(t *testing.T) {
	f := newAuthFixture(t)
	f.addUser(t, "ama", "long-enough-pw", security.RoleSalesRep)

	tests := []struct {
		name string
		req  CreateUserRequest
		code string
	}{
		{
			name: "missing username",
			req:  CreateUserRequest{Password: "long-enough-pw", Role: security.RoleSalesRep},
			code: apperror.CodeValidation,
		},
		{
			name: "short password",
			req:  CreateUserRequest{Username: "kofi", Password: "short", Role: security.RoleSalesRep},
			code: apperror.CodeValidation,
		},
		{
			name: "bad role",
			req:  CreateUserRequest{Username: "kofi", Password: "long-enough-pw", Role: "superuser"},
			code: apperror.CodeValidation,
		},
		{
			name: "duplicate username",
			req:  CreateUserRequest{Username: "ama", Password: "long-enough-pw", Role: security.RoleSalesRep},
			code: apperror.CodeConflict,
		},
		{
			name: "duplicate email",
			req:  CreateUserRequest{Username: "kofi", Email: "ama@everpack.test", Password: "long-enough-pw", Role: security.RoleSalesRep},
			code: apperror.CodeConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.CreateUser(context.Background(), tt.req)
			require.Error(t, err)

			appErr, ok := apperror.AsAppError(err)
			require.True(t, ok)
			assert.Equal(t, tt.code, appErr.Code)
		})
	}
}

func TestUpdateUser_DeactivationRevokesTokens(t *testing.T) {
	f := newAuthFixture(t)
	u := f.addUser(t, "kwame", "correct-horse", security.RoleSalesRep)

	_, _, err := f.svc.Login(context.Background(), Credentials{Username: "kwame", Password: "correct-horse"})
	require.NoError(t, err)
	require.Equal(t, 1, f.tokens.live(u.ID))

	inactive := false
	updated, err := f.svc.UpdateUser(context.Background(), u.ID, UpdateUserRequest{IsActive: &inactive})
	require.NoError(t, err)

	assert.False(t, updated.IsActive)
	assert.Zero(t, f.tokens.live(u.ID))
}

func TestChangePassword(t *testing.T) {
	f := newAuthFixture(t)
	u := f.addUser(t, "kwame", "correct-horse", security.RoleSalesRep)

	_, _, err := f.svc.Login(context.Background(), Credentials{Username: "kwame", Password: "correct-horse"})
	require.NoError(t, err)

	err = f.svc.ChangePassword(context.Background(), u.ID, "correct-horse", "new-long-enough")
	require.NoError(t, err)

	// Old sessions are out, new password is in.
	assert.Zero(t, f.tokens.live(u.ID))
	_, _, err = f.svc.Login(context.Background(), Credentials{Username: "kwame", Password: "new-long-enough"})
	require.NoError(t, err)
}

func TestChangePassword_WrongCurrent(t *testing.T) {
	f := newAuthFixture(t)
	u := f.addUser(t, "kwame", "correct-horse", security.RoleSalesRep)

	err := f.svc.ChangePassword(context.Background(), u.ID, "nope", "new-long-enough")
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeUnauthorized, appErr.Code)
}
