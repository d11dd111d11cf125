package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/templui/secondbrain/internal/model"
	"github.com/templui/secondbrain/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

func TestRegister_StoresDigestOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user, err := env.auth.Register(ctx, "  Ada@Example.com ", testPassword, ptr(" Ada "))
	require.NoError(t, err)
	assert.Equal(t, "Ada@Example.com", user.Email, "email is trimmed but keeps its case")
	require.NotNil(t, user.Name)
	assert.Equal(t, "Ada", *user.Name)

	stored, err := env.users.ByID(ctx, user.ID)
	require.NoError(t, err)
	assert.NotEqual(t, testPassword, stored.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte(testPassword)))

	public := user.Public()
	assert.Equal(t, user.ID, public.ID)
	assert.Equal(t, user.Email, public.Email)
}

func TestRegister_Duplicate(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "ada@example.com")

	_, err := env.auth.Register(context.Background(), "ada@example.com", testPassword, nil)
	assert.ErrorIs(t, err, ErrDuplicateIdentity)

	// Email comparison is exact
	_, err = env.auth.Register(context.Background(), "ADA@example.com", testPassword, nil)
	assert.NoError(t, err)
}

// racingUserRepo reports no existing user, then loses the insert race.
type racingUserRepo struct {
	repository.UserRepository
}

func (racingUserRepo) ByEmail(context.Context, string) (*model.User, error) {
	return nil, repository.ErrUserNotFound
}

func (racingUserRepo) Create(context.Context, *model.User) error {
	return repository.ErrDuplicateEmail
}

func TestRegister_ConcurrentDuplicate(t *testing.T) {
	auth := NewAuthService(racingUserRepo{}, newTokenService(t), false)
	auth.bcryptCost = bcrypt.MinCost

	_, err := auth.Register(context.Background(), "ada@example.com", testPassword, nil)
	assert.ErrorIs(t, err, ErrDuplicateIdentity)
}

func TestRegister_Validation(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name     string
		email    string
		password string
		userName *string
		field    string
	}{
		{"bad email", "nope", testPassword, nil, "email"},
		{"short password", "a@example.com", "Ab1", nil, "password"},
		{"lowercase password", "a@example.com", "correcthorse9", nil, "password"},
		{"blank name", "a@example.com", testPassword, ptr("   "), "name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.auth.Register(context.Background(), tt.email, tt.password, tt.userName)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestVerify(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	registered := env.register(t, "ada@example.com")

	user, err := env.auth.Verify(ctx, "ada@example.com", testPassword)
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)

	_, err = env.auth.Verify(ctx, "ada@example.com", "WrongHorse9")
	assert.ErrorIs(t, err, ErrInvalidCredential)
	assert.NotErrorIs(t, err, ErrNotFound)

	_, err = env.auth.Verify(ctx, "nobody@example.com", testPassword)
	assert.ErrorIs(t, err, ErrNotFound)
}

type failingUserRepo struct {
	repository.UserRepository
}

func (failingUserRepo) ByEmail(context.Context, string) (*model.User, error) {
	return nil, errors.New("database is locked")
}

func TestVerify_StorageFailureIsInternal(t *testing.T) {
	auth := NewAuthService(failingUserRepo{}, newTokenService(t), false)

	_, err := auth.Verify(context.Background(), "ada@example.com", testPassword)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrInvalidCredential)
}

func TestSignInAndSignUp(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	session, err := env.auth.SignUp(ctx, "ada@example.com", testPassword, nil)
	require.NoError(t, err)

	subject, err := env.tokens.VerifyAccess(session.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, session.User.ID, subject)

	subject, err = env.tokens.VerifyRefresh(session.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, session.User.ID, subject)

	session, err = env.auth.SignIn(ctx, "ada@example.com", testPassword)
	require.NoError(t, err)
	assert.NotEmpty(t, session.AccessToken)

	_, err = env.auth.SignIn(ctx, "nobody@example.com", testPassword)
	assert.ErrorIs(t, err, ErrInvalidCredential)

	_, err = env.auth.SignIn(ctx, "ada@example.com", "WrongHorse9")
	assert.ErrorIs(t, err, ErrInvalidCredential)

	access, _, err := env.auth.Refresh(session.RefreshToken)
	require.NoError(t, err)
	_, err = env.tokens.VerifyAccess(access)
	assert.NoError(t, err)
}

func TestSessionCookies(t *testing.T) {
	env := newTestEnv(t)
	auth := NewAuthService(env.users, env.tokens, true)

	session, err := env.auth.SignUp(context.Background(), "ada@example.com", testPassword, nil)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	auth.SetSessionCookies(rec, session)

	cookies := map[string]*http.Cookie{}
	for _, c := range rec.Result().Cookies() {
		cookies[c.Name] = c
	}

	access := cookies[AccessCookieName]
	require.NotNil(t, access)
	assert.Equal(t, session.AccessToken, access.Value)
	assert.True(t, access.HttpOnly)
	assert.True(t, access.Secure)
	assert.Equal(t, http.SameSiteLaxMode, access.SameSite)
	assert.Equal(t, "/", access.Path)

	refresh := cookies[RefreshCookieName]
	require.NotNil(t, refresh)
	assert.Equal(t, session.RefreshToken, refresh.Value)
	assert.Equal(t, "/api/auth", refresh.Path)
	assert.True(t, refresh.HttpOnly)

	rec = httptest.NewRecorder()
	auth.ClearSessionCookies(rec)
	for _, c := range rec.Result().Cookies() {
		assert.Empty(t, c.Value)
		assert.Less(t, c.MaxAge, 0)
	}
	assert.Len(t, rec.Result().Cookies(), 2)
}
