package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/templui/secondbrain/internal/model"
	"github.com/templui/secondbrain/internal/repository"
	"github.com/templui/secondbrain/internal/validation"
	"golang.org/x/crypto/bcrypt"
)

const (
	AccessCookieName  = "access_token"
	RefreshCookieName = "refresh_token"

	// The refresh cookie is only sent to the auth endpoints.
	refreshCookiePath = "/api/auth"
)

// Session is the token pair handed out on sign-in and sign-up.
type Session struct {
	User             *model.User
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}

type AuthService struct {
	userRepository repository.UserRepository
	tokens         *TokenService
	secureCookies  bool
	bcryptCost     int

	dummyOnce sync.Once
	dummyHash []byte
}

func NewAuthService(userRepository repository.UserRepository, tokens *TokenService, secureCookies bool) *AuthService {
	return &AuthService{
		userRepository: userRepository,
		tokens:         tokens,
		secureCookies:  secureCookies,
		bcryptCost:     bcrypt.DefaultCost,
	}
}

// WithBcryptCost overrides the hashing cost. Tests use bcrypt.MinCost.
func (s *AuthService) WithBcryptCost(cost int) *AuthService {
	s.bcryptCost = cost
	return s
}

// Register creates an identity record holding only the bcrypt digest of password.
func (s *AuthService) Register(ctx context.Context, email, password string, name *string) (*model.User, error) {
	email = strings.TrimSpace(email)

	err := validation.ValidateEmail(email)
	if err != nil {
		return nil, invalid("email", err)
	}

	err = validation.ValidatePassword(password)
	if err != nil {
		return nil, invalid("password", err)
	}

	if name != nil {
		trimmed := strings.TrimSpace(*name)
		err = validation.ValidateName(trimmed)
		if err != nil {
			return nil, invalid("name", err)
		}
		name = &trimmed
	}

	_, err = s.userRepository.ByEmail(ctx, email)
	if err == nil {
		return nil, ErrDuplicateIdentity
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	hash, err := s.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &model.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: hash,
		Name:         name,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = s.userRepository.Create(ctx, user)
	if err != nil {
		// Lost a race with a concurrent signup for the same email
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrDuplicateIdentity
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	slog.Info("user registered", "user_id", user.ID)
	return user, nil
}

// Verify checks a credential pair. Unknown emails yield ErrNotFound,
// a wrong password yields ErrInvalidCredential.
func (s *AuthService) Verify(ctx context.Context, email, password string) (*model.User, error) {
	email = strings.TrimSpace(email)

	user, err := s.userRepository.ByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			// Burn the same bcrypt work as a real comparison
			_ = bcrypt.CompareHashAndPassword(s.dummy(), []byte(password))
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	err = s.ComparePassword(password, user.PasswordHash)
	if err != nil {
		return nil, ErrInvalidCredential
	}

	return user, nil
}

func (s *AuthService) SignUp(ctx context.Context, email, password string, name *string) (*Session, error) {
	user, err := s.Register(ctx, email, password, name)
	if err != nil {
		return nil, err
	}
	return s.newSession(user)
}

// SignIn verifies credentials and issues a token pair. An unknown email is
// reported as ErrInvalidCredential so callers cannot probe for accounts.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.Verify(ctx, email, password)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredential
		}
		return nil, err
	}
	return s.newSession(user)
}

// Refresh trades a refresh token for a new access token.
func (s *AuthService) Refresh(refreshToken string) (string, time.Time, error) {
	return s.tokens.Rotate(refreshToken)
}

func (s *AuthService) newSession(user *model.User) (*Session, error) {
	access, accessExp, err := s.tokens.IssueAccessToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue access token: %w", err)
	}

	refresh, refreshExp, err := s.tokens.IssueRefreshToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue refresh token: %w", err)
	}

	return &Session{
		User:             user,
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshExp,
	}, nil
}

func (s *AuthService) HashPassword(password string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hashedBytes), nil
}

func (s *AuthService) ComparePassword(password, hash string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

func (s *AuthService) dummy() []byte {
	s.dummyOnce.Do(func() {
		hash, err := bcrypt.GenerateFromPassword([]byte(uuid.New().String()), s.bcryptCost)
		if err != nil {
			slog.Error("failed to generate dummy hash", "error", err)
			return
		}
		s.dummyHash = hash
	})
	return s.dummyHash
}

func (s *AuthService) SetSessionCookies(w http.ResponseWriter, session *Session) {
	s.SetAccessCookie(w, session.AccessToken, session.AccessExpiresAt)
	http.SetCookie(w, s.cookie(RefreshCookieName, session.RefreshToken, refreshCookiePath, session.RefreshExpiresAt))
}

func (s *AuthService) SetAccessCookie(w http.ResponseWriter, token string, expiry time.Time) {
	http.SetCookie(w, s.cookie(AccessCookieName, token, "/", expiry))
}

func (s *AuthService) ClearSessionCookies(w http.ResponseWriter) {
	http.SetCookie(w, s.cookie(AccessCookieName, "", "/", time.Unix(0, 0)))
	http.SetCookie(w, s.cookie(RefreshCookieName, "", refreshCookiePath, time.Unix(0, 0)))
}

func (s *AuthService) cookie(name, value, path string, expiry time.Time) *http.Cookie {
	c := &http.Cookie{
		Name:     name,
		Value:    value,
		Expires:  expiry,
		Path:     path,
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteLaxMode,
	}
	if value == "" {
		c.MaxAge = -1
	}
	return c
}
