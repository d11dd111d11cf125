package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// Claims is the session claim carried by both token kinds.
type Claims struct {
	jwt.RegisteredClaims
	Type string `json:"typ"`
}

// TokenService issues and verifies HS256 session tokens. Access and refresh
// tokens are signed with different secrets so one can never stand in for the other.
type TokenService struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	leeway        time.Duration
	now           func() time.Time
}

func NewTokenService(accessSecret, refreshSecret string, accessTTL, refreshTTL, leeway time.Duration) (*TokenService, error) {
	if accessSecret == "" || refreshSecret == "" {
		return nil, errors.New("token secrets must not be empty")
	}
	if accessSecret == refreshSecret {
		return nil, errors.New("access and refresh secrets must differ")
	}

	return &TokenService{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		leeway:        leeway,
		now:           time.Now,
	}, nil
}

// WithClock replaces the time source. Intended for tests.
func (s *TokenService) WithClock(now func() time.Time) *TokenService {
	s.now = now
	return s
}

func (s *TokenService) IssueAccessToken(subjectID string) (string, time.Time, error) {
	return s.issue(subjectID, tokenTypeAccess, s.accessSecret, s.accessTTL)
}

func (s *TokenService) IssueRefreshToken(subjectID string) (string, time.Time, error) {
	return s.issue(subjectID, tokenTypeRefresh, s.refreshSecret, s.refreshTTL)
}

func (s *TokenService) VerifyAccess(token string) (string, error) {
	return s.verify(token, tokenTypeAccess, s.accessSecret)
}

func (s *TokenService) VerifyRefresh(token string) (string, error) {
	return s.verify(token, tokenTypeRefresh, s.refreshSecret)
}

// Rotate exchanges a valid refresh token for a fresh access token.
// The refresh token itself stays valid until it expires.
func (s *TokenService) Rotate(refreshToken string) (string, time.Time, error) {
	subjectID, err := s.VerifyRefresh(refreshToken)
	if err != nil {
		return "", time.Time{}, err
	}
	return s.IssueAccessToken(subjectID)
}

func (s *TokenService) issue(subjectID, tokenType string, secret []byte, ttl time.Duration) (string, time.Time, error) {
	if subjectID == "" {
		return "", time.Time{}, errors.New("subject is required")
	}

	now := s.now()
	expiresAt := now.Add(ttl)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Type: tokenType,
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}

	return token, claims.ExpiresAt.Time, nil
}

func (s *TokenService) verify(token, tokenType string, secret []byte) (string, error) {
	if token == "" {
		return "", ErrTokenMissing
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(s.leeway),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	if !parsed.Valid || claims.Type != tokenType || claims.Subject == "" {
		return "", ErrTokenInvalid
	}

	return claims.Subject, nil
}
