package services

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/yukikurage/task-assignment-api/internal/config"
	"github.com/yukikurage/task-assignment-api/internal/models"
)

// TokenType distinguishes the purposes a signed token can be presented for.
type TokenType string

const (
	TokenTypeAccess        TokenType = "access"
	TokenTypeRefresh       TokenType = "refresh"
	TokenTypePasswordReset TokenType = "password_reset"
)

// Claims is the payload of every token issued by TokenService.
type Claims struct {
	UserID      uint64      `json:"uid"`
	Role        models.Role `json:"role,omitempty"`
	IsSuperuser bool        `json:"is_superuser,omitempty"`
	Type        TokenType   `json:"type"`
	// Fingerprint binds a password reset token to the password hash it was issued against.
	Fingerprint string `json:"fp,omitempty"`
	jwt.RegisteredClaims
}

// TokenPair is the result of a successful login.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// TokenService signs and verifies HMAC-SHA256 JWTs.
type TokenService struct {
	signingKey []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	resetTTL   time.Duration
	clockSkew  time.Duration
	timeFunc   func() time.Time
}

// NewTokenService creates a TokenService from the auth configuration.
func NewTokenService(cfg config.AuthConfig) (*TokenService, error) {
	if len(cfg.JWTSecret) < 32 {
		return nil, fmt.Errorf("jwt secret must be at least 32 characters")
	}

	return &TokenService{
		signingKey: []byte(cfg.JWTSecret),
		accessTTL:  cfg.AccessTokenTTL,
		refreshTTL: cfg.RefreshTokenTTL,
		resetTTL:   cfg.PasswordResetTTL,
		clockSkew:  30 * time.Second,
		timeFunc:   time.Now,
	}, nil
}

// IssuePair issues an access and a refresh token for user.
func (s *TokenService) IssuePair(user *models.User) (TokenPair, error) {
	access, err := s.IssueAccess(user)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := s.sign(s.userClaims(user, TokenTypeRefresh, s.refreshTTL))
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{Access: access, Refresh: refresh}, nil
}

// IssueAccess issues an access token carrying the user's role claims.
func (s *TokenService) IssueAccess(user *models.User) (string, error) {
	return s.sign(s.userClaims(user, TokenTypeAccess, s.accessTTL))
}

// IssuePasswordReset issues a reset token that stops verifying once the user's
// password hash changes.
func (s *TokenService) IssuePasswordReset(user *models.User) (string, error) {
	now := s.timeFunc()
	claims := Claims{
		UserID:      user.ID,
		Type:        TokenTypePasswordReset,
		Fingerprint: PasswordFingerprint(user.PasswordHash),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprint(user.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.resetTTL)),
			ID:        uuid.New().String(),
		},
	}
	return s.sign(claims)
}

func (s *TokenService) userClaims(user *models.User, typ TokenType, ttl time.Duration) Claims {
	now := s.timeFunc()
	return Claims{
		UserID:      user.ID,
		Role:        user.Role,
		IsSuperuser: user.IsSuperuser,
		Type:        typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprint(user.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.New().String(),
		},
	}
}

func (s *TokenService) sign(claims Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign %s token: %w", claims.Type, err)
	}
	return signed, nil
}

// Parse verifies tokenString and checks that it is of type want.
// Every failure is reported as ErrInvalidToken.
func (s *TokenService) Parse(tokenString string, want TokenType) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return s.signingKey, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithLeeway(s.clockSkew),
		jwt.WithTimeFunc(s.timeFunc),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: expired", ErrInvalidToken)
		}
		return nil, ErrInvalidToken
	}
	if !token.Valid || claims.Type != want || claims.ID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// PasswordFingerprint returns a short digest of a password hash.
func PasswordFingerprint(passwordHash string) string {
	sum := sha256.Sum256([]byte(passwordHash))
	return hex.EncodeToString(sum[:8])
}
