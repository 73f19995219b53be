package services

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/yukikurage/task-assignment-api/internal/constants"
	"github.com/yukikurage/task-assignment-api/internal/models"
	"github.com/yukikurage/task-assignment-api/internal/optional"
	"github.com/yukikurage/task-assignment-api/internal/policy"
	"github.com/yukikurage/task-assignment-api/internal/repository"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// PasswordResetRequestedMessage is returned whether or not the email is registered.
const PasswordResetRequestedMessage = "If email exists, reset link sent"

// AuthService handles authentication related business logic.
type AuthService struct {
	store    repository.Store
	tokens   *TokenService
	mailer   Mailer
	resetURL string
	log      *zap.SugaredLogger
	timeFunc func() time.Time
}

// NewAuthService creates a new AuthService.
func NewAuthService(store repository.Store, tokens *TokenService, mailer Mailer, resetURL string, log *zap.SugaredLogger) *AuthService {
	return &AuthService{
		store:    store,
		tokens:   tokens,
		mailer:   mailer,
		resetURL: resetURL,
		log:      log,
		timeFunc: time.Now,
	}
}

// LoginInput holds the credentials for authentication.
type LoginInput struct {
	Username string
	Password string
}

// LoginResult is a token pair plus the authenticated user.
type LoginResult struct {
	Tokens TokenPair
	User   *models.User
}

// Login verifies credentials and issues a token pair.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	user, err := s.store.Users().FindByUsername(ctx, input.Username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	tokens, err := s.tokens.IssuePair(user)
	if err != nil {
		return nil, err
	}

	s.log.Infow("user logged in", "user_id", user.ID)
	return &LoginResult{Tokens: tokens, User: user}, nil
}

// Refresh exchanges a refresh token for a new access token.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.tokens.Parse(refreshToken, TokenTypeRefresh)
	if err != nil {
		return "", ErrInvalidToken
	}

	revoked, err := s.store.RevokedTokens().IsRevoked(ctx, claims.ID)
	if err != nil {
		return "", fmt.Errorf("failed to check token: %w", err)
	}
	if revoked {
		return "", ErrInvalidToken
	}

	user, err := s.store.Users().FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrInvalidToken
		}
		return "", fmt.Errorf("failed to find user: %w", err)
	}

	return s.tokens.IssueAccess(user)
}

// Logout blacklists the refresh token and, when given, the access token used for the
// request. Both must belong to the same user.
func (s *AuthService) Logout(ctx context.Context, refreshToken string, access *Claims) error {
	claims, err := s.tokens.Parse(refreshToken, TokenTypeRefresh)
	if err != nil {
		return ErrInvalidToken
	}
	if access != nil && access.UserID != claims.UserID {
		return ErrInvalidToken
	}

	revoked := s.store.RevokedTokens()
	if err := revoked.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		s.log.Errorw("failed to revoke refresh token", "error", err, "user_id", claims.UserID)
		return ErrInvalidToken
	}
	if access != nil && access.ExpiresAt != nil {
		if err := revoked.Revoke(ctx, access.ID, access.ExpiresAt.Time); err != nil {
			s.log.Errorw("failed to revoke access token", "error", err, "user_id", access.UserID)
			return ErrInvalidToken
		}
	}

	if n, err := revoked.PurgeExpired(ctx, s.timeFunc()); err != nil {
		s.log.Warnw("failed to purge expired revoked tokens", "error", err)
	} else if n > 0 {
		s.log.Debugw("purged expired revoked tokens", "count", n)
	}

	s.log.Infow("user logged out", "user_id", claims.UserID)
	return nil
}

// Authenticate resolves the user behind an access token.
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (*models.User, *Claims, error) {
	claims, err := s.tokens.Parse(accessToken, TokenTypeAccess)
	if err != nil {
		return nil, nil, ErrInvalidToken
	}

	revoked, err := s.store.RevokedTokens().IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to check token: %w", err)
	}
	if revoked {
		return nil, nil, ErrInvalidToken
	}

	user, err := s.GetUser(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, nil, ErrInvalidToken
		}
		return nil, nil, err
	}

	return user, claims, nil
}

// GetUser retrieves a user by ID.
func (s *AuthService) GetUser(ctx context.Context, id uint64) (*models.User, error) {
	return findUser(ctx, s.store, id)
}

// RequestPasswordReset mails a reset link when email belongs to a user. It reports
// success either way.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	if err := validate.Var(strings.TrimSpace(email), "required,email"); err != nil {
		return NewValidationError("email", "Enter a valid email address.")
	}

	user, err := s.store.Users().FindByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to find user: %w", err)
	}

	token, err := s.tokens.IssuePasswordReset(user)
	if err != nil {
		return err
	}

	link, err := s.resetLink(EncodeUID(user.ID), token)
	if err != nil {
		return err
	}

	msg := Message{
		To:      user.Email,
		Subject: "Password Reset",
		Body:    fmt.Sprintf("Click the link to reset your password: %s", link),
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		s.log.Errorw("failed to send password reset email", "error", err, "user_id", user.ID)
		return nil
	}

	s.log.Infow("password reset requested", "user_id", user.ID)
	return nil
}

// ConfirmPasswordResetInput holds the fields of a reset confirmation.
type ConfirmPasswordResetInput struct {
	UID      string
	Token    string
	Password string
}

// ConfirmPasswordReset sets a new password. The token stops working once it has been used.
func (s *AuthService) ConfirmPasswordReset(ctx context.Context, input ConfirmPasswordResetInput) error {
	if len(input.Password) < constants.MinPasswordLength {
		return NewValidationError("password", fmt.Sprintf("Ensure this field has at least %d characters.", constants.MinPasswordLength))
	}

	id, err := DecodeUID(input.UID)
	if err != nil {
		return NewValidationError("uid", "Invalid UID")
	}

	return s.store.Transaction(ctx, func(tx repository.Store) error {
		user, err := tx.Users().FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return NewValidationError("uid", "Invalid UID")
			}
			return fmt.Errorf("failed to find user: %w", err)
		}

		claims, err := s.tokens.Parse(input.Token, TokenTypePasswordReset)
		if err != nil || claims.UserID != user.ID || claims.Fingerprint != PasswordFingerprint(user.PasswordHash) {
			return NewValidationError("token", "Invalid or expired token")
		}

		hash, err := hashPassword(input.Password)
		if err != nil {
			return err
		}
		user.PasswordHash = hash
		if err := tx.Users().Update(ctx, user); err != nil {
			return fmt.Errorf("failed to update password: %w", err)
		}

		s.log.Infow("password reset completed", "user_id", user.ID)
		return nil
	})
}

// Profile returns the actor's own record. Superusers are reported with the admin role.
func (s *AuthService) Profile(ctx context.Context, actor policy.Actor) (*models.User, error) {
	if err := policy.Authorize(actor, policy.ActionViewProfile, policy.Resource{}).Err(); err != nil {
		return nil, err
	}

	user, err := findUser(ctx, s.store, actor.ID)
	if err != nil {
		return nil, err
	}
	if user.IsSuperuser {
		user.Role = models.RoleAdmin
	}
	return user, nil
}

// UpdateProfile applies a partial update to the actor's own record. Role cannot be changed here.
func (s *AuthService) UpdateProfile(ctx context.Context, actor policy.Actor, input UserInput) (*models.User, error) {
	if err := policy.Authorize(actor, policy.ActionUpdateProfile, policy.Resource{}).Err(); err != nil {
		return nil, err
	}
	input.Role = optional.Absent[models.Role]()

	var user *models.User
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		var err error
		user, err = findUser(ctx, tx, actor.ID)
		if err != nil {
			return err
		}
		if err := applyUserInput(ctx, tx, user, input); err != nil {
			return err
		}
		return tx.Users().Update(ctx, user)
	})
	if err != nil {
		return nil, err
	}

	if user.IsSuperuser {
		user.Role = models.RoleAdmin
	}
	return user, nil
}

func (s *AuthService) resetLink(uid, token string) (string, error) {
	u, err := url.Parse(s.resetURL)
	if err != nil {
		return "", fmt.Errorf("invalid password reset url: %w", err)
	}
	q := u.Query()
	q.Set("uid", uid)
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// EncodeUID encodes a user ID for use in a reset link.
func EncodeUID(id uint64) string {
	return base64.RawURLEncoding.EncodeToString([]byte(strconv.FormatUint(id, 10)))
}

// DecodeUID reverses EncodeUID.
func DecodeUID(uid string) (uint64, error) {
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(uid, "="))
	if err != nil {
		return 0, err
	}
	return strconv.ParseUint(string(raw), 10, 64)
}
