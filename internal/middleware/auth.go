package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/task-assignment-api/internal/constants"
	apierrors "github.com/yukikurage/task-assignment-api/internal/errors"
	"github.com/yukikurage/task-assignment-api/internal/models"
	"github.com/yukikurage/task-assignment-api/internal/policy"
	"github.com/yukikurage/task-assignment-api/internal/services"
	"go.uber.org/zap"
)

// Authenticator resolves the user behind a bearer token or a session.
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (*models.User, *services.Claims, error)
	GetUser(ctx context.Context, id uint64) (*models.User, error)
}

// RequireAuth authenticates the request with a bearer access token, falling back to
// the session cookie set at login. The user is reloaded on every request so role
// changes apply immediately.
func RequireAuth(auth Authenticator, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		if token, ok := bearerToken(c); ok {
			user, claims, err := auth.Authenticate(ctx, token)
			if err != nil {
				if !errors.Is(err, services.ErrInvalidToken) {
					log.Errorw("failed to authenticate token", "error", err)
				}
				apierrors.Unauthorized(c, "Given token not valid for any token type")
				return
			}
			setUser(c, user)
			c.Set(constants.ContextKeyTokenClaims, claims)
			c.Next()
			return
		}

		session := sessions.Default(c)
		userID, ok := sessionUserID(session.Get(constants.ContextKeyUserID))
		if !ok {
			apierrors.Unauthorized(c, "")
			return
		}

		user, err := auth.GetUser(ctx, userID)
		if err != nil {
			if errors.Is(err, services.ErrUserNotFound) {
				session.Clear()
				_ = session.Save()
			} else {
				log.Errorw("failed to load session user", "error", err, "user_id", userID)
			}
			apierrors.Unauthorized(c, "")
			return
		}

		setUser(c, user)
		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", false
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func sessionUserID(v interface{}) (uint64, bool) {
	switch id := v.(type) {
	case uint64:
		return id, true
	case uint:
		return uint64(id), true
	case int:
		if id < 0 {
			return 0, false
		}
		return uint64(id), true
	case int64:
		if id < 0 {
			return 0, false
		}
		return uint64(id), true
	default:
		return 0, false
	}
}

func setUser(c *gin.Context, user *models.User) {
	c.Set(constants.ContextKeyUserID, user.ID)
	c.Set(constants.ContextKeyUser, user)
}

// GetUserID retrieves the current user ID from context
func GetUserID(c *gin.Context) (uint64, bool) {
	userID, exists := c.Get(constants.ContextKeyUserID)
	if !exists {
		return 0, false
	}
	return sessionUserID(userID)
}

// CurrentUser retrieves the authenticated user from context
func CurrentUser(c *gin.Context) (*models.User, bool) {
	v, exists := c.Get(constants.ContextKeyUser)
	if !exists {
		return nil, false
	}
	user, ok := v.(*models.User)
	return user, ok && user != nil
}

// CurrentActor returns the policy actor for the authenticated user
func CurrentActor(c *gin.Context) (policy.Actor, bool) {
	user, ok := CurrentUser(c)
	if !ok {
		return policy.Actor{}, false
	}
	return policy.ActorFromUser(user), true
}

// TokenClaims returns the access token claims when the request used a bearer token
func TokenClaims(c *gin.Context) *services.Claims {
	v, exists := c.Get(constants.ContextKeyTokenClaims)
	if !exists {
		return nil
	}
	claims, _ := v.(*services.Claims)
	return claims
}
