package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/task-assignment-api/internal/constants"
	"github.com/yukikurage/task-assignment-api/internal/logger"
	"github.com/yukikurage/task-assignment-api/internal/models"
	"github.com/yukikurage/task-assignment-api/internal/services"
)

type mockAuthenticator struct {
	mock.Mock
}

func (m *mockAuthenticator) Authenticate(ctx context.Context, accessToken string) (*models.User, *services.Claims, error) {
	args := m.Called(ctx, accessToken)
	user, _ := args.Get(0).(*models.User)
	claims, _ := args.Get(1).(*services.Claims)
	return user, claims, args.Error(2)
}

func (m *mockAuthenticator) GetUser(ctx context.Context, id uint64) (*models.User, error) {
	args := m.Called(ctx, id)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func newAuthRouter(auth Authenticator) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(sessions.Sessions(constants.SessionCookieName, cookie.NewStore([]byte("secret"))))
	r.GET("/login/:id", func(c *gin.Context) {
		session := sessions.Default(c)
		session.Set(constants.ContextKeyUserID, uint64(7))
		_ = session.Save()
		c.Status(http.StatusOK)
	})
	r.GET("/me", RequireAuth(auth, logger.Nop()), func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		actor, _ := CurrentActor(c)
		c.JSON(http.StatusOK, gin.H{
			"id":         user.ID,
			"role":       actor.Role,
			"has_claims": TokenClaims(c) != nil,
		})
	})
	return r
}

func TestRequireAuth_BearerToken(t *testing.T) {
	auth := new(mockAuthenticator)
	user := &models.User{ID: 3, Role: models.RoleManager}
	auth.On("Authenticate", mock.Anything, "good-token").Return(user, &services.Claims{UserID: 3}, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	newAuthRouter(auth).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":3,"role":"manager","has_claims":true}`, w.Body.String())
	auth.AssertExpectations(t)
}

func TestRequireAuth_InvalidBearerToken(t *testing.T) {
	auth := new(mockAuthenticator)
	auth.On("Authenticate", mock.Anything, "bad-token").Return(nil, nil, services.ErrInvalidToken)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer bad-token")
	newAuthRouter(auth).ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	auth.AssertNotCalled(t, "GetUser", mock.Anything, mock.Anything)
}

func TestRequireAuth_NoCredentials(t *testing.T) {
	auth := new(mockAuthenticator)

	w := httptest.NewRecorder()
	newAuthRouter(auth).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	auth.AssertNotCalled(t, "Authenticate", mock.Anything, mock.Anything)

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Basic abc")
	newAuthRouter(auth).ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func sessionCookies(t *testing.T, r *gin.Engine) []*http.Cookie {
	t.Helper()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/login/7", nil))
	require.Equal(t, http.StatusOK, w.Code)
	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)
	return cookies
}

func TestRequireAuth_Session(t *testing.T) {
	auth := new(mockAuthenticator)
	auth.On("GetUser", mock.Anything, uint64(7)).Return(&models.User{ID: 7, Role: models.RoleEmployee}, nil)
	r := newAuthRouter(auth)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	for _, c := range sessionCookies(t, r) {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":7,"role":"employee","has_claims":false}`, w.Body.String())
}

func TestRequireAuth_SessionUserGone(t *testing.T) {
	auth := new(mockAuthenticator)
	auth.On("GetUser", mock.Anything, uint64(7)).Return(nil, services.ErrUserNotFound)
	r := newAuthRouter(auth)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	for _, c := range sessionCookies(t, r) {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAuth_LookupFailure(t *testing.T) {
	auth := new(mockAuthenticator)
	auth.On("GetUser", mock.Anything, uint64(7)).Return(nil, errors.New("connection reset"))
	r := newAuthRouter(auth)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	for _, c := range sessionCookies(t, r) {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireIDParam(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/items/:id", RequireIDParam(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": IDParam(c)})
	})

	tests := []struct {
		path string
		code int
	}{
		{"/items/42", http.StatusOK},
		{"/items/0", http.StatusNotFound},
		{"/items/-1", http.StatusNotFound},
		{"/items/abc", http.StatusNotFound},
	}
	for _, tt := range tests {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))
		assert.Equal(t, tt.code, w.Code, tt.path)
	}
}

func TestRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID(), RequestLogger(logger.Nop()))
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(HeaderXRequestID)) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.NotEmpty(t, w.Header().Get(HeaderXRequestID))
	assert.Equal(t, w.Header().Get(HeaderXRequestID), w.Body.String())

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(HeaderXRequestID, "abc-123")
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Body.String())
}
