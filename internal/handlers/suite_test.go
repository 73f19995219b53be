package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"
	"github.com/yukikurage/task-assignment-api/internal/config"
	"github.com/yukikurage/task-assignment-api/internal/database"
	"github.com/yukikurage/task-assignment-api/internal/dto"
	apierrors "github.com/yukikurage/task-assignment-api/internal/errors"
	"github.com/yukikurage/task-assignment-api/internal/logger"
	"github.com/yukikurage/task-assignment-api/internal/models"
	"github.com/yukikurage/task-assignment-api/internal/repository"
	"github.com/yukikurage/task-assignment-api/internal/services"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const testPassword = "password123"

// handlerSuite serves the full router over an in-memory SQLite store
type handlerSuite struct {
	suite.Suite
	db     *gorm.DB
	store  repository.Store
	tokens *services.TokenService
	router *gin.Engine
	ctx    context.Context
}

// SetupTest runs before each test
func (suite *handlerSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	log := logger.Nop()

	db, err := database.Connect(config.DatabaseConfig{Driver: "sqlite", DSN: ":memory:"}, gormlogger.Silent, log)
	suite.Require().NoError(err)
	sqlDB, err := db.DB()
	suite.Require().NoError(err)
	sqlDB.SetMaxOpenConns(1)
	suite.Require().NoError(database.Migrate(db, log))

	suite.tokens, err = services.NewTokenService(config.AuthConfig{
		JWTSecret:        "handler-test-secret-0123456789abcdef",
		AccessTokenTTL:   15 * time.Minute,
		RefreshTokenTTL:  24 * time.Hour,
		PasswordResetTTL: time.Hour,
		PasswordResetURL: "http://127.0.0.1:3000/reset-password",
	})
	suite.Require().NoError(err)

	suite.db = db
	suite.store = repository.New(db)
	suite.ctx = context.Background()

	svc := Services{
		Auth:   services.NewAuthService(suite.store, suite.tokens, services.NewLogMailer(log), "http://127.0.0.1:3000/reset-password", log),
		Users:  services.NewUserService(suite.store, log),
		Tasks:  services.NewTaskService(suite.store, nil, log),
		Groups: services.NewGroupService(suite.store, log),
	}
	suite.router = NewRouter(svc, cookie.NewStore([]byte("secret")), log)
}

// TearDownTest runs after each test
func (suite *handlerSuite) TearDownTest() {
	sqlDB, err := suite.db.DB()
	suite.Require().NoError(err)
	sqlDB.Close()
}

func (suite *handlerSuite) createUser(username string, role models.Role) *models.User {
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	suite.Require().NoError(err)

	user := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		Role:         role,
		PasswordHash: string(hash),
	}
	suite.Require().NoError(suite.db.Create(user).Error)
	return user
}

// tokenFor issues an access token without going through the login endpoint
func (suite *handlerSuite) tokenFor(user *models.User) string {
	token, err := suite.tokens.IssueAccess(user)
	suite.Require().NoError(err)
	return token
}

func (suite *handlerSuite) request(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		suite.Require().NoError(err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

// rawRequest sends a literal JSON body so explicit nulls survive
func (suite *handlerSuite) rawRequest(method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *handlerSuite) login(username, password string) *httptest.ResponseRecorder {
	return suite.request(http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": username,
		"password": password,
	})
}

func (suite *handlerSuite) decode(w *httptest.ResponseRecorder, v interface{}) {
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func (suite *handlerSuite) decodeError(w *httptest.ResponseRecorder) apierrors.APIError {
	var body apierrors.APIError
	suite.decode(w, &body)
	return body
}

func (suite *handlerSuite) createTask(token string, body interface{}) dto.TaskDTO {
	w := suite.request(http.MethodPost, "/api/tasks", token, body)
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		Message string      `json:"message"`
		Task    dto.TaskDTO `json:"task"`
	}
	suite.decode(w, &resp)
	return resp.Task
}
