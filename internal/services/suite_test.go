package services

import (
	"context"

	"github.com/stretchr/testify/suite"
	"github.com/yukikurage/task-assignment-api/internal/config"
	"github.com/yukikurage/task-assignment-api/internal/database"
	"github.com/yukikurage/task-assignment-api/internal/logger"
	"github.com/yukikurage/task-assignment-api/internal/models"
	"github.com/yukikurage/task-assignment-api/internal/policy"
	"github.com/yukikurage/task-assignment-api/internal/repository"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const testPassword = "password123"

// serviceSuite provides an in-memory SQLite store shared by the service suites
type serviceSuite struct {
	suite.Suite
	db    *gorm.DB
	store repository.Store
	log   *zap.SugaredLogger
	ctx   context.Context
}

// SetupTest runs before each test
func (suite *serviceSuite) SetupTest() {
	suite.log = logger.Nop()
	db, err := database.Connect(config.DatabaseConfig{Driver: "sqlite", DSN: ":memory:"}, gormlogger.Silent, suite.log)
	suite.Require().NoError(err)

	sqlDB, err := db.DB()
	suite.Require().NoError(err)
	sqlDB.SetMaxOpenConns(1)

	suite.Require().NoError(database.Migrate(db, suite.log))

	suite.db = db
	suite.store = repository.New(db)
	suite.ctx = context.Background()
}

// TearDownTest runs after each test
func (suite *serviceSuite) TearDownTest() {
	sqlDB, err := suite.db.DB()
	suite.Require().NoError(err)
	sqlDB.Close()
}

func (suite *serviceSuite) createUser(username string, role models.Role) *models.User {
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

func (suite *serviceSuite) createSuperuser(username string) *models.User {
	user := suite.createUser(username, models.RoleEmployee)
	user.IsSuperuser = true
	suite.Require().NoError(suite.db.Save(user).Error)
	return user
}

func (suite *serviceSuite) createGroup(name string, members ...uint64) *models.TaskGroup {
	group := &models.TaskGroup{Name: name}
	suite.Require().NoError(suite.store.Groups().Create(suite.ctx, group, members))
	return group
}

func actorOf(u *models.User) policy.Actor {
	return policy.ActorFromUser(u)
}

func (suite *serviceSuite) requireValidationField(err error, field string) {
	var verr *ValidationError
	suite.Require().ErrorAs(err, &verr)
	suite.Contains(verr.Fields, field)
}

func (suite *serviceSuite) requireForbidden(err error) {
	var forbidden *policy.ForbiddenError
	suite.Require().ErrorAs(err, &forbidden)
}
