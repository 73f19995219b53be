package services

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"github.com/yukikurage/task-assignment-api/internal/models"
	"github.com/yukikurage/task-assignment-api/internal/optional"
	"golang.org/x/crypto/bcrypt"
)

type mockMailer struct {
	mock.Mock
}

func (m *mockMailer) Send(ctx context.Context, msg Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

// AuthServiceTestSuite defines the test suite for AuthService
type AuthServiceTestSuite struct {
	serviceSuite
	tokens  *TokenService
	mailer  *mockMailer
	service *AuthService

	user *models.User
}

// SetupTest runs before each test
func (suite *AuthServiceTestSuite) SetupTest() {
	suite.serviceSuite.SetupTest()

	var err error
	suite.tokens, err = NewTokenService(testAuthConfig())
	suite.Require().NoError(err)
	suite.mailer = new(mockMailer)
	suite.service = NewAuthService(suite.store, suite.tokens, suite.mailer, testAuthConfig().PasswordResetURL, suite.log)

	suite.user = suite.createUser("alice", models.RoleManager)
}

func (suite *AuthServiceTestSuite) login() *LoginResult {
	result, err := suite.service.Login(suite.ctx, LoginInput{Username: "alice", Password: testPassword})
	suite.Require().NoError(err)
	return result
}

func (suite *AuthServiceTestSuite) TestLogin() {
	result := suite.login()
	suite.Equal(suite.user.ID, result.User.ID)

	claims, err := suite.tokens.Parse(result.Tokens.Access, TokenTypeAccess)
	suite.Require().NoError(err)
	suite.Equal(models.RoleManager, claims.Role)

	_, err = suite.service.Login(suite.ctx, LoginInput{Username: "alice", Password: "wrong"})
	suite.ErrorIs(err, ErrInvalidCredentials)
	_, err = suite.service.Login(suite.ctx, LoginInput{Username: "nobody", Password: testPassword})
	suite.ErrorIs(err, ErrInvalidCredentials)
}

func (suite *AuthServiceTestSuite) TestRefresh() {
	result := suite.login()

	access, err := suite.service.Refresh(suite.ctx, result.Tokens.Refresh)
	suite.Require().NoError(err)

	user, _, err := suite.service.Authenticate(suite.ctx, access)
	suite.Require().NoError(err)
	suite.Equal(suite.user.ID, user.ID)

	_, err = suite.service.Refresh(suite.ctx, result.Tokens.Access)
	suite.ErrorIs(err, ErrInvalidToken)
}

func (suite *AuthServiceTestSuite) TestLogoutBlacklistsBothTokens() {
	result := suite.login()
	_, claims, err := suite.service.Authenticate(suite.ctx, result.Tokens.Access)
	suite.Require().NoError(err)

	suite.Require().NoError(suite.service.Logout(suite.ctx, result.Tokens.Refresh, claims))

	_, err = suite.service.Refresh(suite.ctx, result.Tokens.Refresh)
	suite.ErrorIs(err, ErrInvalidToken)
	_, _, err = suite.service.Authenticate(suite.ctx, result.Tokens.Access)
	suite.ErrorIs(err, ErrInvalidToken)

	suite.ErrorIs(suite.service.Logout(suite.ctx, "not-a-token", nil), ErrInvalidToken)
}

func (suite *AuthServiceTestSuite) TestLogoutRejectsForeignRefreshToken() {
	other := suite.createUser("bob", models.RoleEmployee)
	pair, err := suite.tokens.IssuePair(other)
	suite.Require().NoError(err)

	_, claims, err := suite.service.Authenticate(suite.ctx, suite.login().Tokens.Access)
	suite.Require().NoError(err)

	suite.ErrorIs(suite.service.Logout(suite.ctx, pair.Refresh, claims), ErrInvalidToken)
}

func (suite *AuthServiceTestSuite) TestAuthenticate_DeletedUser() {
	result := suite.login()
	suite.Require().NoError(suite.store.Users().Delete(suite.ctx, suite.user.ID))

	_, _, err := suite.service.Authenticate(suite.ctx, result.Tokens.Access)
	suite.ErrorIs(err, ErrInvalidToken)
}

func (suite *AuthServiceTestSuite) TestPasswordResetFlow() {
	var sent Message
	suite.mailer.On("Send", mock.Anything, mock.MatchedBy(func(msg Message) bool {
		return msg.To == "alice@example.com"
	})).Run(func(args mock.Arguments) {
		sent = args.Get(1).(Message)
	}).Return(nil).Once()

	suite.Require().NoError(suite.service.RequestPasswordReset(suite.ctx, "ALICE@example.com"))
	suite.mailer.AssertExpectations(suite.T())

	link := sent.Body[strings.Index(sent.Body, "http"):]
	parsed, err := url.Parse(link)
	suite.Require().NoError(err)
	uid := parsed.Query().Get("uid")
	token := parsed.Query().Get("token")
	suite.Equal(EncodeUID(suite.user.ID), uid)

	err = suite.service.ConfirmPasswordReset(suite.ctx, ConfirmPasswordResetInput{UID: uid, Token: token, Password: "123"})
	suite.requireValidationField(err, "password")

	suite.Require().NoError(suite.service.ConfirmPasswordReset(suite.ctx, ConfirmPasswordResetInput{UID: uid, Token: token, Password: "brand-new"}))

	stored, err := suite.store.Users().FindByID(suite.ctx, suite.user.ID)
	suite.Require().NoError(err)
	suite.NoError(bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("brand-new")))

	// Single use
	err = suite.service.ConfirmPasswordReset(suite.ctx, ConfirmPasswordResetInput{UID: uid, Token: token, Password: "again-new"})
	suite.requireValidationField(err, "token")
}

func (suite *AuthServiceTestSuite) TestPasswordReset_UnknownEmailAndBadInput() {
	suite.NoError(suite.service.RequestPasswordReset(suite.ctx, "ghost@example.com"))
	suite.mailer.AssertNotCalled(suite.T(), "Send", mock.Anything, mock.Anything)

	suite.requireValidationField(suite.service.RequestPasswordReset(suite.ctx, "nope"), "email")

	err := suite.service.ConfirmPasswordReset(suite.ctx, ConfirmPasswordResetInput{UID: "@@", Token: "x", Password: "brand-new"})
	suite.requireValidationField(err, "uid")

	err = suite.service.ConfirmPasswordReset(suite.ctx, ConfirmPasswordResetInput{UID: EncodeUID(suite.user.ID), Token: "x", Password: "brand-new"})
	suite.requireValidationField(err, "token")
}

func (suite *AuthServiceTestSuite) TestPasswordReset_MailerFailureIsHidden() {
	suite.mailer.On("Send", mock.Anything, mock.Anything).Return(errors.New("smtp down")).Once()
	suite.NoError(suite.service.RequestPasswordReset(suite.ctx, "alice@example.com"))
}

func (suite *AuthServiceTestSuite) TestProfile() {
	superuser := suite.createSuperuser("root")

	profile, err := suite.service.Profile(suite.ctx, actorOf(superuser))
	suite.Require().NoError(err)
	suite.Equal(models.RoleAdmin, profile.Role)

	updated, err := suite.service.UpdateProfile(suite.ctx, actorOf(suite.user), UserInput{
		Department: optional.Of("Sales"),
		Role:       optional.Of(models.RoleAdmin),
	})
	suite.Require().NoError(err)
	suite.Equal("Sales", updated.Department)
	suite.Equal(models.RoleManager, updated.Role)
}

func TestAuthServiceTestSuite(t *testing.T) {
	suite.Run(t, new(AuthServiceTestSuite))
}
