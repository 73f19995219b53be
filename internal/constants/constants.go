package constants

const (
	// ContextKeyUserID is the session and gin context key holding the authenticated user ID
	ContextKeyUserID = "user_id"
	// ContextKeyUser is the gin context key holding the authenticated *models.User
	ContextKeyUser = "user"
	// ContextKeyTokenClaims is the gin context key holding the access token claims, if any
	ContextKeyTokenClaims = "token_claims"

	SessionCookieName = "task_session"

	MinPasswordLength = 6

	MinPageSize     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100

	MaxAIGeneratedTasks = 20

	HeaderTotalCount = "X-Total-Count"
)
