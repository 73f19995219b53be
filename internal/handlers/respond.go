package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	apierrors "github.com/yukikurage/task-assignment-api/internal/errors"
	"github.com/yukikurage/task-assignment-api/internal/middleware"
	"github.com/yukikurage/task-assignment-api/internal/policy"
	"github.com/yukikurage/task-assignment-api/internal/services"
	"go.uber.org/zap"
)

// respondError maps a service error onto the API error body. Unexpected errors are
// logged and reported without detail.
func respondError(c *gin.Context, log *zap.SugaredLogger, err error) {
	var verr *services.ValidationError
	var forbidden *policy.ForbiddenError

	switch {
	case errors.As(err, &verr):
		apierrors.BadRequestWithDetails(c, verr.Error(), verr.Fields)
	case errors.As(err, &forbidden):
		apierrors.Forbidden(c, forbidden.Reason)
	case errors.Is(err, services.ErrTaskNotFound),
		errors.Is(err, services.ErrGroupNotFound),
		errors.Is(err, services.ErrUserNotFound):
		apierrors.NotFound(c, "")
	case errors.Is(err, services.ErrInvalidCredentials):
		apierrors.InvalidCredentials(c)
	case errors.Is(err, services.ErrInvalidToken):
		apierrors.Unauthorized(c, "Invalid token")
	case errors.Is(err, services.ErrAIServiceNotConfigured):
		apierrors.ServiceUnavailable(c, "AI service is not configured")
	case errors.Is(err, services.ErrAINoTasksGenerated),
		errors.Is(err, services.ErrAINoValidTasks):
		apierrors.BadRequest(c, err.Error())
	default:
		log.Errorw("request failed", "error", err, "path", c.FullPath(), "request_id", c.GetString(middleware.HeaderXRequestID))
		apierrors.InternalError(c, "")
	}
}

// bindJSON binds the request body, answering 400 on malformed JSON
func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return false
	}
	return true
}

// currentActor returns the authenticated actor, answering 401 when there is none
func currentActor(c *gin.Context) (policy.Actor, bool) {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		apierrors.Unauthorized(c, "")
	}
	return actor, ok
}
