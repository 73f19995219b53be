package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/task-assignment-api/internal/dto"
	"github.com/yukikurage/task-assignment-api/internal/middleware"
	"github.com/yukikurage/task-assignment-api/internal/services"
	"go.uber.org/zap"
)

// GroupHandler serves the task group endpoints
type GroupHandler struct {
	groups *services.GroupService
	log    *zap.SugaredLogger
}

// NewGroupHandler creates a new GroupHandler
func NewGroupHandler(groups *services.GroupService, log *zap.SugaredLogger) *GroupHandler {
	return &GroupHandler{groups: groups, log: log}
}

// ListGroups lists all groups
// GET /api/groups
func (h *GroupHandler) ListGroups(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	groups, err := h.groups.ListGroups(c.Request.Context(), actor)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToGroupDTOs(groups))
}

// GetGroup returns one group
// GET /api/groups/:id
func (h *GroupHandler) GetGroup(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	group, err := h.groups.GetGroup(c.Request.Context(), actor, middleware.IDParam(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToGroupDTO(*group))
}

// CreateGroup creates a group owned by the current user
// POST /api/groups
func (h *GroupHandler) CreateGroup(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req dto.GroupRequest
	if !bindJSON(c, &req) {
		return
	}

	group, err := h.groups.CreateGroup(c.Request.Context(), actor, req.ToInput())
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToGroupDTO(*group))
}

// UpdateGroup replaces a group (PUT) or patches it (PATCH)
// PUT|PATCH /api/groups/:id
func (h *GroupHandler) UpdateGroup(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req dto.GroupRequest
	if !bindJSON(c, &req) {
		return
	}

	partial := c.Request.Method == http.MethodPatch
	group, err := h.groups.UpdateGroup(c.Request.Context(), actor, middleware.IDParam(c), req.ToInput(), partial)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToGroupDTO(*group))
}

// DeleteGroup deletes a group
// DELETE /api/groups/:id
func (h *GroupHandler) DeleteGroup(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	if err := h.groups.DeleteGroup(c.Request.Context(), actor, middleware.IDParam(c)); err != nil {
		respondError(c, h.log, err)
		return
	}

	c.Status(http.StatusNoContent)
}
