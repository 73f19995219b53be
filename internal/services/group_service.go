package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yukikurage/task-assignment-api/internal/models"
	"github.com/yukikurage/task-assignment-api/internal/optional"
	"github.com/yukikurage/task-assignment-api/internal/policy"
	"github.com/yukikurage/task-assignment-api/internal/repository"
	"go.uber.org/zap"
)

// GroupService handles task group business logic
type GroupService struct {
	store repository.Store
	log   *zap.SugaredLogger
}

// NewGroupService creates a new GroupService
func NewGroupService(store repository.Store, log *zap.SugaredLogger) *GroupService {
	return &GroupService{store: store, log: log}
}

// GroupInput carries the fields of a group write
type GroupInput struct {
	Name    optional.Field[string]
	Members optional.Field[[]uint64]
}

// ListGroups lists all groups
func (s *GroupService) ListGroups(ctx context.Context, actor policy.Actor) ([]models.TaskGroup, error) {
	if err := policy.Authorize(actor, policy.ActionListGroups, policy.Resource{}).Err(); err != nil {
		return nil, err
	}

	groups, err := s.store.Groups().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	return groups, nil
}

// GetGroup returns one group
func (s *GroupService) GetGroup(ctx context.Context, actor policy.Actor, groupID uint64) (*models.TaskGroup, error) {
	if err := policy.Authorize(actor, policy.ActionViewGroup, policy.Resource{}).Err(); err != nil {
		return nil, err
	}
	return s.findGroup(ctx, s.store, groupID)
}

// CreateGroup creates a group owned by the actor
func (s *GroupService) CreateGroup(ctx context.Context, actor policy.Actor, input GroupInput) (*models.TaskGroup, error) {
	if err := policy.Authorize(actor, policy.ActionCreateGroup, policy.Resource{}).Err(); err != nil {
		return nil, err
	}

	name, ok := input.Name.Value()
	if !ok || strings.TrimSpace(name) == "" {
		return nil, NewValidationError("name", "This field is required.")
	}
	if err := validateGroupName(name); err != nil {
		return nil, err
	}

	group := &models.TaskGroup{
		Name:      strings.TrimSpace(name),
		CreatorID: &actor.ID,
	}

	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		members, _ := input.Members.Value()
		if err := ensureEmployees(ctx, tx, "members", members); err != nil {
			return err
		}
		if err := tx.Groups().Create(ctx, group, members); err != nil {
			return fmt.Errorf("failed to create group: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Infow("group created", "group_id", group.ID, "actor_id", actor.ID)
	return s.findGroup(ctx, s.store, group.ID)
}

// UpdateGroup changes a group's name and membership. With partial unset, the name
// is required. Existing tasks keep the assignees they were reconciled with.
func (s *GroupService) UpdateGroup(ctx context.Context, actor policy.Actor, groupID uint64, input GroupInput, partial bool) (*models.TaskGroup, error) {
	if err := policy.Authorize(actor, policy.ActionUpdateGroup, policy.Resource{}).Err(); err != nil {
		return nil, err
	}

	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		group, err := s.findGroup(ctx, tx, groupID)
		if err != nil {
			return err
		}

		if input.Name.Present() || !partial {
			name, ok := input.Name.Value()
			if !ok || strings.TrimSpace(name) == "" {
				return NewValidationError("name", "This field is required.")
			}
			if err := validateGroupName(name); err != nil {
				return err
			}
			group.Name = strings.TrimSpace(name)
			if err := tx.Groups().Update(ctx, group); err != nil {
				return fmt.Errorf("failed to update group: %w", err)
			}
		}

		if input.Members.Present() {
			members, _ := input.Members.Value()
			if err := ensureEmployees(ctx, tx, "members", members); err != nil {
				return err
			}
			if err := tx.Groups().ReplaceMembers(ctx, group.ID, members); err != nil {
				return fmt.Errorf("failed to update group members: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.findGroup(ctx, s.store, groupID)
}

// DeleteGroup deletes a group. Tasks linked to it lose the link but keep their assignees.
// The delete is refused while the group is the only assignment of a task.
func (s *GroupService) DeleteGroup(ctx context.Context, actor policy.Actor, groupID uint64) error {
	if err := policy.Authorize(actor, policy.ActionDeleteGroup, policy.Resource{}).Err(); err != nil {
		return err
	}

	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		if _, err := s.findGroup(ctx, tx, groupID); err != nil {
			return err
		}

		// tasks assigned only through this group would be left without an assignee
		stranded, err := tx.Tasks().CountWithoutAssignees(ctx, groupID)
		if err != nil {
			return fmt.Errorf("failed to count group tasks: %w", err)
		}
		if stranded > 0 {
			return NewValidationError(NonFieldErrors, fmt.Sprintf(
				"Group is the only assignment of %d task(s). Reassign them before deleting the group.", stranded))
		}

		if err := tx.Groups().Delete(ctx, groupID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrGroupNotFound
			}
			return fmt.Errorf("failed to delete group: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.log.Infow("group deleted", "group_id", groupID, "actor_id", actor.ID)
	return nil
}

func (s *GroupService) findGroup(ctx context.Context, store repository.Store, groupID uint64) (*models.TaskGroup, error) {
	group, err := store.Groups().FindByID(ctx, groupID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrGroupNotFound
		}
		return nil, fmt.Errorf("failed to find group: %w", err)
	}
	return group, nil
}

func validateGroupName(name string) error {
	if len(strings.TrimSpace(name)) > maxTitleLength {
		return NewValidationError("name", fmt.Sprintf("Ensure this field has no more than %d characters.", maxTitleLength))
	}
	return nil
}
