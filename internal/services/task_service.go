package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yukikurage/task-assignment-api/internal/assignment"
	"github.com/yukikurage/task-assignment-api/internal/constants"
	"github.com/yukikurage/task-assignment-api/internal/models"
	"github.com/yukikurage/task-assignment-api/internal/optional"
	"github.com/yukikurage/task-assignment-api/internal/policy"
	"github.com/yukikurage/task-assignment-api/internal/repository"
	"go.uber.org/zap"
)

const maxTitleLength = 255

// TaskService handles task business logic
type TaskService struct {
	store     repository.Store
	generator TaskGenerator
	log       *zap.SugaredLogger
}

// NewTaskService creates a new TaskService. generator may be nil when AI drafts are disabled.
func NewTaskService(store repository.Store, generator TaskGenerator, log *zap.SugaredLogger) *TaskService {
	return &TaskService{
		store:     store,
		generator: generator,
		log:       log,
	}
}

// TaskInput carries the fields of a create or partial update request.
type TaskInput struct {
	Title       optional.Field[string]
	Description optional.Field[string]
	Status      optional.Field[models.TaskStatus]
	DueDate     optional.Field[time.Time]
	AssignedTo  optional.Field[[]uint64]
	Group       optional.Field[uint64]
}

// Fields returns the names of the supplied fields, as used in request bodies.
func (in TaskInput) Fields() []string {
	var fields []string
	add := func(present bool, name string) {
		if present {
			fields = append(fields, name)
		}
	}
	add(in.Title.Present(), "title")
	add(in.Description.Present(), "description")
	add(in.Status.Present(), policy.FieldStatus)
	add(in.DueDate.Present(), "due_date")
	add(in.AssignedTo.Present(), "assigned_to")
	add(in.Group.Present(), "group")
	return fields
}

// ListTasksInput represents filters for listing tasks
type ListTasksInput struct {
	Status   *models.TaskStatus
	Page     int
	PageSize int
}

// ListTasks returns the tasks the actor may see
func (s *TaskService) ListTasks(ctx context.Context, actor policy.Actor, input ListTasksInput) ([]models.Task, int64, error) {
	if err := policy.Authorize(actor, policy.ActionListTasks, policy.Resource{}).Err(); err != nil {
		return nil, 0, err
	}

	if input.Status != nil && !input.Status.Valid() {
		return nil, 0, NewValidationError("status", fmt.Sprintf("%q is not a valid choice.", *input.Status))
	}

	filter := repository.TaskFilter{
		AssignedUserID: policy.VisibilityScope(actor),
		Status:         input.Status,
		Page:           input.Page,
		PageSize:       input.PageSize,
	}

	tasks, total, err := s.store.Tasks().List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tasks: %w", err)
	}

	return tasks, total, nil
}

// GetTask returns a task the actor may view
func (s *TaskService) GetTask(ctx context.Context, actor policy.Actor, taskID uint64) (*models.Task, error) {
	task, err := s.findTask(ctx, s.store, taskID)
	if err != nil {
		return nil, err
	}

	if err := policy.Authorize(actor, policy.ActionViewTask, policy.TaskResource(task)).Err(); err != nil {
		return nil, err
	}

	return task, nil
}

// CreateTask validates input, reconciles the assignee set, and stores the task with its links
func (s *TaskService) CreateTask(ctx context.Context, actor policy.Actor, input TaskInput) (*models.Task, error) {
	if err := policy.Authorize(actor, policy.ActionCreateTask, policy.Resource{}).Err(); err != nil {
		return nil, err
	}

	verr := &ValidationError{}
	title, ok := input.Title.Value()
	if !ok || strings.TrimSpace(title) == "" {
		verr.Add("title", "This field is required.")
	}
	validateTaskScalars(input, verr)
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	task := &models.Task{
		Title:       strings.TrimSpace(title),
		Description: input.Description.Or(""),
		Status:      input.Status.Or(models.TaskStatusTodo),
		CreatorID:   &actor.ID,
	}
	if task.Status == "" {
		task.Status = models.TaskStatusTodo
	}
	if due, ok := input.DueDate.Value(); ok {
		task.DueDate = &due
	}

	var created uint64
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		change, err := s.assignmentChange(ctx, tx, input)
		if err != nil {
			return err
		}

		snapshot, err := assignment.Apply(assignment.Snapshot{}, change)
		if err != nil {
			return unassignedError(err)
		}
		if snapshot.Group != nil {
			task.GroupID = &snapshot.Group.ID
		}

		if err := tx.Tasks().Create(ctx, task); err != nil {
			return fmt.Errorf("failed to create task: %w", err)
		}
		if err := tx.Tasks().ReplaceAssignees(ctx, task.ID, snapshot.AssigneeIDs); err != nil {
			return fmt.Errorf("failed to assign users to task: %w", err)
		}

		created = task.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Infow("task created", "task_id", created, "actor_id", actor.ID)
	return s.findTask(ctx, s.store, created)
}

// UpdateTask applies a partial update under a row lock on the task
func (s *TaskService) UpdateTask(ctx context.Context, actor policy.Actor, taskID uint64, input TaskInput) (*models.Task, error) {
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		task, err := tx.Tasks().FindByIDForUpdate(ctx, taskID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrTaskNotFound
			}
			return fmt.Errorf("failed to find task: %w", err)
		}

		decision := policy.Authorize(actor, policy.ActionUpdateTask, policy.TaskResource(task, input.Fields()...))
		if err := decision.Err(); err != nil {
			return err
		}

		verr := &ValidationError{}
		if input.Title.Present() {
			title, _ := input.Title.Value()
			if strings.TrimSpace(title) == "" {
				verr.Add("title", "This field may not be blank.")
			}
		}
		validateTaskScalars(input, verr)
		if err := verr.OrNil(); err != nil {
			return err
		}

		if input.AssignedTo.Present() || input.Group.Present() {
			change, err := s.assignmentChange(ctx, tx, input)
			if err != nil {
				return err
			}

			current, err := currentSnapshot(ctx, tx, task)
			if err != nil {
				return err
			}
			snapshot, err := assignment.Apply(current, change)
			if err != nil {
				return unassignedError(err)
			}

			task.GroupID = nil
			if snapshot.Group != nil {
				task.GroupID = &snapshot.Group.ID
			}
			if err := tx.Tasks().ReplaceAssignees(ctx, task.ID, snapshot.AssigneeIDs); err != nil {
				return fmt.Errorf("failed to update assignees: %w", err)
			}
		}

		if input.Title.Present() {
			task.Title = strings.TrimSpace(input.Title.Or(task.Title))
		}
		if input.Description.Present() {
			task.Description = input.Description.Or(task.Description)
		}
		if status, ok := input.Status.Value(); ok {
			task.Status = status
		}
		if input.DueDate.Present() {
			task.DueDate = nil
			if due, ok := input.DueDate.Value(); ok {
				task.DueDate = &due
			}
		}

		if err := tx.Tasks().Update(ctx, task); err != nil {
			return fmt.Errorf("failed to update task: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.findTask(ctx, s.store, taskID)
}

// DeleteTask deletes a task and its assignment links
func (s *TaskService) DeleteTask(ctx context.Context, actor policy.Actor, taskID uint64) error {
	if err := policy.Authorize(actor, policy.ActionDeleteTask, policy.Resource{}).Err(); err != nil {
		return err
	}

	if err := s.store.Tasks().Delete(ctx, taskID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrTaskNotFound
		}
		return fmt.Errorf("failed to delete task: %w", err)
	}

	s.log.Infow("task deleted", "task_id", taskID, "actor_id", actor.ID)
	return nil
}

// GenerateTasksInput represents input for AI task generation
type GenerateTasksInput struct {
	Text string
}

// GenerateTasks uses AI to draft tasks from text. Drafts are not persisted.
func (s *TaskService) GenerateTasks(ctx context.Context, actor policy.Actor, input GenerateTasksInput) ([]GeneratedTask, error) {
	if err := policy.Authorize(actor, policy.ActionGenerateTasks, policy.Resource{}).Err(); err != nil {
		return nil, err
	}

	if strings.TrimSpace(input.Text) == "" {
		return nil, NewValidationError("text", "This field is required.")
	}

	if s.generator == nil {
		return nil, ErrAIServiceNotConfigured
	}

	aiTasks, err := s.generator.GenerateTasksFromText(ctx, input.Text)
	if err != nil {
		return nil, fmt.Errorf("failed to generate tasks: %w", err)
	}

	if len(aiTasks) == 0 {
		return nil, ErrAINoTasksGenerated
	}
	if len(aiTasks) > constants.MaxAIGeneratedTasks {
		aiTasks = aiTasks[:constants.MaxAIGeneratedTasks]
	}

	validTasks := make([]GeneratedTask, 0, len(aiTasks))
	cutoff := time.Now().Add(-24 * time.Hour)
	for _, aiTask := range aiTasks {
		aiTask.Title = strings.TrimSpace(aiTask.Title)
		if aiTask.Title == "" || len(aiTask.Title) > maxTitleLength {
			continue
		}

		if aiTask.DueDate != nil && aiTask.DueDate.Before(cutoff) {
			aiTask.DueDate = nil
		}

		validTasks = append(validTasks, aiTask)
	}

	if len(validTasks) == 0 {
		return nil, ErrAINoValidTasks
	}

	return validTasks, nil
}

func (s *TaskService) findTask(ctx context.Context, store repository.Store, taskID uint64) (*models.Task, error) {
	task, err := store.Tasks().FindByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	return task, nil
}

// assignmentChange validates the assignment fields of input against the store and
// converts them into a reconciler change. Group membership is read through tx.
func (s *TaskService) assignmentChange(ctx context.Context, tx repository.Store, input TaskInput) (assignment.Change, error) {
	var change assignment.Change

	if input.AssignedTo.Present() {
		ids, _ := input.AssignedTo.Value()
		if err := ensureEmployees(ctx, tx, "assigned_to", ids); err != nil {
			return change, err
		}
		change.Assignees = optional.Of(ids)
	}

	if input.Group.Present() {
		groupID, ok := input.Group.Value()
		if !ok {
			change.Group = optional.Null[assignment.Group]()
		} else {
			group, err := tx.Groups().FindByID(ctx, groupID)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return change, NewValidationError("group", fmt.Sprintf("Invalid pk \"%d\" - object does not exist.", groupID))
				}
				return change, fmt.Errorf("failed to find group: %w", err)
			}
			members, err := employeeGroup(ctx, tx, group)
			if err != nil {
				return change, err
			}
			change.Group = optional.Of(members)
		}
	}

	return change, nil
}

// currentSnapshot is the persisted assignment state of a task loaded with its group.
func currentSnapshot(ctx context.Context, store repository.Store, task *models.Task) (assignment.Snapshot, error) {
	snapshot := assignment.Snapshot{AssigneeIDs: task.AssigneeIDs()}
	if task.GroupID != nil && task.Group != nil {
		group, err := employeeGroup(ctx, store, task.Group)
		if err != nil {
			return snapshot, err
		}
		snapshot.Group = &group
	}
	return snapshot, nil
}

// employeeGroup is the reconciler view of group: members who no longer hold
// the employee role are left out.
func employeeGroup(ctx context.Context, store repository.Store, group *models.TaskGroup) (assignment.Group, error) {
	employees, err := store.Users().FindEmployeesByIDs(ctx, group.MemberIDs())
	if err != nil {
		return assignment.Group{}, fmt.Errorf("failed to load group members: %w", err)
	}
	ids := make([]uint64, 0, len(employees))
	for _, u := range employees {
		ids = append(ids, u.ID)
	}
	return assignment.Group{ID: group.ID, MemberIDs: ids}, nil
}

func validateTaskScalars(input TaskInput, verr *ValidationError) {
	if title, ok := input.Title.Value(); ok && len(strings.TrimSpace(title)) > maxTitleLength {
		verr.Add("title", fmt.Sprintf("Ensure this field has no more than %d characters.", maxTitleLength))
	}
	if input.Title.IsNull() {
		verr.Add("title", "This field may not be null.")
	}
	if status, ok := input.Status.Value(); ok && !status.Valid() {
		verr.Add("status", fmt.Sprintf("%q is not a valid choice.", status))
	}
	if input.Status.IsNull() {
		verr.Add("status", "This field may not be null.")
	}
}

func unassignedError(err error) error {
	if errors.Is(err, assignment.ErrUnassigned) {
		return NewValidationError(NonFieldErrors, "Task must be assigned to at least one employee or a group.")
	}
	return err
}

// ensureEmployees rejects ids that do not name existing employee-role users.
func ensureEmployees(ctx context.Context, store repository.Store, field string, ids []uint64) error {
	if len(ids) == 0 {
		return nil
	}

	users, err := store.Users().FindEmployeesByIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("failed to verify users: %w", err)
	}

	found := make(map[uint64]struct{}, len(users))
	for _, u := range users {
		found[u.ID] = struct{}{}
	}
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			return NewValidationError(field, fmt.Sprintf("Invalid pk \"%d\" - object does not exist.", id))
		}
	}
	return nil
}
