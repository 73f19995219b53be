package dto

import (
	"time"

	"github.com/yukikurage/task-assignment-api/internal/models"
	"github.com/yukikurage/task-assignment-api/internal/optional"
	"github.com/yukikurage/task-assignment-api/internal/services"
)

// TaskDTO represents a task in API responses
type TaskDTO struct {
	ID          uint64            `json:"id"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	AssignedTo  []uint64          `json:"assigned_to"`
	Group       *uint64           `json:"group"`
	Status      models.TaskStatus `json:"status"`
	DueDate     *Date             `json:"due_date"`
	CreatedBy   *uint64           `json:"created_by"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// TaskRequest is the body of task create and partial update requests.
// Absent keys and explicit nulls are kept apart.
type TaskRequest struct {
	Title       optional.Field[string]            `json:"title"`
	Description optional.Field[string]            `json:"description"`
	Status      optional.Field[models.TaskStatus] `json:"status"`
	DueDate     optional.Field[Date]              `json:"due_date"`
	AssignedTo  optional.Field[[]uint64]          `json:"assigned_to"`
	Group       optional.Field[uint64]            `json:"group"`
}

// ToInput converts the request into service input
func (r TaskRequest) ToInput() services.TaskInput {
	return services.TaskInput{
		Title:       r.Title,
		Description: r.Description,
		Status:      r.Status,
		DueDate:     dateField(r.DueDate),
		AssignedTo:  r.AssignedTo,
		Group:       r.Group,
	}
}

// GenerateTasksRequest is the body of an AI task draft request
type GenerateTasksRequest struct {
	Text string `json:"text" binding:"required"`
}

// GeneratedTaskDTO is an AI task draft
type GeneratedTaskDTO struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	DueDate     *Date  `json:"due_date"`
}

// GroupDTO represents a task group in API responses
type GroupDTO struct {
	ID        uint64    `json:"id"`
	Name      string    `json:"name"`
	Members   []uint64  `json:"members"`
	CreatedBy *uint64   `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

// GroupRequest is the body of group create and update requests
type GroupRequest struct {
	Name    optional.Field[string]   `json:"name"`
	Members optional.Field[[]uint64] `json:"members"`
}

// ToInput converts the request into service input
func (r GroupRequest) ToInput() services.GroupInput {
	return services.GroupInput{Name: r.Name, Members: r.Members}
}

// Conversion functions

// ToTaskDTO converts a Task model to TaskDTO
func ToTaskDTO(task models.Task) TaskDTO {
	return TaskDTO{
		ID:          task.ID,
		Title:       task.Title,
		Description: task.Description,
		AssignedTo:  task.AssigneeIDs(),
		Group:       task.GroupID,
		Status:      task.Status,
		DueDate:     NewDate(task.DueDate),
		CreatedBy:   task.CreatorID,
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}
}

// ToTaskDTOs converts a slice of tasks
func ToTaskDTOs(tasks []models.Task) []TaskDTO {
	dtos := make([]TaskDTO, len(tasks))
	for i, task := range tasks {
		dtos[i] = ToTaskDTO(task)
	}
	return dtos
}

// ToGeneratedTaskDTOs converts AI drafts
func ToGeneratedTaskDTOs(tasks []services.GeneratedTask) []GeneratedTaskDTO {
	dtos := make([]GeneratedTaskDTO, len(tasks))
	for i, t := range tasks {
		dtos[i] = GeneratedTaskDTO{Title: t.Title, Description: t.Description, DueDate: NewDate(t.DueDate)}
	}
	return dtos
}

// ToGroupDTO converts a TaskGroup model to GroupDTO
func ToGroupDTO(group models.TaskGroup) GroupDTO {
	return GroupDTO{
		ID:        group.ID,
		Name:      group.Name,
		Members:   group.MemberIDs(),
		CreatedBy: group.CreatorID,
		CreatedAt: group.CreatedAt,
	}
}

// ToGroupDTOs converts a slice of groups
func ToGroupDTOs(groups []models.TaskGroup) []GroupDTO {
	dtos := make([]GroupDTO, len(groups))
	for i, g := range groups {
		dtos[i] = ToGroupDTO(g)
	}
	return dtos
}
