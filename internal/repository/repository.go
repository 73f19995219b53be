package repository

import (
	"context"
	"errors"
	"time"

	"github.com/yukikurage/task-assignment-api/internal/models"
)

// ErrNotFound is returned by Find* methods when no row matches.
var ErrNotFound = errors.New("record not found")

// Store groups the repositories and runs units of work atomically.
type Store interface {
	Users() UserRepository
	Tasks() TaskRepository
	Groups() GroupRepository
	RevokedTokens() RevokedTokenRepository

	// Transaction runs fn against a Store bound to a single database transaction.
	// The transaction commits when fn returns nil and rolls back otherwise.
	Transaction(ctx context.Context, fn func(tx Store) error) error
}

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	// Create creates a new task
	Create(ctx context.Context, task *models.Task) error

	// FindByID finds a task by ID with its assignments loaded
	FindByID(ctx context.Context, id uint64) (*models.Task, error)

	// FindByIDForUpdate is FindByID with a row lock held until the transaction ends
	FindByIDForUpdate(ctx context.Context, id uint64) (*models.Task, error)

	// List retrieves tasks with filtering and pagination
	List(ctx context.Context, filter TaskFilter) ([]models.Task, int64, error)

	// Update saves a task's own columns
	Update(ctx context.Context, task *models.Task) error

	// Delete soft deletes a task and removes its assignment links
	Delete(ctx context.Context, id uint64) error

	// ReplaceAssignees makes userIDs the task's exact assignee set
	ReplaceAssignees(ctx context.Context, taskID uint64, userIDs []uint64) error

	// ClearGroup unlinks every task from the group, keeping assignees
	ClearGroup(ctx context.Context, groupID uint64) error

	// CountWithoutAssignees counts the group's tasks that have no assignee rows.
	// Those tasks are only valid while the group link exists.
	CountWithoutAssignees(ctx context.Context, groupID uint64) (int64, error)

	// CountSoleAssignee counts the ungrouped tasks whose only assignee is userID
	CountSoleAssignee(ctx context.Context, userID uint64) (int64, error)
}

// TaskFilter holds filtering options for listing tasks
type TaskFilter struct {
	AssignedUserID *uint64
	Status         *models.TaskStatus
	GroupID        *uint64
	Page           int
	PageSize       int
}

// GroupRepository defines the interface for task group data access
type GroupRepository interface {
	// Create creates a group and its memberships
	Create(ctx context.Context, group *models.TaskGroup, memberIDs []uint64) error

	// FindByID finds a group with its members loaded
	FindByID(ctx context.Context, id uint64) (*models.TaskGroup, error)

	// List lists all groups with members loaded
	List(ctx context.Context) ([]models.TaskGroup, error)

	// Update saves a group's own columns
	Update(ctx context.Context, group *models.TaskGroup) error

	// ReplaceMembers makes userIDs the group's exact member set
	ReplaceMembers(ctx context.Context, groupID uint64, userIDs []uint64) error

	// Delete deletes a group and its memberships
	Delete(ctx context.Context, id uint64) error

	// RemoveUser drops userID from every group
	RemoveUser(ctx context.Context, userID uint64) error
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(ctx context.Context, user *models.User) error

	// FindByID finds a user by ID
	FindByID(ctx context.Context, id uint64) (*models.User, error)

	// FindByUsername finds a user by username
	FindByUsername(ctx context.Context, username string) (*models.User, error)

	// FindByEmail finds a user by email, ignoring case
	FindByEmail(ctx context.Context, email string) (*models.User, error)

	// List lists users, newest first
	List(ctx context.Context) ([]models.User, error)

	// Update saves a user
	Update(ctx context.Context, user *models.User) error

	// Delete deletes a user and detaches it from tasks and groups
	Delete(ctx context.Context, id uint64) error

	// UsernameTaken reports whether another user (not excludeID) has the username
	UsernameTaken(ctx context.Context, username string, excludeID uint64) (bool, error)

	// EmailTaken reports whether another user (not excludeID) has the email, ignoring case
	EmailTaken(ctx context.Context, email string, excludeID uint64) (bool, error)

	// PhoneTaken reports whether another user (not excludeID) has the phone number
	PhoneTaken(ctx context.Context, phone string, excludeID uint64) (bool, error)

	// FindEmployeesByIDs returns the users among ids that have the employee role
	FindEmployeesByIDs(ctx context.Context, ids []uint64) ([]models.User, error)
}

// RevokedTokenRepository is the token blacklist
type RevokedTokenRepository interface {
	// Revoke blacklists a token ID until expiresAt
	Revoke(ctx context.Context, jti string, expiresAt time.Time) error

	// IsRevoked reports whether a token ID is blacklisted
	IsRevoked(ctx context.Context, jti string) (bool, error)

	// PurgeExpired drops blacklist entries whose tokens expired before now
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}
