// Package policy decides whether an actor may perform an action on a resource.
//
// Every service operation consults Authorize before doing any work, so role rules
// live in exactly one place. Rules are evaluated in priority order:
//
//  1. superusers are always allowed;
//  2. role-gated actions require the admin or manager role;
//  3. employees may view and update (status only) tasks assigned to them, and never
//     delete tasks.
package policy

import (
	"fmt"

	"github.com/yukikurage/task-assignment-api/internal/models"
)

type Action string

const (
	ActionCreateTask    Action = "task:create"
	ActionListTasks     Action = "task:list"
	ActionViewTask      Action = "task:view"
	ActionUpdateTask    Action = "task:update"
	ActionDeleteTask    Action = "task:delete"
	ActionGenerateTasks Action = "task:generate"

	ActionCreateGroup Action = "group:create"
	ActionListGroups  Action = "group:list"
	ActionViewGroup   Action = "group:view"
	ActionUpdateGroup Action = "group:update"
	ActionDeleteGroup Action = "group:delete"

	ActionCreateUser Action = "user:create"
	ActionListUsers  Action = "user:list"
	ActionViewUser   Action = "user:view"
	ActionUpdateUser Action = "user:update"
	ActionDeleteUser Action = "user:delete"

	ActionViewProfile   Action = "profile:view"
	ActionUpdateProfile Action = "profile:update"
)

// FieldStatus is the only task field an employee may change.
const FieldStatus = "status"

var roleGated = map[Action]struct{}{
	ActionCreateTask:    {},
	ActionDeleteTask:    {},
	ActionGenerateTasks: {},
	ActionCreateGroup:   {},
	ActionListGroups:    {},
	ActionViewGroup:     {},
	ActionUpdateGroup:   {},
	ActionDeleteGroup:   {},
	ActionCreateUser:    {},
	ActionListUsers:     {},
	ActionViewUser:      {},
	ActionUpdateUser:    {},
	ActionDeleteUser:    {},
}

// Actor is the authenticated user performing a request.
type Actor struct {
	ID          uint64
	Role        models.Role
	IsSuperuser bool
}

// ActorFromUser builds an Actor from a stored user.
func ActorFromUser(u *models.User) Actor {
	return Actor{ID: u.ID, Role: u.Role, IsSuperuser: u.IsSuperuser}
}

// canManage reports whether a staff actor may change or delete target's account.
// Managers only manage plain employees.
func (a Actor) canManage(target Actor) bool {
	if a.IsSuperuser || a.Role == models.RoleAdmin {
		return true
	}
	return target.Role == models.RoleEmployee && !target.IsSuperuser
}

// IsStaff reports whether the actor has admin-or-manager privileges.
func (a Actor) IsStaff() bool {
	return a.IsSuperuser || a.Role == models.RoleAdmin || a.Role == models.RoleManager
}

// Resource describes the target of a task action. Role-gated actions ignore it.
type Resource struct {
	// AssigneeIDs is the task's current effective assignee set.
	AssigneeIDs []uint64
	// Fields lists the request fields an update would change.
	Fields []string
	// Target is the account a user update or delete acts on, when known.
	Target *Actor
}

// UserResource builds the Resource for an action on the account u.
func UserResource(u *models.User) Resource {
	target := ActorFromUser(u)
	return Resource{Target: &target}
}

// TaskResource builds the Resource for an action on task, changing fields.
func TaskResource(task *models.Task, fields ...string) Resource {
	return Resource{AssigneeIDs: task.AssigneeIDs(), Fields: fields}
}

func (r Resource) hasAssignee(id uint64) bool {
	for _, a := range r.AssigneeIDs {
		if a == id {
			return true
		}
	}
	return false
}

// Decision is the outcome of Authorize.
type Decision struct {
	Allowed bool
	Reason  string
}

// Err returns nil for an allowed decision and a *ForbiddenError otherwise.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return &ForbiddenError{Reason: d.Reason}
}

// ForbiddenError reports a policy denial.
type ForbiddenError struct {
	Reason string
}

func (e *ForbiddenError) Error() string {
	return fmt.Sprintf("forbidden: %s", e.Reason)
}

func allow() Decision {
	return Decision{Allowed: true}
}

func deny(reason string) Decision {
	return Decision{Reason: reason}
}

// Authorize decides whether actor may perform action on res.
func Authorize(actor Actor, action Action, res Resource) Decision {
	if actor.IsSuperuser {
		return allow()
	}

	if _, gated := roleGated[action]; gated {
		if !actor.IsStaff() {
			if action == ActionDeleteTask {
				return deny("Employees cannot delete tasks")
			}
			return deny("Only admins and managers can perform this action")
		}
		if res.Target != nil && !actor.canManage(*res.Target) {
			return deny("Managers can only manage employee accounts")
		}
		return allow()
	}

	switch action {
	case ActionListTasks, ActionViewProfile, ActionUpdateProfile:
		return allow()

	case ActionViewTask:
		if actor.IsStaff() || res.hasAssignee(actor.ID) {
			return allow()
		}
		return deny("Task not assigned to you")

	case ActionUpdateTask:
		if actor.IsStaff() {
			return allow()
		}
		if !res.hasAssignee(actor.ID) {
			return deny("Task not assigned to you")
		}
		for _, f := range res.Fields {
			if f != FieldStatus {
				return deny("Employees can only update the status of a task")
			}
		}
		return allow()
	}

	return deny(fmt.Sprintf("Unknown action %q", action))
}

// VisibilityScope returns the assignee a task listing must be restricted to, or nil
// when the actor may see every task.
func VisibilityScope(actor Actor) *uint64 {
	if actor.IsStaff() {
		return nil
	}
	id := actor.ID
	return &id
}

// CoerceRole returns the role a user created or re-roled by actor actually receives.
// Managers without superuser rights can only grant the employee role.
func CoerceRole(actor Actor, requested models.Role) models.Role {
	if actor.Role == models.RoleManager && !actor.IsSuperuser {
		return models.RoleEmployee
	}
	if requested == "" {
		return models.RoleEmployee
	}
	return requested
}
