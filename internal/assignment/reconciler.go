// Package assignment derives a task's effective assignee set from its explicit
// assignees and the members of its group.
//
// The effective set is always explicit ∪ group.members, computed from a snapshot of
// the group's membership at reconciliation time. Later membership changes do not flow
// into tasks that were already reconciled.
package assignment

import (
	"errors"
	"sort"

	"github.com/yukikurage/task-assignment-api/internal/optional"
)

// ErrUnassigned is returned when a task would end up with neither assignees nor a group.
var ErrUnassigned = errors.New("task must be assigned to at least one employee or a group")

// Group is the part of a task group the reconciler needs.
type Group struct {
	ID        uint64
	MemberIDs []uint64
}

// Snapshot is a task's assignment state: the assignee set and the linked group, if any.
type Snapshot struct {
	AssigneeIDs []uint64
	Group       *Group
}

// Change carries the assignment fields of a create or update request. An absent field
// keeps the current value; an explicit null clears it.
type Change struct {
	Assignees optional.Field[[]uint64]
	Group     optional.Field[Group]
}

// TouchesAssignment reports whether the change supplies either assignment field.
func (c Change) TouchesAssignment() bool {
	return c.Assignees.Present() || c.Group.Present()
}

// Resolve applies partial-update fallback: fields absent from change are taken from
// current, supplied fields replace the corresponding component.
func Resolve(current Snapshot, change Change) Snapshot {
	resolved := Snapshot{
		AssigneeIDs: current.AssigneeIDs,
		Group:       current.Group,
	}

	if change.Assignees.Present() {
		ids, _ := change.Assignees.Value()
		resolved.AssigneeIDs = ids
	}

	if change.Group.Present() {
		if g, ok := change.Group.Value(); ok {
			resolved.Group = &g
		} else {
			resolved.Group = nil
		}
	}

	return resolved
}

// Validate rejects a resolved snapshot with no explicit assignees and no group.
func Validate(resolved Snapshot) error {
	if len(resolved.AssigneeIDs) == 0 && resolved.Group == nil {
		return ErrUnassigned
	}
	return nil
}

// Reconcile returns the effective assignee set of a resolved snapshot, de-duplicated
// and sorted ascending.
func Reconcile(resolved Snapshot) []uint64 {
	set := make(map[uint64]struct{}, len(resolved.AssigneeIDs))
	for _, id := range resolved.AssigneeIDs {
		set[id] = struct{}{}
	}
	if resolved.Group != nil {
		for _, id := range resolved.Group.MemberIDs {
			set[id] = struct{}{}
		}
	}

	ids := make([]uint64, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Apply resolves change against current, validates the result and reconciles it.
// The returned snapshot holds the resolved group and the effective assignee set.
func Apply(current Snapshot, change Change) (Snapshot, error) {
	resolved := Resolve(current, change)
	if err := Validate(resolved); err != nil {
		return Snapshot{}, err
	}
	return Snapshot{
		AssigneeIDs: Reconcile(resolved),
		Group:       resolved.Group,
	}, nil
}

// Diff reports which IDs must be added to and removed from current to reach target.
// Both results are sorted.
func Diff(current, target []uint64) (added, removed []uint64) {
	have := make(map[uint64]struct{}, len(current))
	for _, id := range current {
		have[id] = struct{}{}
	}
	want := make(map[uint64]struct{}, len(target))
	for _, id := range target {
		if _, dup := want[id]; dup {
			continue
		}
		want[id] = struct{}{}
		if _, ok := have[id]; !ok {
			added = append(added, id)
		}
	}
	for id := range have {
		if _, ok := want[id]; !ok {
			removed = append(removed, id)
		}
	}
	sort.Slice(added, func(i, j int) bool { return added[i] < added[j] })
	sort.Slice(removed, func(i, j int) bool { return removed[i] < removed[j] })
	return added, removed
}
