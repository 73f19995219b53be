package assignment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/task-assignment-api/internal/optional"
)

func TestApply_CreateWithoutAssigneesOrGroupFails(t *testing.T) {
	_, err := Apply(Snapshot{}, Change{
		Assignees: optional.Of([]uint64{}),
		Group:     optional.Null[Group](),
	})
	assert.ErrorIs(t, err, ErrUnassigned)

	_, err = Apply(Snapshot{}, Change{})
	assert.ErrorIs(t, err, ErrUnassigned)
}

func TestApply_CreateWithGroupOnly(t *testing.T) {
	g := Group{ID: 1, MemberIDs: []uint64{7, 3, 5}}

	got, err := Apply(Snapshot{}, Change{
		Assignees: optional.Of([]uint64{}),
		Group:     optional.Of(g),
	})
	require.NoError(t, err)
	assert.Equal(t, []uint64{3, 5, 7}, got.AssigneeIDs)
	require.NotNil(t, got.Group)
	assert.Equal(t, uint64(1), got.Group.ID)
}

func TestApply_UnionCollapsesDuplicates(t *testing.T) {
	g := Group{ID: 1, MemberIDs: []uint64{2, 3}}

	got, err := Apply(Snapshot{}, Change{
		Assignees: optional.Of([]uint64{3, 4, 4}),
		Group:     optional.Of(g),
	})
	require.NoError(t, err)
	assert.Equal(t, []uint64{2, 3, 4}, got.AssigneeIDs)
}

func TestApply_GroupMembersAlwaysIncluded(t *testing.T) {
	g := Group{ID: 9, MemberIDs: []uint64{10, 11}}
	current := Snapshot{AssigneeIDs: []uint64{1}}

	got, err := Apply(current, Change{Group: optional.Of(g)})
	require.NoError(t, err)
	assert.Subset(t, got.AssigneeIDs, g.MemberIDs)
	assert.Contains(t, got.AssigneeIDs, uint64(1))
}

func TestResolve_AbsentFieldsKeepCurrentState(t *testing.T) {
	g := &Group{ID: 2, MemberIDs: []uint64{5}}
	current := Snapshot{AssigneeIDs: []uint64{5, 6}, Group: g}

	resolved := Resolve(current, Change{})
	assert.Equal(t, current, resolved)
}

func TestResolve_ExplicitNullGroupClearsGroupButKeepsAssignees(t *testing.T) {
	current := Snapshot{
		AssigneeIDs: []uint64{5, 6},
		Group:       &Group{ID: 2, MemberIDs: []uint64{5}},
	}

	got, err := Apply(current, Change{Group: optional.Null[Group]()})
	require.NoError(t, err)
	assert.Nil(t, got.Group)
	assert.Equal(t, []uint64{5, 6}, got.AssigneeIDs)
}

func TestResolve_EmptyAssigneesFallsBackToCurrentGroup(t *testing.T) {
	current := Snapshot{
		AssigneeIDs: []uint64{1, 5},
		Group:       &Group{ID: 2, MemberIDs: []uint64{5}},
	}

	got, err := Apply(current, Change{Assignees: optional.Of([]uint64{})})
	require.NoError(t, err)
	assert.Equal(t, []uint64{5}, got.AssigneeIDs)
}

func TestResolve_NullAssigneesWithoutGroupFails(t *testing.T) {
	current := Snapshot{AssigneeIDs: []uint64{1}}

	_, err := Apply(current, Change{Assignees: optional.Null[[]uint64]()})
	assert.ErrorIs(t, err, ErrUnassigned)
}

func TestReconcile_Idempotent(t *testing.T) {
	resolved := Snapshot{
		AssigneeIDs: []uint64{9, 1, 4},
		Group:       &Group{ID: 3, MemberIDs: []uint64{4, 8}},
	}

	first := Reconcile(resolved)
	second := Reconcile(Snapshot{AssigneeIDs: first, Group: resolved.Group})
	assert.Equal(t, first, second)
	assert.Equal(t, first, Reconcile(resolved))
}

func TestReconcile_OrderIndependent(t *testing.T) {
	a := Reconcile(Snapshot{AssigneeIDs: []uint64{3, 1, 2}})
	b := Reconcile(Snapshot{AssigneeIDs: []uint64{2, 3, 1}})
	assert.Equal(t, a, b)
}

func TestChange_TouchesAssignment(t *testing.T) {
	assert.False(t, Change{}.TouchesAssignment())
	assert.True(t, Change{Group: optional.Null[Group]()}.TouchesAssignment())
	assert.True(t, Change{Assignees: optional.Of([]uint64{1})}.TouchesAssignment())
}

func TestDiff(t *testing.T) {
	added, removed := Diff([]uint64{1, 2, 3}, []uint64{3, 4, 4, 5})
	assert.Equal(t, []uint64{4, 5}, added)
	assert.Equal(t, []uint64{1, 2}, removed)

	added, removed = Diff(nil, nil)
	assert.Empty(t, added)
	assert.Empty(t, removed)
}
