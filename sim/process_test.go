package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTable_Spawn_AssignsIncreasingPIDsAndGenerations(t *testing.T) {
	// GIVEN a table with a root
	tbl := NewTable()
	root := tbl.CreateRoot(RootPID, KindHater)

	// WHEN the root spawns two children and the first child spawns one
	a := tbl.Spawn(root, KindLover)
	b := tbl.Spawn(root, KindHater)
	c := tbl.Spawn(a, KindHater)

	// THEN pids are max+1 in creation order and generations follow the parent
	assert.Equal(t, []int{2, 3, 4}, []int{a.PID, b.PID, c.PID})
	assert.Equal(t, []int{1, 1, 2}, []int{a.Generation, b.Generation, c.Generation})
	assert.Equal(t, []int{2, 3}, root.Children)
	assert.Equal(t, []int{4}, a.Children)
	assert.Equal(t, 4, tbl.MaxPID())
	assert.Equal(t, []int{1, 2, 3, 4}, tbl.PIDs())
}

func TestTable_ParentAndChildPipe_AreTheSameSlot(t *testing.T) {
	// GIVEN a root with one child
	tbl := NewTable()
	root := tbl.CreateRoot(RootPID, KindHater)
	child := tbl.Spawn(root, KindLover)

	// WHEN the child writes into its parent pipe
	tbl.ParentPipe(child).Write(LoveToken)

	// THEN the parent reads it through its child pipe
	pipe := tbl.ChildPipe(root, child.PID)
	require.NotNil(t, pipe)
	assert.Same(t, tbl.ParentPipe(child), pipe)
	assert.Equal(t, []int{LoveToken}, pipe.Read())
	assert.Equal(t, root.PID, pipe.Owner)
	assert.Equal(t, child.PID, pipe.Peer)
}

func TestTable_RootHasNoParentPipe(t *testing.T) {
	tbl := NewTable()
	root := tbl.CreateRoot(RootPID, KindLover)
	assert.Nil(t, tbl.ParentPipe(root))
	assert.True(t, root.IsRoot())
}

func TestTable_ChildPipe_ForeignChild_ReturnsNil(t *testing.T) {
	// GIVEN a root with a child and a grandchild
	tbl := NewTable()
	root := tbl.CreateRoot(RootPID, KindHater)
	child := tbl.Spawn(root, KindHater)
	grandchild := tbl.Spawn(child, KindLover)

	// THEN the root does not own the grandchild's pipe
	assert.Nil(t, tbl.ChildPipe(root, grandchild.PID))
	assert.NotNil(t, tbl.ChildPipe(child, grandchild.PID))
}

func TestTable_CreateRoot_Twice_Panics(t *testing.T) {
	tbl := NewTable()
	tbl.CreateRoot(RootPID, KindHater)
	assert.Panics(t, func() { tbl.CreateRoot(RootPID, KindHater) })
}

func TestTable_CountKind(t *testing.T) {
	tbl := NewTable()
	root := tbl.CreateRoot(RootPID, KindHater)
	tbl.Spawn(root, KindLover)
	tbl.Spawn(root, KindLover)
	assert.Equal(t, 2, tbl.CountKind(KindLover))
	assert.Equal(t, 1, tbl.CountKind(KindHater))
	assert.Equal(t, 3, tbl.Len())
}

func TestIsValidKind(t *testing.T) {
	assert.True(t, IsValidKind("lover"))
	assert.True(t, IsValidKind("hater"))
	assert.False(t, IsValidKind(""))
	assert.False(t, IsValidKind("neutral"))
}
