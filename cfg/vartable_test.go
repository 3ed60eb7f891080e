package cfg

import (
	"testing"

	"solis/common"
	"solis/typing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddVariableStorageClasses(t *testing.T) {
	vt := NewVartable(3)

	vt.AddVariable(0, &common.Variable{Name: "x", ID: 0, Type: typing.Uint256})
	vt.AddVariable(1, &common.Variable{Name: "c", ID: 1, Type: typing.Uint256, Constant: true})
	vt.AddVariable(2, &common.Variable{Name: "s", ID: 2, Type: &typing.StorageRefType{Elem: typing.Uint256}})

	assert.Equal(t, StorageLocal, vt.Get(0).Storage)
	assert.Equal(t, StorageConstant, vt.Get(1).Storage)
	assert.Equal(t, StorageContract, vt.Get(2).Storage)
}

func TestTempNaming(t *testing.T) {
	vt := NewVartable(5)

	slot := vt.Temp("ternary", typing.Bool)
	assert.Equal(t, 5, slot)
	assert.Equal(t, "%ternary.5", vt.Get(slot).Name)
	assert.Equal(t, 6, vt.NextID())
}

func TestGetUndefinedSlotPanics(t *testing.T) {
	vt := NewVartable(0)

	require.Panics(t, func() { vt.Get(3) })
}

func TestDirtyTrackerRecordsAssignments(t *testing.T) {
	vt := NewVartable(2)
	vt.AddVariable(0, &common.Variable{Name: "x", ID: 0, Type: typing.Uint256})
	vt.AddVariable(1, &common.Variable{Name: "y", ID: 1, Type: typing.Uint256})

	vt.NewDirtyTracker()
	vt.SetDirty(0)

	set := vt.PopDirtyTracker()
	assert.True(t, set.Contains(0))
	assert.False(t, set.Contains(1))
}

func TestDirtyTrackerIgnoresSlotsMintedInScope(t *testing.T) {
	vt := NewVartable(1)
	vt.AddVariable(0, &common.Variable{Name: "x", ID: 0, Type: typing.Uint256})

	vt.NewDirtyTracker()

	// minted after the tracker opened: local to the scope
	temp := vt.Temp("t", typing.Uint256)
	vt.SetDirty(temp)
	vt.SetDirty(0)

	set := vt.PopDirtyTracker()
	assert.True(t, set.Contains(0))
	assert.False(t, set.Contains(temp))
}

func TestDirtyTrackerSkipsConstants(t *testing.T) {
	vt := NewVartable(1)
	vt.AddVariable(0, &common.Variable{Name: "c", ID: 0, Type: typing.Uint256, Constant: true})

	vt.NewDirtyTracker()
	vt.SetDirty(0)

	assert.Empty(t, vt.PopDirtyTracker())
}

func TestNestedDirtyTrackers(t *testing.T) {
	vt := NewVartable(2)
	vt.AddVariable(0, &common.Variable{Name: "x", ID: 0, Type: typing.Uint256})
	vt.AddVariable(1, &common.Variable{Name: "y", ID: 1, Type: typing.Uint256})

	vt.NewDirtyTracker()
	vt.SetDirty(0)

	vt.NewDirtyTracker()
	vt.SetDirty(1)

	// the write to y lands in both open scopes
	inner := vt.PopDirtyTracker()
	assert.ElementsMatch(t, []int{1}, inner.Sorted())

	outer := vt.PopDirtyTracker()
	assert.ElementsMatch(t, []int{0, 1}, outer.Sorted())
}

func TestPopDirtyTrackerUnderflowPanics(t *testing.T) {
	vt := NewVartable(0)

	require.Panics(t, func() { vt.PopDirtyTracker() })
}

func TestSlotSetCloneIsIndependent(t *testing.T) {
	set := make(SlotSet)
	set.Add(1)
	set.Add(4)

	clone := set.Clone()
	clone.Add(9)

	assert.False(t, set.Contains(9))
	assert.Equal(t, []int{1, 4}, set.Sorted())
	assert.Equal(t, []int{1, 4, 9}, clone.Sorted())
}

func TestSlotSetUnion(t *testing.T) {
	a := make(SlotSet)
	a.Add(1)

	b := make(SlotSet)
	b.Add(2)
	b.Add(1)

	a.Union(b)
	assert.Equal(t, []int{1, 2}, a.Sorted())
}
