package cfg

import (
	"fmt"
	"sort"

	"solis/common"
	"solis/report"
	"solis/typing"
)

// Enumeration of variable storage classes.
const (
	// StorageLocal marks an ordinary local variable or temporary.
	StorageLocal = iota

	// StorageConstant marks a compile-time constant.  Constants are never
	// reassigned and never appear in phi sets.
	StorageConstant

	// StorageContract marks a variable resident in persistent contract
	// storage.  The slot holds the storage key, not the value.
	StorageContract
)

// VarInfo describes one slot of a function's variable table.
type VarInfo struct {
	// The diagnostic name of the variable.  Temporaries are named
	// "%<hint>.<slot>".
	Name string

	// The type of the value held in the slot.
	Type typing.Type

	// The storage class of the slot.  One of the enumerated classes above.
	Storage int
}

// SlotSet is a set of variable table slots.  Phi sets and dirty sets are both
// slot sets.
type SlotSet map[int]struct{}

// Add inserts a slot into the set.
func (ss SlotSet) Add(slot int) {
	ss[slot] = struct{}{}
}

// Contains returns whether the set contains the given slot.
func (ss SlotSet) Contains(slot int) bool {
	_, ok := ss[slot]
	return ok
}

// Union inserts every slot of other into the set.
func (ss SlotSet) Union(other SlotSet) {
	for slot := range other {
		ss[slot] = struct{}{}
	}
}

// Clone returns an independent copy of the set.
func (ss SlotSet) Clone() SlotSet {
	clone := make(SlotSet, len(ss))
	for slot := range ss {
		clone[slot] = struct{}{}
	}

	return clone
}

// Sorted returns the slots of the set in increasing order.  All iteration
// over slot sets that produces output goes through Sorted so that lowering
// and materialization are deterministic.
func (ss SlotSet) Sorted() []int {
	slots := make([]int, 0, len(ss))
	for slot := range ss {
		slots = append(slots, slot)
	}

	sort.Ints(slots)
	return slots
}

// -----------------------------------------------------------------------------

// dirtyTracker records the slots assigned while one tracking scope is open.
type dirtyTracker struct {
	// Only slots below lim are tracked: slots minted after the scope opened
	// are local to it and never need reconciliation outside it.
	lim int

	set SlotSet
}

// Vartable is the per-function variable store: it maps stable integer slots
// to variable descriptions, mints fresh temporary slots during lowering, and
// hosts the stack of dirty trackers used to compute phi sets.
type Vartable struct {
	vars map[int]*VarInfo

	// The next slot to mint.  User-declared variables occupy the slots below
	// the resolver's NextVarID; temporaries are minted above it.
	next int

	dirty []dirtyTracker
}

// NewVartable creates a variable table whose first temporary slot is firstTemp.
func NewVartable(firstTemp int) *Vartable {
	return &Vartable{
		vars: make(map[int]*VarInfo),
		next: firstTemp,
	}
}

// AddVariable registers a resolved variable under the given slot.  The slot
// is normally the variable's own ID; modifier lowering re-bases a modifier's
// variables into the modified function's table.
func (vt *Vartable) AddVariable(slot int, v *common.Variable) {
	storage := StorageLocal
	if v.Constant {
		storage = StorageConstant
	} else if _, ok := v.Type.(*typing.StorageRefType); ok {
		storage = StorageContract
	}

	vt.vars[slot] = &VarInfo{
		Name:    v.Name,
		Type:    v.Type,
		Storage: storage,
	}
}

// Temp mints a fresh temporary slot of the given type.  The hint names the
// temporary in dumps and diagnostics.
func (vt *Vartable) Temp(hint string, ty typing.Type) int {
	slot := vt.next
	vt.next++

	vt.vars[slot] = &VarInfo{
		Name:    fmt.Sprintf("%%%s.%d", hint, slot),
		Type:    ty,
		Storage: StorageLocal,
	}

	return slot
}

// Get returns the description of the given slot.  A missing slot is an
// internal invariant violation.
func (vt *Vartable) Get(slot int) *VarInfo {
	v, ok := vt.vars[slot]
	if !ok {
		report.ReportICE("reference to undefined variable slot %d", slot)
	}

	return v
}

// NextID returns the next slot the table would mint.
func (vt *Vartable) NextID() int {
	return vt.next
}

// Slots returns all registered slots in increasing order.
func (vt *Vartable) Slots() []int {
	slots := make([]int, 0, len(vt.vars))
	for slot := range vt.vars {
		slots = append(slots, slot)
	}

	sort.Ints(slots)
	return slots
}

// -----------------------------------------------------------------------------

// NewDirtyTracker opens a tracking scope.  Slots minted after the scope
// opens are not tracked by it.
func (vt *Vartable) NewDirtyTracker() {
	vt.dirty = append(vt.dirty, dirtyTracker{
		lim: vt.next,
		set: make(SlotSet),
	})
}

// PopDirtyTracker closes the innermost tracking scope and returns the set of
// slots assigned while it was open.
func (vt *Vartable) PopDirtyTracker() SlotSet {
	if len(vt.dirty) == 0 {
		report.ReportICE("dirty tracker stack underflow")
	}

	set := vt.dirty[len(vt.dirty)-1].set
	vt.dirty = vt.dirty[:len(vt.dirty)-1]
	return set
}

// SetDirty records an assignment to the given slot in every open tracking
// scope that covers it.  Constants never become dirty.
func (vt *Vartable) SetDirty(slot int) {
	if vt.Get(slot).Storage == StorageConstant {
		return
	}

	for i := range vt.dirty {
		if slot < vt.dirty[i].lim {
			vt.dirty[i].set.Add(slot)
		}
	}
}
