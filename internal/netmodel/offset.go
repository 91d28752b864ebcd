package netmodel

import "github.com/signalsfoundry/shsched/internal/milp"

// UnsetOffset is the sentinel value for an unassigned offset cell.
const UnsetOffset int64 = -1

// Offset aggregates every (instance, replica) transmission cell a frame has
// on a single link. Two paths of the same frame that traverse the same
// link share one Offset, per §3's "frame offset set".
type Offset struct {
	LinkID       int
	NumInstances int
	NumReplicas  int
	Time         int64 // transmission duration in timeslots on this link

	// Value, MinOffset and MaxOffset are [instance][replica] matrices.
	// Value holds the solved/allocated timeslot (UnsetOffset until then).
	// MinOffset/MaxOffset hold the allowed range used by patch/optimize.
	Value     [][]int64
	MinOffset [][]int64
	MaxOffset [][]int64

	// VarHandle mirrors Value's shape with the backend variable assigned
	// to each cell during constraint-model construction.
	VarHandle [][]milp.VarHandle
}

// NewOffset allocates an Offset with Value cells set to UnsetOffset and
// handles set to milp.Unset.
func NewOffset(linkID int, numInstances, numReplicas int) *Offset {
	o := &Offset{
		LinkID:       linkID,
		NumInstances: numInstances,
		NumReplicas:  numReplicas,
		Value:        make([][]int64, numInstances),
		MinOffset:    make([][]int64, numInstances),
		MaxOffset:    make([][]int64, numInstances),
		VarHandle:    make([][]milp.VarHandle, numInstances),
	}
	for i := 0; i < numInstances; i++ {
		o.Value[i] = make([]int64, numReplicas)
		o.MinOffset[i] = make([]int64, numReplicas)
		o.MaxOffset[i] = make([]int64, numReplicas)
		o.VarHandle[i] = make([]milp.VarHandle, numReplicas)
		for r := 0; r < numReplicas; r++ {
			o.Value[i][r] = UnsetOffset
			o.VarHandle[i][r] = milp.Unset
		}
	}
	return o
}

// IsSet reports whether the (instance, replica) cell has been assigned.
func (o *Offset) IsSet(instance, replica int) bool {
	return o.Value[instance][replica] != UnsetOffset
}

// FrameOffsets is a frame's arena of Offset objects: an owning iteration
// list plus a dense, link-id-indexed lookup of non-owning references, per
// the "offset graph" design note in §9.
type FrameOffsets struct {
	Arena  []*Offset // owns; iteration order = creation order
	byLink []int     // dense array, size maxLinkID+1; arena index+1, 0 = absent
}

// NewFrameOffsets allocates an empty arena sized for link ids in [0, maxLinkID].
func NewFrameOffsets(maxLinkID int) *FrameOffsets {
	return &FrameOffsets{byLink: make([]int, maxLinkID+1)}
}

// Get returns the Offset for linkID, if the frame has one.
func (fo *FrameOffsets) Get(linkID int) (*Offset, bool) {
	if linkID < 0 || linkID >= len(fo.byLink) {
		return nil, false
	}
	idx := fo.byLink[linkID]
	if idx == 0 {
		return nil, false
	}
	return fo.Arena[idx-1], true
}

// GetOrCreate returns the existing Offset for linkID, creating one (with
// numInstances/numReplicas) if absent. The bool result reports whether a
// new Offset was created.
func (fo *FrameOffsets) GetOrCreate(linkID, numInstances, numReplicas int) (*Offset, bool) {
	if existing, ok := fo.Get(linkID); ok {
		return existing, false
	}
	o := NewOffset(linkID, numInstances, numReplicas)
	fo.Arena = append(fo.Arena, o)
	fo.byLink[linkID] = len(fo.Arena)
	return o, true
}
