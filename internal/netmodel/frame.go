package netmodel

import "github.com/signalsfoundry/shsched/internal/schederr"

// Receiver is one multicast destination of a Frame: a fixed, ordered path
// of link ids from the frame's sender to ReceiverID.
type Receiver struct {
	ReceiverID int
	Path       []int // link ids, sender -> receiver

	// PathRefs mirrors Path: PathRefs[i] is the Offset for Path[i] in the
	// owning Frame's arena, filled in by the offset graph builder.
	PathRefs []*Offset
}

// Frame is a periodic multicast flow. All time fields are nanoseconds
// until the Time Model renormalizes them to timeslot units.
type Frame struct {
	ID             int
	SizeBytes      int
	Period         int64
	Deadline       int64 // 0 sentinel on ingestion means "= Period"; resolved before reaching this struct
	Starting       int64
	EndToEndDelay  int64 // 0 means unconstrained
	SenderID       int
	Receivers      []Receiver
	IsReservation  bool // true only for the synthetic SHP frame

	// Offsets is the frame's arena: the distinct links it transmits on and
	// their solved/allocated values.
	Offsets *FrameOffsets
}

// Validate checks the per-frame invariants from §3 that do not require the
// topology (deadline <= period handled after the 0-sentinel is resolved,
// starting < deadline, end_to_end < deadline when set).
func (f *Frame) Validate() error {
	if f.Deadline > f.Period {
		return schederr.New(schederr.InvalidTiming, "Frame.Validate", "deadline exceeds period")
	}
	if f.Starting >= f.Deadline {
		return schederr.New(schederr.InvalidTiming, "Frame.Validate", "starting time is not before deadline")
	}
	if f.EndToEndDelay != 0 && f.EndToEndDelay >= f.Deadline {
		return schederr.New(schederr.InvalidTiming, "Frame.Validate", "end-to-end bound is not before deadline")
	}
	if len(f.Receivers) == 0 {
		return schederr.New(schederr.InvalidInput, "Frame.Validate", "frame has no receivers")
	}
	return nil
}

// ValidateAgainstTopology checks that every path link exists, that the
// receiver itself is a known node, and that the first hop of every path
// originates at the sender.
func (f *Frame) ValidateAgainstTopology(t *Topology) error {
	for _, rx := range f.Receivers {
		if len(rx.Path) == 0 {
			return schederr.New(schederr.InvalidInput, "Frame.ValidateAgainstTopology", "receiver has empty path")
		}
		if !t.HasNode(rx.ReceiverID) {
			return schederr.New(schederr.InvalidInput, "Frame.ValidateAgainstTopology", "receiver references unknown node id")
		}
		for _, linkID := range rx.Path {
			if !t.HasLink(linkID) {
				return schederr.New(schederr.InvalidInput, "Frame.ValidateAgainstTopology", "path references unknown link id")
			}
		}
		if !pathOriginatesAt(t, f.SenderID, rx.Path[0]) {
			return schederr.New(schederr.InvalidInput, "Frame.ValidateAgainstTopology", "first hop does not originate at sender")
		}
	}
	return nil
}

func pathOriginatesAt(t *Topology, senderID, firstLinkID int) bool {
	for _, c := range t.Outgoing[senderID] {
		if c.LinkID == firstLinkID {
			return true
		}
	}
	return false
}

// NumInstances returns hyperperiod/Period; callers must renormalize first.
func (f *Frame) NumInstances(hyperperiod int64) int {
	if f.Period <= 0 {
		return 0
	}
	return int(hyperperiod / f.Period)
}

// Traffic is the ordered collection of frames that determines scheduling
// priority: earlier frames constrain later ones in incremental and
// optimize mode.
type Traffic struct {
	Frames   []*Frame
	FrameIDs []int
}

// Add appends a frame, keeping FrameIDs in lockstep.
func (tr *Traffic) Add(f *Frame) {
	tr.Frames = append(tr.Frames, f)
	tr.FrameIDs = append(tr.FrameIDs, f.ID)
}

// SHP is the Self-Healing Protocol reservation: a periodic window reserved
// on every link. Period == 0 means inactive.
type SHP struct {
	Period   int64
	Duration int64
}

// Active reports whether the SHP reserves bandwidth.
func (s *SHP) Active() bool {
	return s != nil && s.Period > 0
}
