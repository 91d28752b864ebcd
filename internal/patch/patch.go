// Package patch implements the Patch Engine of §4.5: a greedy, sorted
// interval allocator that places new transmissions on a single targeted
// link without disturbing already-fixed traffic.
package patch

import (
	"context"
	"sort"

	"github.com/signalsfoundry/shsched/internal/netmodel"
	"github.com/signalsfoundry/shsched/internal/schederr"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("shsched-patch")

// Interval is a half-open occupied window [Start, End) on the targeted
// link. The occupied-interval list of §4.5 is a sorted-by-start list; a
// plain slice kept sorted serves the same role as the spec's singly linked
// list without the pointer-chasing overhead.
type Interval struct {
	Start, End int64
}

// FixedTransmission is one already-known transmission on the targeted
// link: a frame's instance whose start time and duration are fixed.
type FixedTransmission struct {
	Start int64
	Dur   int64
}

// NewFrame is a frame awaiting placement: per instance, an allowed
// [Min, Max] start range and a fixed duration.
type NewFrame struct {
	FrameID   int
	Dur       int64
	MinPerInst []int64
	MaxPerInst []int64
}

// Plan is the outcome of a Run: the accepted start time for every instance
// of every new frame, keyed by frame id, each slice in instance order.
type Plan struct {
	Starts map[int][]int64 // frame id -> per-instance accepted start
}

// List is the sorted occupied-interval list.
type List struct {
	intervals []Interval
}

// NewList builds the pre-populated occupied-interval list: one interval
// per fixed-frame instance, plus one per SHP instance in
// [0, hyperperiod/SHP.period), per §4.5.
func NewList(fixed []FixedTransmission, shp *netmodel.SHP, hyperperiod int64) *List {
	l := &List{}
	for _, ft := range fixed {
		l.insert(Interval{Start: ft.Start, End: ft.Start + ft.Dur})
	}
	if shp.Active() {
		for k := int64(0); k < hyperperiod/shp.Period; k++ {
			start := k * shp.Period
			l.insert(Interval{Start: start, End: start + shp.Duration})
		}
	}
	return l
}

func (l *List) insert(iv Interval) {
	idx := sort.Search(len(l.intervals), func(i int) bool {
		return l.intervals[i].Start >= iv.Start
	})
	l.intervals = append(l.intervals, Interval{})
	copy(l.intervals[idx+1:], l.intervals[idx:])
	l.intervals[idx] = iv
}

// place walks the list from the front looking for the first gap at or
// after candidate that fits dur, per §4.5's "walk the list; while the
// candidate's [s, s+dur-1] overlaps an existing interval (is, ie) with
// ie >= s, set candidate start to ie + 1."
func (l *List) place(candidate, dur, max int64) (int64, bool) {
	s := candidate
	for _, iv := range l.intervals {
		if iv.End <= s {
			continue
		}
		if iv.Start <= s+dur-1 {
			s = iv.End
			if s > max {
				return 0, false
			}
		}
	}
	if s > max {
		return 0, false
	}
	return s, true
}

// Run executes the Patch Engine's allocation loop: new frames in input
// order, each frame's instances in order. It fails terminally with
// PatchInfeasible the first time an instance cannot be placed within its
// [min, max] range.
func Run(ctx context.Context, l *List, frames []NewFrame) (*Plan, error) {
	_, span := tracer.Start(ctx, "scheduling.patch",
		trace.WithAttributes(attribute.Int("new_frame_count", len(frames))))
	defer span.End()

	plan := &Plan{Starts: make(map[int][]int64, len(frames))}
	for _, nf := range frames {
		starts := make([]int64, len(nf.MinPerInst))
		for i := range nf.MinPerInst {
			s, ok := l.place(nf.MinPerInst[i], nf.Dur, nf.MaxPerInst[i])
			if !ok {
				return nil, schederr.Wrapf(schederr.PatchInfeasible, "patch.Run", nil,
					"frame %d instance %d: no gap in [%d, %d] for duration %d", nf.FrameID, i, nf.MinPerInst[i], nf.MaxPerInst[i], nf.Dur)
			}
			l.insert(Interval{Start: s, End: s + nf.Dur})
			starts[i] = s
		}
		plan.Starts[nf.FrameID] = starts
	}
	return plan, nil
}

// Apply writes a Plan's accepted starts back into the frame's single-link
// Offset.
func Apply(plan *Plan, offsets map[int]*netmodel.Offset) {
	for frameID, starts := range plan.Starts {
		off, ok := offsets[frameID]
		if !ok {
			continue
		}
		for i, s := range starts {
			off.Value[i][0] = s
		}
	}
}
