// Package offsetgraph builds the Offset arenas described in §4.2: for each
// frame, the distinct links its paths touch, with the path-position
// references each path needs for O(1) consecutive-link lookups.
package offsetgraph

import "github.com/signalsfoundry/shsched/internal/netmodel"

// DurationFunc returns a frame's transmission duration on linkID, already
// renormalized to timeslot units by the Time Model.
type DurationFunc func(linkID int) int64

// BuildNormal populates f's FrameOffsets arena and every receiver's PathRefs
// from its paths. hyperperiod must already be in timeslot units
// (renormalized by the Time Model); maxLinkID sizes the per-link lookup. Replica count is always 1 in
// current inputs, per spec's accepted non-goal.
func BuildNormal(f *netmodel.Frame, hyperperiod int64, maxLinkID int, dur DurationFunc) {
	numInstances := f.NumInstances(hyperperiod)
	f.Offsets = netmodel.NewFrameOffsets(maxLinkID)

	for i := range f.Receivers {
		rx := &f.Receivers[i]
		rx.PathRefs = make([]*netmodel.Offset, len(rx.Path))
		for pos, linkID := range rx.Path {
			off, created := f.Offsets.GetOrCreate(linkID, numInstances, 1)
			if created {
				off.Time = dur(linkID)
			}
			rx.PathRefs[pos] = off
		}
	}
}

// BuildReservation allocates the SHP's synthetic offset set: one offset per
// link id in [0, maxLinkID], with instance k's value pinned to k*period and
// duration set to the reservation duration (both already in timeslot
// units).
func BuildReservation(shp *netmodel.SHP, hyperperiod int64, maxLinkID int) *netmodel.FrameOffsets {
	fo := netmodel.NewFrameOffsets(maxLinkID)
	if !shp.Active() {
		return fo
	}
	numInstances := int(hyperperiod / shp.Period)
	for linkID := 0; linkID <= maxLinkID; linkID++ {
		off, _ := fo.GetOrCreate(linkID, numInstances, 1)
		off.Time = shp.Duration
		for k := 0; k < numInstances; k++ {
			off.Value[k][0] = int64(k) * shp.Period
		}
	}
	return fo
}

// BuildSingleLink allocates the degenerate, one-offset frame used by the
// patch and optimize engines: its only path has length 1, and its Min/Max
// range matrices are allocated alongside the value matrix.
func BuildSingleLink(linkID int, numInstances int, dur int64) *netmodel.Offset {
	off := netmodel.NewOffset(linkID, numInstances, 1)
	off.Time = dur
	return off
}
