// Package verify implements the deterministic post-solve pass of §4.7: it
// re-checks every invariant the constraint model was supposed to enforce,
// independent of which strategy produced the schedule.
package verify

import (
	"fmt"

	"github.com/signalsfoundry/shsched/internal/netmodel"
	"github.com/signalsfoundry/shsched/internal/schederr"
)

// Config carries the values the verifier needs that are not on the Frame
// itself.
type Config struct {
	SwitchMinTime int64
}

// transmission is one scheduled window on a link, tagged with its owner
// for overlap reporting.
type transmission struct {
	ownerID  int
	start    int64
	end      int64 // half-open
	instance int
	replica  int
}

// Run checks every invariant in §4.7 across the whole traffic set plus the
// SHP reservation. It returns the first violation found, wrapped as
// ScheduleInvalid naming the invariant.
func Run(traffic *netmodel.Traffic, shp *netmodel.SHP, shpOffsets *netmodel.FrameOffsets, cfg Config) error {
	byLink := make(map[int][]transmission)

	for _, f := range traffic.Frames {
		for _, off := range f.Offsets.Arena {
			for i := 0; i < off.NumInstances; i++ {
				for r := 0; r < off.NumReplicas; r++ {
					if !off.IsSet(i, r) {
						return schederr.New(schederr.ScheduleInvalid, "verify.Run", fmt.Sprintf("frame %d link %d instance %d replica %d has no offset", f.ID, off.LinkID, i, r))
					}
					lb, ub := bounds(f, off, i, r)
					v := off.Value[i][r]
					if v < lb || v > ub {
						return schederr.New(schederr.ScheduleInvalid, "verify.Run", fmt.Sprintf("frame %d link %d instance %d replica %d offset %d out of bounds [%d, %d]", f.ID, off.LinkID, i, r, v, lb, ub))
					}
					byLink[off.LinkID] = append(byLink[off.LinkID], transmission{
						ownerID: f.ID, start: v, end: v + off.Time, instance: i, replica: r,
					})
				}
			}
		}
	}

	if shp.Active() {
		for _, off := range shpOffsets.Arena {
			for k := 0; k < off.NumInstances; k++ {
				byLink[off.LinkID] = append(byLink[off.LinkID], transmission{
					ownerID: -1, start: off.Value[k][0], end: off.Value[k][0] + off.Time, instance: k,
				})
			}
		}
	}

	for linkID, txs := range byLink {
		if err := checkNonOverlap(linkID, txs); err != nil {
			return err
		}
	}

	for _, f := range traffic.Frames {
		if err := checkPathMonotonicity(f, cfg.SwitchMinTime); err != nil {
			return err
		}
		if err := checkEndToEnd(f); err != nil {
			return err
		}
	}

	return nil
}

func bounds(f *netmodel.Frame, off *netmodel.Offset, i, r int) (int64, int64) {
	lb := f.Starting + int64(i)*f.Period + int64(r)*off.Time
	ub := f.Deadline - off.Time + int64(i)*f.Period - int64(r)*off.Time
	return lb, ub
}

func checkNonOverlap(linkID int, txs []transmission) error {
	for i := range txs {
		for j := i + 1; j < len(txs); j++ {
			a, b := txs[i], txs[j]
			if a.start < b.end && b.start < a.end {
				return schederr.New(schederr.ScheduleInvalid, "verify.checkNonOverlap",
					fmt.Sprintf("link %d: owner %d [%d,%d) overlaps owner %d [%d,%d)", linkID, a.ownerID, a.start, a.end, b.ownerID, b.start, b.end))
			}
		}
	}
	return nil
}

func checkPathMonotonicity(f *netmodel.Frame, switchMinTime int64) error {
	for _, rx := range f.Receivers {
		for pos := 0; pos+1 < len(rx.PathRefs); pos++ {
			cur, next := rx.PathRefs[pos], rx.PathRefs[pos+1]
			for i := 0; i < cur.NumInstances; i++ {
				gap := next.Value[i][0] - cur.Value[i][0]
				if gap < cur.Time+switchMinTime {
					return schederr.New(schederr.ScheduleInvalid, "verify.checkPathMonotonicity",
						fmt.Sprintf("frame %d receiver %d instance %d: link %d -> %d gap %d below dur+switch_min_time %d",
							f.ID, rx.ReceiverID, i, cur.LinkID, next.LinkID, gap, cur.Time+switchMinTime))
				}
			}
		}
	}
	return nil
}

func checkEndToEnd(f *netmodel.Frame) error {
	if f.EndToEndDelay == 0 {
		return nil
	}
	for _, rx := range f.Receivers {
		if len(rx.PathRefs) == 0 {
			continue
		}
		first, last := rx.PathRefs[0], rx.PathRefs[len(rx.PathRefs)-1]
		for i := 0; i < first.NumInstances; i++ {
			delay := last.Value[i][0] - first.Value[i][0]
			if delay > f.EndToEndDelay-first.Time {
				return schederr.New(schederr.ScheduleInvalid, "verify.checkEndToEnd",
					fmt.Sprintf("frame %d receiver %d instance %d: end-to-end delay %d exceeds %d", f.ID, rx.ReceiverID, i, delay, f.EndToEndDelay-first.Time))
			}
		}
	}
	return nil
}
