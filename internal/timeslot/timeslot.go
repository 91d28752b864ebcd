// Package timeslot implements the Time Model of §4.1: it derives a single
// global timeslot length that evenly divides every meaningful duration in
// the scenario, then renormalizes the rest of the data model to integer
// timeslot units so every downstream package can work in plain integer
// arithmetic.
package timeslot

import (
	"github.com/signalsfoundry/shsched/internal/netmodel"
	"github.com/signalsfoundry/shsched/internal/schederr"
)

// Model is the resolved global timeslot and the hyperperiod: Timeslot is
// the timeslot length in nanoseconds, Hyperperiod is already expressed in
// timeslot units.
type Model struct {
	Timeslot    int64
	Hyperperiod int64
}

// RawDuration computes a frame's transmission duration on a link in
// nanoseconds per §4.1: (size_bytes * 8 * 1000) / speed_MBps, floored and
// clamped to at least 1 ns.
func RawDuration(sizeBytes int, speedMBs float64) int64 {
	if speedMBs <= 0 {
		return 1
	}
	ns := int64(float64(sizeBytes) * 8 * 1000 / speedMBs)
	if ns < 1 {
		return 1
	}
	return ns
}

// durations collects, for every (frame, link) pair touched by a path, the
// raw nanosecond duration, keyed by frame id then link id.
type durations struct {
	byFrame map[int]map[int]int64
}

func newDurations() *durations {
	return &durations{byFrame: make(map[int]map[int]int64)}
}

func (d *durations) set(frameID, linkID int, ns int64) {
	m, ok := d.byFrame[frameID]
	if !ok {
		m = make(map[int]int64)
		d.byFrame[frameID] = m
	}
	m[linkID] = ns
}

func (d *durations) get(frameID, linkID int) int64 {
	return d.byFrame[frameID][linkID]
}

// Compute runs the Time Model's algorithm: fold the SHP duration (if
// active) and every (frame, link) raw duration into a running GCD, then
// renormalize the hyperperiod and every frame/SHP field to timeslot units.
// It returns the resolved Model and each frame's per-link durations (frame
// id -> link id -> duration), already renormalized, for use by the Offset
// Graph Builder.
func Compute(topo *netmodel.Topology, traffic *netmodel.Traffic, shp *netmodel.SHP) (*Model, map[int]map[int]int64, error) {
	var timeslot int64
	if shp.Active() {
		timeslot = shp.Duration
	}

	raw := newDurations()
	for _, f := range traffic.Frames {
		for _, rx := range f.Receivers {
			for _, linkID := range rx.Path {
				link, ok := topo.Links[linkID]
				if !ok {
					return nil, nil, schederr.New(schederr.InvalidInput, "timeslot.Compute", "path references unknown link id")
				}
				if _, already := raw.byFrame[f.ID]; !already || raw.get(f.ID, linkID) == 0 {
					ns := RawDuration(f.SizeBytes, link.SpeedMBs)
					raw.set(f.ID, linkID, ns)
					timeslot = gcd(timeslot, ns)
				}
			}
		}
	}

	if timeslot == 0 {
		return nil, nil, schederr.New(schederr.InvalidTiming, "timeslot.Compute", "resolved timeslot length is zero")
	}

	hyper := int64(1)
	for _, f := range traffic.Frames {
		if f.Period > 0 {
			hyper = lcm(hyper, f.Period)
		}
	}
	if shp.Active() {
		hyper = lcm(hyper, shp.Period)
	}

	renormalized := make(map[int]map[int]int64, len(raw.byFrame))
	for frameID, perLink := range raw.byFrame {
		m := make(map[int]int64, len(perLink))
		for linkID, ns := range perLink {
			m[linkID] = ns / timeslot
		}
		renormalized[frameID] = m
	}

	for _, f := range traffic.Frames {
		f.Period /= timeslot
		f.Deadline /= timeslot
		f.Starting /= timeslot
		if f.EndToEndDelay != 0 {
			f.EndToEndDelay /= timeslot
		}
	}
	if shp.Active() {
		shp.Period /= timeslot
		shp.Duration /= timeslot
	}

	return &Model{Timeslot: timeslot, Hyperperiod: hyper / timeslot}, renormalized, nil
}

func gcd(a, b int64) int64 {
	if a == 0 {
		return b
	}
	if b == 0 {
		return a
	}
	for b != 0 {
		a, b = b, a%b
	}
	if a < 0 {
		return -a
	}
	return a
}

func lcm(a, b int64) int64 {
	if a == 0 || b == 0 {
		return 0
	}
	g := gcd(a, b)
	return a / g * b
}
