// Package constraintmodel translates the data model into calls against a
// milp.Backend, per §4.3: variable domains, path dependency, end-to-end
// delay, and pairwise disjunctive contention-free constraints, plus the
// weighted objective. It is deliberately backend-agnostic — every function
// here works identically against milp.RecordingBackend in tests and
// milp.ReferenceBackend (or any real solver binding) in production.
package constraintmodel

// Window is the active transmission window of a frame (or the SHP
// reservation, modeled as a degenerate frame) used to decide which
// instance pairs can possibly contend for a link.
type Window struct {
	Start    int64
	Deadline int64
	Period   int64
}

// FrameWindow builds the Window for an ordinary frame.
func FrameWindow(start, deadline, period int64) Window {
	return Window{Start: start, Deadline: deadline, Period: period}
}

// Overlaps reports whether this window's instance i intersects other's
// instance j, per §4.3's "window of F at i is [start+1, deadline+1) +
// i*period; pairs with non-empty intersection generate the disjunction."
func (w Window) Overlaps(i int, other Window, j int) bool {
	aLo := w.Start + 1 + int64(i)*w.Period
	aHi := w.Deadline + 1 + int64(i)*w.Period
	bLo := other.Start + 1 + int64(j)*other.Period
	bHi := other.Deadline + 1 + int64(j)*other.Period
	return aLo < bHi && bLo < aHi
}
