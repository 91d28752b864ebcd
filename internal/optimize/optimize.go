// Package optimize implements the Optimize Engine of §4.6: it re-opens a
// link already populated by the Patch Engine as a bounded MILP, honoring
// every fixed transmission while searching for a better objective value
// for the new frames.
package optimize

import (
	"context"
	"fmt"

	"github.com/signalsfoundry/shsched/internal/constraintmodel"
	"github.com/signalsfoundry/shsched/internal/milp"
	"github.com/signalsfoundry/shsched/internal/netmodel"
	"github.com/signalsfoundry/shsched/internal/schederr"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("shsched-optimize")

// Fixed is an already-placed transmission (from a fixed frame or the SHP
// reservation) whose offset is pinned by bounds rather than re-decided.
type Fixed struct {
	LinkID int
	Offset *netmodel.Offset // NumInstances x 1, Value already populated
}

// Candidate is a new frame whose instances are bounded [min, max] from the
// patch pass and now compete for a better placement.
type Candidate struct {
	FrameID    int
	Dur        int64
	MinPerInst []int64
	MaxPerInst []int64
}

// Result carries each candidate's re-solved per-instance offsets.
type Result struct {
	Starts map[int][]int64
}

// Run re-solves one link: fixed transmissions pinned, SHP pinned,
// candidates bounded by their patch-derived ranges with per-frame
// FrameDist slack and pairwise disjunctive contention constraints among
// the candidates and against the SHP reservation. The whole candidate set
// is solved in one backend invocation sharing a single LinkDist variable;
// Run does not use the incremental driver and does not split the
// candidates into K-frame batches.
func Run(ctx context.Context, b milp.Backend, linkID int, fixed []Fixed, shp *netmodel.SHP, shpOffset *netmodel.Offset, candidates []Candidate, params milp.Params) (*Result, error) {
	ctx, span := tracer.Start(ctx, "scheduling.optimize",
		trace.WithAttributes(
			attribute.Int("link_id", linkID),
			attribute.Int("candidate_count", len(candidates)),
			attribute.Int("fixed_count", len(fixed)),
		))
	defer span.End()

	for _, fx := range fixed {
		for i := 0; i < fx.Offset.NumInstances; i++ {
			v, err := b.AddVar(fx.Offset.Value[i][0], fx.Offset.Value[i][0], milp.Integer, fmt.Sprintf("x_fixed_L%d_i%d", linkID, i))
			if err != nil {
				return nil, schederr.Wrap(schederr.BackendError, "optimize.Run", "pinning fixed transmission", err)
			}
			fx.Offset.VarHandle[i][0] = v
		}
	}
	if shp.Active() && shpOffset != nil {
		for i := 0; i < shpOffset.NumInstances; i++ {
			v, err := b.AddVar(shpOffset.Value[i][0], shpOffset.Value[i][0], milp.Integer, fmt.Sprintf("x_SHP_L%d_i%d", linkID, i))
			if err != nil {
				return nil, schederr.Wrap(schederr.BackendError, "optimize.Run", "pinning SHP offset", err)
			}
			shpOffset.VarHandle[i][0] = v
		}
	}

	offsets := make(map[int]*netmodel.Offset, len(candidates))
	frameDist := make(map[int]milp.VarHandle, len(candidates))

	for _, c := range candidates {
		off := netmodel.NewOffset(linkID, len(c.MinPerInst), 1)
		off.Time = c.Dur
		var maxSpan int64
		for i := range c.MinPerInst {
			v, err := b.AddVar(c.MinPerInst[i], c.MaxPerInst[i], milp.Integer, fmt.Sprintf("x_F%d_L%d_i%d", c.FrameID, linkID, i))
			if err != nil {
				return nil, schederr.Wrap(schederr.BackendError, "optimize.Run", "adding candidate variable", err)
			}
			off.VarHandle[i][0] = v
			off.MinOffset[i][0] = c.MinPerInst[i]
			off.MaxOffset[i][0] = c.MaxPerInst[i]
			if span := c.MaxPerInst[i] - c.MinPerInst[i]; span > maxSpan {
				maxSpan = span
			}
		}
		fd, err := b.AddVar(0, maxSpan, milp.Integer, fmt.Sprintf("FrameDist_F%d", c.FrameID))
		if err != nil {
			return nil, schederr.Wrap(schederr.BackendError, "optimize.Run", "adding FrameDist variable", err)
		}
		if err := b.SetObjectiveCoefficient(fd, 0.9); err != nil {
			return nil, schederr.Wrap(schederr.BackendError, "optimize.Run", "setting FrameDist objective weight", err)
		}
		for i := range c.MinPerInst {
			lower := milp.LinExpr{{Var: off.VarHandle[i][0], Coeff: 1}, {Var: fd, Coeff: -1}}
			if err := b.AddConstraint(lower, milp.GE, c.MinPerInst[i], fmt.Sprintf("optlb_F%d_i%d", c.FrameID, i)); err != nil {
				return nil, schederr.Wrap(schederr.BackendError, "optimize.Run", "adding lower FrameDist constraint", err)
			}
			upper := milp.LinExpr{{Var: off.VarHandle[i][0], Coeff: 1}, {Var: fd, Coeff: 1}}
			if err := b.AddConstraint(upper, milp.LE, c.MaxPerInst[i], fmt.Sprintf("optub_F%d_i%d", c.FrameID, i)); err != nil {
				return nil, schederr.Wrap(schederr.BackendError, "optimize.Run", "adding upper FrameDist constraint", err)
			}
		}
		offsets[c.FrameID] = off
		frameDist[c.FrameID] = fd
	}

	links := constraintmodel.NewLinkDistRegistry(b)
	var hyperperiod int64
	for _, off := range offsets {
		for i := 0; i < off.NumInstances; i++ {
			if v := off.MaxOffset[i][0]; v > hyperperiod {
				hyperperiod = v
			}
		}
	}
	linkDist, err := links.Get(linkID, hyperperiod+1)
	if err != nil {
		return nil, schederr.Wrap(schederr.BackendError, "optimize.Run", "adding LinkDist variable", err)
	}

	ids := make([]int, 0, len(candidates))
	for _, c := range candidates {
		ids = append(ids, c.FrameID)
	}
	for i, idA := range ids {
		for _, idB := range ids[i+1:] {
			if err := pairwiseDisjunction(b, offsets[idA], offsets[idB], linkDist, fmt.Sprintf("F%d_F%d", idA, idB)); err != nil {
				return nil, err
			}
		}
		if shp.Active() && shpOffset != nil {
			if err := pairwiseDisjunction(b, offsets[idA], shpOffset, linkDist, fmt.Sprintf("F%d_SHP", idA)); err != nil {
				return nil, err
			}
		}
	}

	if err := b.Update(); err != nil {
		return nil, schederr.Wrap(schederr.BackendError, "optimize.Run", "backend update", err)
	}
	status, err := b.Optimize(ctx, params)
	if err != nil {
		return nil, schederr.Wrap(schederr.BackendError, "optimize.Run", "solver invocation", err)
	}
	if status != milp.StatusOptimal && status != milp.StatusFeasible {
		return nil, schederr.New(schederr.NoSchedule, "optimize.Run", "backend returned no incumbent")
	}

	result := &Result{Starts: make(map[int][]int64, len(candidates))}
	for _, c := range candidates {
		off := offsets[c.FrameID]
		starts := make([]int64, off.NumInstances)
		for i := 0; i < off.NumInstances; i++ {
			val, err := b.Value(off.VarHandle[i][0])
			if err != nil {
				return nil, schederr.Wrap(schederr.BackendError, "optimize.Run", "reading solved candidate value", err)
			}
			starts[i] = val
		}
		result.Starts[c.FrameID] = starts
	}
	return result, nil
}

// pairwiseDisjunction mirrors §4.3's contention constraint for every
// (instance, instance) pair between two single-link offsets — every pair
// is checked since, on a targeted link under re-optimization, no window
// pre-filter is assumed.
func pairwiseDisjunction(b milp.Backend, a, other *netmodel.Offset, linkDist milp.VarHandle, label string) error {
	for i := 0; i < a.NumInstances; i++ {
		for j := 0; j < other.NumInstances; j++ {
			name := fmt.Sprintf("%s_i%d_j%d", label, i, j)
			aVar, err := b.AddVar(0, 1, milp.Binary, "a_"+name)
			if err != nil {
				return schederr.Wrap(schederr.BackendError, "optimize.pairwiseDisjunction", "adding indicator", err)
			}
			bVar, err := b.AddVar(0, 1, milp.Binary, "b_"+name)
			if err != nil {
				return schederr.Wrap(schederr.BackendError, "optimize.pairwiseDisjunction", "adding indicator", err)
			}
			if err := b.AddOr([]milp.VarHandle{aVar, bVar}, "or_"+name); err != nil {
				return schederr.Wrap(schederr.BackendError, "optimize.pairwiseDisjunction", "adding or constraint", err)
			}
			exprA := milp.LinExpr{
				{Var: other.VarHandle[j][0], Coeff: 1},
				{Var: a.VarHandle[i][0], Coeff: -1},
				{Var: linkDist, Coeff: -1},
			}
			if err := b.AddIndicatorConstraint(aVar, 1, exprA, milp.GE, a.Time, "ind_a_"+name); err != nil {
				return schederr.Wrap(schederr.BackendError, "optimize.pairwiseDisjunction", "adding indicator constraint", err)
			}
			exprB := milp.LinExpr{
				{Var: a.VarHandle[i][0], Coeff: 1},
				{Var: other.VarHandle[j][0], Coeff: -1},
				{Var: linkDist, Coeff: -1},
			}
			if err := b.AddIndicatorConstraint(bVar, 1, exprB, milp.GE, other.Time, "ind_b_"+name); err != nil {
				return schederr.Wrap(schederr.BackendError, "optimize.pairwiseDisjunction", "adding indicator constraint", err)
			}
		}
	}
	return nil
}
