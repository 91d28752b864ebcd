package constraintmodel

import (
	"fmt"

	"github.com/signalsfoundry/shsched/internal/milp"
	"github.com/signalsfoundry/shsched/internal/netmodel"
)

// RegisterFrame adds every offset variable of f (for all of its links,
// instances and replicas), the path-dependency and end-to-end delay
// constraints of §4.3, and the frame's FrameDist slack variable. When
// f.EndToEndDelay is 0 ("unconstrained" per §3), hyperperiod stands in for
// the bound — the widest value that cannot itself become infeasible.
func RegisterFrame(b milp.Backend, f *netmodel.Frame, switchMinTime, hyperperiod int64) (milp.VarHandle, error) {
	endToEnd := f.EndToEndDelay
	if endToEnd == 0 {
		endToEnd = hyperperiod
	}

	for _, off := range f.Offsets.Arena {
		for i := 0; i < off.NumInstances; i++ {
			for r := 0; r < off.NumReplicas; r++ {
				lb := f.Starting + int64(i)*f.Period + int64(r)*off.Time
				ub := f.Deadline - off.Time + int64(i)*f.Period - int64(r)*off.Time
				name := fmt.Sprintf("x_F%d_L%d_i%d_r%d", f.ID, off.LinkID, i, r)
				v, err := b.AddVar(lb, ub, milp.Integer, name)
				if err != nil {
					return milp.Unset, err
				}
				off.VarHandle[i][r] = v
			}
		}
	}

	frameDist, err := b.AddVar(0, endToEnd, milp.Integer, fmt.Sprintf("FrameDist_F%d", f.ID))
	if err != nil {
		return milp.Unset, err
	}
	if err := b.SetObjectiveCoefficient(frameDist, 0.9); err != nil {
		return milp.Unset, err
	}

	for _, rx := range f.Receivers {
		for pos := 0; pos+1 < len(rx.PathRefs); pos++ {
			cur, next := rx.PathRefs[pos], rx.PathRefs[pos+1]
			for i := 0; i < cur.NumInstances; i++ {
				expr := milp.LinExpr{
					{Var: next.VarHandle[i][0], Coeff: 1},
					{Var: cur.VarHandle[i][0], Coeff: -1},
					{Var: frameDist, Coeff: -1},
				}
				name := fmt.Sprintf("pathdep_F%d_%d_%d_i%d", f.ID, cur.LinkID, next.LinkID, i)
				if err := b.AddConstraint(expr, milp.GE, cur.Time+switchMinTime, name); err != nil {
					return milp.Unset, err
				}
			}
		}

		if len(rx.PathRefs) == 0 {
			continue
		}
		first, last := rx.PathRefs[0], rx.PathRefs[len(rx.PathRefs)-1]
		for i := 0; i < first.NumInstances; i++ {
			// last - first <= end_to_end - dur(first)
			e2e := milp.LinExpr{
				{Var: last.VarHandle[i][0], Coeff: 1},
				{Var: first.VarHandle[i][0], Coeff: -1},
			}
			if err := b.AddConstraint(e2e, milp.LE, endToEnd-first.Time, fmt.Sprintf("e2e_F%d_i%d", f.ID, i)); err != nil {
				return milp.Unset, err
			}
			// first - FrameDist >= start + i*period
			lower := milp.LinExpr{
				{Var: first.VarHandle[i][0], Coeff: 1},
				{Var: frameDist, Coeff: -1},
			}
			if err := b.AddConstraint(lower, milp.GE, f.Starting+int64(i)*f.Period, fmt.Sprintf("e2elb_F%d_i%d", f.ID, i)); err != nil {
				return milp.Unset, err
			}
			// last + FrameDist <= deadline - dur(last) + i*period
			upper := milp.LinExpr{
				{Var: last.VarHandle[i][0], Coeff: 1},
				{Var: frameDist, Coeff: 1},
			}
			if err := b.AddConstraint(upper, milp.LE, f.Deadline-last.Time+int64(i)*f.Period, fmt.Sprintf("e2eub_F%d_i%d", f.ID, i)); err != nil {
				return milp.Unset, err
			}
		}
	}

	return frameDist, nil
}

// RegisterSHP adds the SHP's pinned offset variables (lower == upper ==
// i*period on every link), returning nothing assignable since they never
// enter the objective.
func RegisterSHP(b milp.Backend, shpOffsets *netmodel.FrameOffsets, shp *netmodel.SHP) error {
	if !shp.Active() {
		return nil
	}
	for _, off := range shpOffsets.Arena {
		for i := 0; i < off.NumInstances; i++ {
			pinned := int64(i) * shp.Period
			v, err := b.AddVar(pinned, pinned, milp.Integer, fmt.Sprintf("x_SHP_L%d_i%d", off.LinkID, i))
			if err != nil {
				return err
			}
			off.VarHandle[i][0] = v
		}
	}
	return nil
}
