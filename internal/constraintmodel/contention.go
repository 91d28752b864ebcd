package constraintmodel

import (
	"fmt"

	"github.com/signalsfoundry/shsched/internal/milp"
	"github.com/signalsfoundry/shsched/internal/netmodel"
)

// LinkDistRegistry hands out one LinkDist variable per link per iteration:
// Get returns the same variable for a link until Rotate is called, and
// Rotate zeroes the previous iteration's objective coefficients before the
// next Get mints fresh ones.
type LinkDistRegistry struct {
	b       milp.Backend
	current map[int]milp.VarHandle
}

// NewLinkDistRegistry constructs an empty registry bound to a backend.
func NewLinkDistRegistry(b milp.Backend) *LinkDistRegistry {
	return &LinkDistRegistry{b: b, current: make(map[int]milp.VarHandle)}
}

// Get returns the current iteration's LinkDist variable for linkID,
// creating it (bounded [0, hyperperiod], objective weight 0.1) on first
// use.
func (r *LinkDistRegistry) Get(linkID int, hyperperiod int64) (milp.VarHandle, error) {
	if v, ok := r.current[linkID]; ok {
		return v, nil
	}
	v, err := r.b.AddVar(0, hyperperiod, milp.Integer, fmt.Sprintf("LinkDist_L%d", linkID))
	if err != nil {
		return milp.Unset, err
	}
	if err := r.b.SetObjectiveCoefficient(v, 0.1); err != nil {
		return milp.Unset, err
	}
	r.current[linkID] = v
	return v, nil
}

// Rotate zeroes every tracked variable's objective coefficient (the
// previous iteration's copies stop contributing to the objective, per
// §4.4 step 2) and clears the map so the next Get call mints fresh ones.
func (r *LinkDistRegistry) Rotate() error {
	for _, v := range r.current {
		if err := r.b.SetObjectiveCoefficient(v, 0); err != nil {
			return err
		}
	}
	r.current = make(map[int]milp.VarHandle)
	return nil
}

// RegisterContention emits the pairwise disjunctive contention-free
// constraints of §4.3 between frame a and frame b on every link they share
// (RegisterContentionWithSHP does the same against the SHP reservation). Callers must present frames in the scheduling order (a before b);
// the "F < F'" half of the disjunction follows from argument order alone.
func RegisterContention(b milp.Backend, a, bFrame *netmodel.Frame, winA, winB Window, links *LinkDistRegistry, hyperperiod int64) error {
	for _, offA := range a.Offsets.Arena {
		offB, ok := bFrame.Offsets.Get(offA.LinkID)
		if !ok {
			continue
		}
		if err := registerPairOnLink(b, offA, winA, offB, winB, links, hyperperiod, fmt.Sprintf("F%d_F%d", a.ID, bFrame.ID)); err != nil {
			return err
		}
	}
	return nil
}

// RegisterContentionWithSHP emits the same disjunctive constraints between
// an ordinary frame and the SHP reservation's offsets.
func RegisterContentionWithSHP(b milp.Backend, f *netmodel.Frame, win Window, shpOffsets *netmodel.FrameOffsets, shp *netmodel.SHP, links *LinkDistRegistry, hyperperiod int64) error {
	if !shp.Active() {
		return nil
	}
	shpWin := Window{Start: 0, Deadline: shp.Period, Period: shp.Period}
	for _, offF := range f.Offsets.Arena {
		offSHP, ok := shpOffsets.Get(offF.LinkID)
		if !ok {
			continue
		}
		if err := registerPairOnLink(b, offF, win, offSHP, shpWin, links, hyperperiod, fmt.Sprintf("F%d_SHP", f.ID)); err != nil {
			return err
		}
	}
	return nil
}

func registerPairOnLink(b milp.Backend, offA *netmodel.Offset, winA Window, offB *netmodel.Offset, winB Window, links *LinkDistRegistry, hyperperiod int64, label string) error {
	linkDist, err := links.Get(offA.LinkID, hyperperiod)
	if err != nil {
		return err
	}
	for i := 0; i < offA.NumInstances; i++ {
		for j := 0; j < offB.NumInstances; j++ {
			if !winA.Overlaps(i, winB, j) {
				continue
			}
			for r := 0; r < offA.NumReplicas; r++ {
				for rp := 0; rp < offB.NumReplicas; rp++ {
					if err := registerDisjunction(b, offA, i, r, offB, j, rp, linkDist, fmt.Sprintf("%s_L%d_i%d_j%d_r%d_rp%d", label, offA.LinkID, i, j, r, rp)); err != nil {
						return err
					}
				}
			}
		}
	}
	return nil
}

func registerDisjunction(b milp.Backend, offA *netmodel.Offset, i, r int, offB *netmodel.Offset, j, rp int, linkDist milp.VarHandle, name string) error {
	aVar, err := b.AddVar(0, 1, milp.Binary, "a_"+name)
	if err != nil {
		return err
	}
	bVar, err := b.AddVar(0, 1, milp.Binary, "b_"+name)
	if err != nil {
		return err
	}
	if err := b.AddOr([]milp.VarHandle{aVar, bVar}, "or_"+name); err != nil {
		return err
	}

	xA := offA.VarHandle[i][r]
	xB := offB.VarHandle[j][rp]

	// a = 1: x(F',L,j,rp) - x(F,L,i,r) - LinkDist >= dur(F,L)
	exprA := milp.LinExpr{
		{Var: xB, Coeff: 1},
		{Var: xA, Coeff: -1},
		{Var: linkDist, Coeff: -1},
	}
	if err := b.AddIndicatorConstraint(aVar, 1, exprA, milp.GE, offA.Time, "ind_a_"+name); err != nil {
		return err
	}

	// b = 1: x(F,L,i,r) - x(F',L,j,rp) - LinkDist >= dur(F',L)
	exprB := milp.LinExpr{
		{Var: xA, Coeff: 1},
		{Var: xB, Coeff: -1},
		{Var: linkDist, Coeff: -1},
	}
	return b.AddIndicatorConstraint(bVar, 1, exprB, milp.GE, offB.Time, "ind_b_"+name)
}
