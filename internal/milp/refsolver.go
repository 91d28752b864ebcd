package milp

import (
	"context"
	"errors"
	"math"
	"time"
)

// ReferenceBackend is a small, self-contained Backend implementation: a
// bounds-propagating backtracking search over integer variables. It is
// exact for feasibility (a StatusInfeasible result is a proof), but it does
// not attempt to prove optimality — it accepts the first feasible complete
// assignment it finds, biased toward growing slack variables and shrinking
// everything else. That matches spec's own accepted non-goal of guaranteed
// optimality; production deployments wire a real MILP solver behind the
// same Backend interface instead.
type ReferenceBackend struct {
	vars  []refVar
	lin   []linCon
	ind   []indCon
	or    []orCon
	nodes int
	cap   int
	deadline time.Time
}

type refVar struct {
	lb, ub   int64
	vtype    VarType
	objCoeff float64
	assigned bool
	value    int64
}

type linCon struct {
	expr  LinExpr
	sense Sense
	rhs   int64
}

type indCon struct {
	ind      VarHandle
	indValue int
	expr     LinExpr
	sense    Sense
	rhs      int64
}

type orCon struct {
	vars []VarHandle
}

// NewReferenceBackend constructs an empty reference solver.
func NewReferenceBackend() *ReferenceBackend {
	return &ReferenceBackend{cap: 2_000_000}
}

func (b *ReferenceBackend) AddVar(lb, ub int64, vtype VarType, name string) (VarHandle, error) {
	if ub < lb {
		return Unset, errors.New("milp: upper bound below lower bound for " + name)
	}
	b.vars = append(b.vars, refVar{lb: lb, ub: ub, vtype: vtype})
	return VarHandle(len(b.vars) - 1), nil
}

func (b *ReferenceBackend) SetBounds(v VarHandle, lb, ub int64) error {
	if err := b.checkHandle(v); err != nil {
		return err
	}
	b.vars[v].lb, b.vars[v].ub = lb, ub
	return nil
}

func (b *ReferenceBackend) AddConstraint(expr LinExpr, sense Sense, rhs int64, name string) error {
	b.lin = append(b.lin, linCon{expr: cloneExpr(expr), sense: sense, rhs: rhs})
	return nil
}

func (b *ReferenceBackend) AddIndicatorConstraint(ind VarHandle, indValue int, expr LinExpr, sense Sense, rhs int64, name string) error {
	if err := b.checkHandle(ind); err != nil {
		return err
	}
	b.ind = append(b.ind, indCon{ind: ind, indValue: indValue, expr: cloneExpr(expr), sense: sense, rhs: rhs})
	return nil
}

func (b *ReferenceBackend) AddOr(vars []VarHandle, name string) error {
	for _, v := range vars {
		if err := b.checkHandle(v); err != nil {
			return err
		}
	}
	b.or = append(b.or, orCon{vars: append([]VarHandle(nil), vars...)})
	return nil
}

func (b *ReferenceBackend) SetObjectiveCoefficient(v VarHandle, coeff float64) error {
	if err := b.checkHandle(v); err != nil {
		return err
	}
	b.vars[v].objCoeff = coeff
	return nil
}

func (b *ReferenceBackend) Update() error { return nil }

func (b *ReferenceBackend) Optimize(ctx context.Context, params Params) (Status, error) {
	b.nodes = 0
	if params.TimeLimit > 0 {
		b.deadline = time.Now().Add(params.TimeLimit)
	} else {
		b.deadline = time.Now().Add(10 * time.Second)
	}

	assigned := make([]bool, len(b.vars))
	assignment := make([]int64, len(b.vars))
	cutoff := false

	found := b.search(ctx, 0, assigned, assignment, &cutoff)
	if !found {
		if cutoff {
			return StatusNoIncumbent, nil
		}
		return StatusInfeasible, nil
	}
	for i, val := range assignment {
		b.vars[i].value = val
		b.vars[i].assigned = true
	}
	if cutoff {
		return StatusFeasible, nil
	}
	return StatusFeasible, nil
}

func (b *ReferenceBackend) Value(v VarHandle) (int64, error) {
	if err := b.checkHandle(v); err != nil {
		return 0, err
	}
	if !b.vars[v].assigned {
		return 0, errors.New("milp: value requested before a successful Optimize")
	}
	return b.vars[v].value, nil
}

func (b *ReferenceBackend) checkHandle(v VarHandle) error {
	if int(v) < 0 || int(v) >= len(b.vars) {
		return errOutOfRange
	}
	return nil
}

func cloneExpr(expr LinExpr) LinExpr {
	out := make(LinExpr, len(expr))
	copy(out, expr)
	return out
}

func (b *ReferenceBackend) search(ctx context.Context, idx int, assigned []bool, assignment []int64, cutoff *bool) bool {
	if idx == len(b.vars) {
		return b.checkAll(assignment)
	}

	b.nodes++
	if b.nodes > b.cap || time.Now().After(b.deadline) {
		*cutoff = true
		return false
	}
	select {
	case <-ctx.Done():
		*cutoff = true
		return false
	default:
	}

	lo, hi, ok := b.propagate(idx, assigned, assignment)
	if !ok {
		return false
	}

	for _, val := range valueOrder(lo, hi, b.vars[idx].objCoeff) {
		assignment[idx] = val
		assigned[idx] = true
		if b.search(ctx, idx+1, assigned, assignment, cutoff) {
			return true
		}
		assigned[idx] = false
		if *cutoff {
			return false
		}
	}
	return false
}

// valueOrder returns the domain [lo, hi] in the order values should be
// tried: descending when the variable is objective-maximized (slack
// variables), ascending otherwise (offsets prefer their earliest feasible
// slot, mirroring the patch engine's greedy bias).
func valueOrder(lo, hi int64, objCoeff float64) []int64 {
	n := int(hi - lo + 1)
	if n <= 0 {
		return nil
	}
	out := make([]int64, n)
	if objCoeff > 0 {
		for i := 0; i < n; i++ {
			out[i] = hi - int64(i)
		}
	} else {
		for i := 0; i < n; i++ {
			out[i] = lo + int64(i)
		}
	}
	return out
}

// propagate narrows variable idx's domain using constraints whose every
// other term is already assigned. It only specializes unit coefficients
// (+1/-1), which is every coefficient the constraint model ever emits;
// anything else is left unpruned and re-checked exhaustively at the leaf.
func (b *ReferenceBackend) propagate(idx int, assigned []bool, assignment []int64) (int64, int64, bool) {
	lo, hi := b.vars[idx].lb, b.vars[idx].ub

	tighten := func(coeff float64, sense Sense, bound float64) bool {
		switch coeff {
		case 1:
			switch sense {
			case LE:
				hi = minI64(hi, floorI64(bound))
			case GE:
				lo = maxI64(lo, ceilI64(bound))
			case EQ:
				if bound != math.Trunc(bound) {
					return false
				}
				v := int64(bound)
				lo, hi = maxI64(lo, v), minI64(hi, v)
			}
		case -1:
			switch sense {
			case LE:
				lo = maxI64(lo, ceilI64(-bound))
			case GE:
				hi = minI64(hi, floorI64(-bound))
			case EQ:
				if bound != math.Trunc(bound) {
					return false
				}
				v := int64(-bound)
				lo, hi = maxI64(lo, v), minI64(hi, v)
			}
		}
		return lo <= hi
	}

	for _, c := range b.lin {
		coeff, sum, found, ready := scanExpr(c.expr, VarHandle(idx), assigned, assignment)
		if !found || !ready {
			continue
		}
		if !tighten(coeff, c.sense, float64(c.rhs)-sum) {
			return 0, 0, false
		}
	}
	for _, c := range b.ind {
		if int(c.ind) == idx {
			continue // the indicator's own domain is never narrowed by its guarded expr
		}
		if !assigned[c.ind] || int64(assignment[c.ind]) != int64(c.indValue) {
			continue
		}
		coeff, sum, found, ready := scanExpr(c.expr, VarHandle(idx), assigned, assignment)
		if !found || !ready {
			continue
		}
		if !tighten(coeff, c.sense, float64(c.rhs)-sum) {
			return 0, 0, false
		}
	}
	for _, c := range b.or {
		member := false
		othersZero := true
		for _, v := range c.vars {
			if int(v) == idx {
				member = true
				continue
			}
			if !assigned[v] {
				othersZero = false
				continue
			}
			if assignment[v] != 0 {
				othersZero = false
			}
		}
		if member && othersZero {
			lo = maxI64(lo, 1)
		}
	}
	if lo > hi {
		return 0, 0, false
	}
	return lo, hi, true
}

// scanExpr returns (coeff of `want` in expr, sum of the other assigned
// terms, whether `want` appears, whether every other term is assigned).
func scanExpr(expr LinExpr, want VarHandle, assigned []bool, assignment []int64) (coeff, sum float64, found, ready bool) {
	ready = true
	for _, t := range expr {
		if t.Var == want {
			coeff = t.Coeff
			found = true
			continue
		}
		if !assigned[t.Var] {
			ready = false
			continue
		}
		sum += t.Coeff * float64(assignment[t.Var])
	}
	return coeff, sum, found, ready
}

func (b *ReferenceBackend) checkAll(assignment []int64) bool {
	eval := func(expr LinExpr) float64 {
		var sum float64
		for _, t := range expr {
			sum += t.Coeff * float64(assignment[t.Var])
		}
		return sum
	}
	satisfies := func(v float64, sense Sense, rhs int64) bool {
		switch sense {
		case LE:
			return v <= float64(rhs)+1e-9
		case GE:
			return v >= float64(rhs)-1e-9
		default:
			return math.Abs(v-float64(rhs)) < 1e-6
		}
	}

	for _, c := range b.lin {
		if !satisfies(eval(c.expr), c.sense, c.rhs) {
			return false
		}
	}
	for _, c := range b.ind {
		if assignment[c.ind] != int64(c.indValue) {
			continue
		}
		if !satisfies(eval(c.expr), c.sense, c.rhs) {
			return false
		}
	}
	for _, c := range b.or {
		var sum int64
		for _, v := range c.vars {
			sum += assignment[v]
		}
		if sum < 1 {
			return false
		}
	}
	return true
}

func minI64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

func maxI64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

func floorI64(v float64) int64 { return int64(math.Floor(v)) }
func ceilI64(v float64) int64  { return int64(math.Ceil(v)) }
