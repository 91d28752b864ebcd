// Package milp defines the narrow capability the constraint model (§4.3 of
// the scheduling specification) is built against, isolating the scheduling
// core from any concrete solver. Interaction with a specific optimization
// solver library is explicitly out of scope for this module — callers wire
// a Backend implementation; this package only describes the shape of one
// and ships a reference implementation suitable for tests and small
// deployments.
package milp

import (
	"context"
	"time"
)

// VarHandle is an opaque reference to a variable registered with a Backend.
type VarHandle int

// Unset is returned by Backend.AddVar's callers to mean "no variable".
const Unset VarHandle = -1

// VarType is the domain of a decision variable.
type VarType int

const (
	Integer VarType = iota
	Binary
)

// Sense is the relational operator of a linear constraint.
type Sense int

const (
	LE Sense = iota // <=
	GE              // >=
	EQ              // ==
)

// Term is one coefficient*variable addend of a linear expression.
type Term struct {
	Var   VarHandle
	Coeff float64
}

// LinExpr is a sum of Terms.
type LinExpr []Term

// Status is the terminal state of a solver invocation.
type Status int

const (
	// StatusOptimal means the backend proved optimality within mip_gap.
	StatusOptimal Status = iota
	// StatusFeasible means the backend returned the best incumbent found
	// before time_limit expired, without proving optimality.
	StatusFeasible
	// StatusInfeasible means the backend proved the model has no solution.
	StatusInfeasible
	// StatusNoIncumbent means the backend exhausted its budget without
	// finding any feasible solution (indistinguishable from infeasible to
	// the caller, which must treat it as NoSchedule per spec §7).
	StatusNoIncumbent
)

// Params are the solver invocation knobs from spec §4.3.
type Params struct {
	// MIPGap is the acceptable relative optimality gap; 0 means "optimal".
	MIPGap float64
	// TimeLimit bounds a single Optimize call. Zero leaves the limit to the
	// backend; ReferenceBackend then stops searching after 10 seconds.
	TimeLimit time.Duration
}

// Backend is the narrow capability the constraint model requires: add
// variables and constraints, wire the objective, solve, and read back
// values. Every method may be called many times across a session; Update
// must be called before Value after new constraints are added, mirroring
// solvers (e.g. Gurobi) that batch model edits and require an explicit
// synchronization point before reads.
type Backend interface {
	// AddVar registers a new decision variable with the given bounds and
	// domain, returning a handle for later reference.
	AddVar(lb, ub int64, vtype VarType, name string) (VarHandle, error)

	// SetBounds updates the bounds of an existing variable (used to pin a
	// previously-free variable, or to widen/narrow a patch/optimize range).
	SetBounds(v VarHandle, lb, ub int64) error

	// AddConstraint adds a linear constraint: expr sense rhs.
	AddConstraint(expr LinExpr, sense Sense, rhs int64, name string) error

	// AddIndicatorConstraint adds "if ind == indValue then expr sense rhs".
	// ind must be a Binary variable.
	AddIndicatorConstraint(ind VarHandle, indValue int, expr LinExpr, sense Sense, rhs int64, name string) error

	// AddOr adds sum(vars) >= 1, i.e. at least one of the given binaries
	// must be true. Used for the "a OR b" half of a disjunctive pair.
	AddOr(vars []VarHandle, name string) error

	// SetObjectiveCoefficient sets (or rewrites, per §9's "objective
	// coefficient rewriting" note) the objective coefficient of v. A
	// coefficient of 0 removes a variable's influence without removing the
	// variable or invalidating constraints that reference it.
	SetObjectiveCoefficient(v VarHandle, coeff float64) error

	// Update synchronizes any pending model edits before Optimize or Value
	// are called, matching solvers that require an explicit model update.
	Update() error

	// Optimize maximizes the objective subject to every added constraint,
	// honoring params.
	Optimize(ctx context.Context, params Params) (Status, error)

	// Value returns the value assigned to v by the most recent Optimize
	// call. It is only valid after a StatusOptimal or StatusFeasible
	// result.
	Value(v VarHandle) (int64, error)
}
