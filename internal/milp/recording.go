package milp

import (
	"context"
	"errors"
)

var errOutOfRange = errors.New("milp: variable handle out of range")

// RecordingBackend is a Backend that records every call it receives instead
// of solving anything. It exists so the constraint model (§4.3) can be unit
// tested without depending on a real solver, matching the "testable with a
// recording/mock backend" isolation goal from the scheduling design notes.
//
// Optimize always reports StatusOptimal; Value returns the variable's lower
// bound, a deterministic placeholder a test can assert against.
type RecordingBackend struct {
	Vars        []RecordedVar
	Constraints []RecordedConstraint
	Indicators  []RecordedIndicator
	Ors         []RecordedOr
	Objective   map[VarHandle]float64
	UpdateCalls int
	OptimizeN   int
}

type RecordedVar struct {
	LB, UB int64
	Type   VarType
	Name   string
}

type RecordedConstraint struct {
	Expr  LinExpr
	Sense Sense
	RHS   int64
	Name  string
}

type RecordedIndicator struct {
	Ind      VarHandle
	IndValue int
	Expr     LinExpr
	Sense    Sense
	RHS      int64
	Name     string
}

type RecordedOr struct {
	Vars []VarHandle
	Name string
}

// NewRecordingBackend constructs an empty recorder.
func NewRecordingBackend() *RecordingBackend {
	return &RecordingBackend{Objective: make(map[VarHandle]float64)}
}

func (r *RecordingBackend) AddVar(lb, ub int64, vtype VarType, name string) (VarHandle, error) {
	r.Vars = append(r.Vars, RecordedVar{LB: lb, UB: ub, Type: vtype, Name: name})
	return VarHandle(len(r.Vars) - 1), nil
}

func (r *RecordingBackend) SetBounds(v VarHandle, lb, ub int64) error {
	r.Vars[v].LB, r.Vars[v].UB = lb, ub
	return nil
}

func (r *RecordingBackend) AddConstraint(expr LinExpr, sense Sense, rhs int64, name string) error {
	r.Constraints = append(r.Constraints, RecordedConstraint{Expr: expr, Sense: sense, RHS: rhs, Name: name})
	return nil
}

func (r *RecordingBackend) AddIndicatorConstraint(ind VarHandle, indValue int, expr LinExpr, sense Sense, rhs int64, name string) error {
	r.Indicators = append(r.Indicators, RecordedIndicator{Ind: ind, IndValue: indValue, Expr: expr, Sense: sense, RHS: rhs, Name: name})
	return nil
}

func (r *RecordingBackend) AddOr(vars []VarHandle, name string) error {
	r.Ors = append(r.Ors, RecordedOr{Vars: append([]VarHandle(nil), vars...), Name: name})
	return nil
}

func (r *RecordingBackend) SetObjectiveCoefficient(v VarHandle, coeff float64) error {
	r.Objective[v] = coeff
	return nil
}

func (r *RecordingBackend) Update() error {
	r.UpdateCalls++
	return nil
}

func (r *RecordingBackend) Optimize(_ context.Context, _ Params) (Status, error) {
	r.OptimizeN++
	return StatusOptimal, nil
}

func (r *RecordingBackend) Value(v VarHandle) (int64, error) {
	if int(v) < 0 || int(v) >= len(r.Vars) {
		return 0, errOutOfRange
	}
	return r.Vars[v].LB, nil
}
