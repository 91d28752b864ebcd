// Package session implements the scheduling session state machine of
// §4.8: Empty -> Loaded -> Prepared -> Solving -> Solved -> Verified (or
// Failed). A Session is single-threaded, non-reentrant, and owns every
// piece of per-run state — offset matrices, the solver backend, the
// logger, and the metrics collector — so that two sessions never share
// mutable state even when run from the same process.
package session

import (
	"context"
	"time"

	"github.com/signalsfoundry/shsched/internal/logging"
	"github.com/signalsfoundry/shsched/internal/milp"
	"github.com/signalsfoundry/shsched/internal/netmodel"
	"github.com/signalsfoundry/shsched/internal/observability"
	"github.com/signalsfoundry/shsched/internal/offsetgraph"
	"github.com/signalsfoundry/shsched/internal/schederr"
	"github.com/signalsfoundry/shsched/internal/strategy"
	"github.com/signalsfoundry/shsched/internal/timeslot"
	"github.com/signalsfoundry/shsched/internal/verify"
)

// State names one point in the scheduling session's lifecycle.
type State string

const (
	Empty     State = "empty"
	Loaded    State = "loaded"
	Prepared  State = "prepared"
	Solving   State = "solving"
	Solved    State = "solved"
	Verified  State = "verified"
	Failed    State = "failed"
)

// Algorithm selects which strategy of §4.4 a Session runs.
type Algorithm string

const (
	OneShot     Algorithm = "one_shot"
	Incremental Algorithm = "incremental"
)

// Config is every tunable a scheduling run accepts.
type Config struct {
	Algorithm     Algorithm
	SwitchMinTime int64
	MIPGap        float64
	TimeLimit     int64 // seconds
	K             int   // frames per iteration, incremental only
}

// Session owns all per-run state for one scheduling attempt. It is not
// safe for concurrent use; the spec treats the engine as single-threaded
// and non-reentrant per session.
type Session struct {
	cfg     Config
	log     logging.Logger
	metrics *observability.Collector
	backend milp.Backend

	state State

	topo       *netmodel.Topology
	traffic    *netmodel.Traffic
	shp        *netmodel.SHP
	shpOffsets *netmodel.FrameOffsets
	model      *timeslot.Model
}

// New constructs an Empty session.
func New(cfg Config, log logging.Logger, metrics *observability.Collector, backend milp.Backend) *Session {
	if backend == nil {
		backend = milp.NewReferenceBackend()
	}
	return &Session{cfg: cfg, log: log, metrics: metrics, backend: backend, state: Empty}
}

// State reports the current lifecycle state.
func (s *Session) State() State { return s.state }

// Load transitions Empty -> Loaded: every frame is validated on its own and
// against the topology (a failure moves the session to Failed), then the
// topology and traffic are recorded.
func (s *Session) Load(topo *netmodel.Topology, traffic *netmodel.Traffic, shp *netmodel.SHP) error {
	if s.state != Empty {
		return schederr.New(schederr.InvalidInput, "session.Load", "session is not in the Empty state")
	}
	for _, f := range traffic.Frames {
		if err := f.Validate(); err != nil {
			s.fail()
			return err
		}
		if err := f.ValidateAgainstTopology(topo); err != nil {
			s.fail()
			return err
		}
	}
	s.topo, s.traffic, s.shp = topo, traffic, shp
	s.state = Loaded
	return nil
}

// Prepare transitions Loaded -> Prepared: it runs the Time Model and the
// Offset Graph Builder. A preparation error aborts the session before any
// solve, per §4.8's policy.
func (s *Session) Prepare(ctx context.Context) error {
	if s.state != Loaded {
		return schederr.New(schederr.InvalidInput, "session.Prepare", "session is not in the Loaded state")
	}

	model, durations, err := timeslot.Compute(s.topo, s.traffic, s.shp)
	if err != nil {
		s.fail()
		return err
	}
	s.model = model

	maxLinkID := s.topo.MaxLinkID()
	for _, f := range s.traffic.Frames {
		frameID := f.ID
		offsetgraph.BuildNormal(f, model.Hyperperiod, maxLinkID, func(linkID int) int64 {
			return durations[frameID][linkID]
		})
	}
	s.shpOffsets = offsetgraph.BuildReservation(s.shp, model.Hyperperiod, maxLinkID)

	s.log.Info(ctx, "session prepared", logging.Int("frames", len(s.traffic.Frames)), logging.Any("hyperperiod", model.Hyperperiod), logging.Any("timeslot_ns", model.Timeslot))
	s.state = Prepared
	return nil
}

// Solve transitions Prepared -> Solving -> Solved: it invokes the
// configured strategy against the session's backend.
func (s *Session) Solve(ctx context.Context) error {
	if s.state != Prepared {
		return schederr.New(schederr.InvalidInput, "session.Solve", "session is not in the Prepared state")
	}
	s.state = Solving

	strategyCfg := strategy.Config{
		SwitchMinTime: s.cfg.SwitchMinTime,
		MIPGap:        s.cfg.MIPGap,
		TimeLimit:     time.Duration(s.cfg.TimeLimit) * time.Second,
		K:             s.cfg.K,
	}

	var (
		res *strategy.Result
		err error
	)
	started := time.Now()
	switch s.cfg.Algorithm {
	case Incremental:
		res, err = strategy.Incremental(ctx, s.backend, s.traffic, s.shp, s.shpOffsets, s.model.Hyperperiod, strategyCfg, s.log)
	default:
		res, err = strategy.OneShot(ctx, s.backend, s.traffic, s.shp, s.shpOffsets, s.model.Hyperperiod, strategyCfg, s.log)
	}
	elapsed := time.Since(started)

	if s.metrics != nil {
		outcome := "ok"
		if err != nil {
			outcome = string(schederr.OfKind(err))
		}
		s.metrics.ObserveSolverCall(string(s.cfg.Algorithm), outcome, elapsed)
	}
	if err != nil {
		s.fail()
		return err
	}
	_ = res
	s.state = Solved
	return nil
}

// Verify transitions Solved -> Verified or Failed by running the §4.7
// invariant checker.
func (s *Session) Verify() error {
	if s.state != Solved {
		return schederr.New(schederr.InvalidInput, "session.Verify", "session is not in the Solved state")
	}
	if err := verify.Run(s.traffic, s.shp, s.shpOffsets, verify.Config{SwitchMinTime: s.cfg.SwitchMinTime}); err != nil {
		s.fail()
		if s.metrics != nil {
			s.metrics.ObserveViolation(string(schederr.OfKind(err)))
		}
		return err
	}
	s.state = Verified
	if s.metrics != nil {
		s.metrics.ObserveSessionEnd(string(Verified))
		used := make(map[int]struct{})
		for _, f := range s.traffic.Frames {
			for _, off := range f.Offsets.Arena {
				used[off.LinkID] = struct{}{}
			}
		}
		s.metrics.SetScenarioCounts(len(s.traffic.Frames), len(used))
	}
	return nil
}

// Run drives the full Loaded -> Verified pipeline in one call.
func (s *Session) Run(ctx context.Context) error {
	if err := s.Prepare(ctx); err != nil {
		return err
	}
	if err := s.Solve(ctx); err != nil {
		return err
	}
	return s.Verify()
}

// Model returns the resolved timeslot model, valid once Prepared.
func (s *Session) Model() *timeslot.Model { return s.model }

func (s *Session) fail() {
	s.state = Failed
	if s.metrics != nil {
		s.metrics.ObserveSessionEnd(string(Failed))
	}
}

