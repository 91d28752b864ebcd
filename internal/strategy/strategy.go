// Package strategy drives the two scheduling strategies of §4.4 against a
// milp.Backend: One-shot builds and solves the whole scenario in a single
// call, Incremental schedules K frames at a time, pinning each solved batch
// before moving on.
package strategy

import (
	"context"
	"fmt"
	"time"

	"github.com/signalsfoundry/shsched/internal/constraintmodel"
	"github.com/signalsfoundry/shsched/internal/logging"
	"github.com/signalsfoundry/shsched/internal/milp"
	"github.com/signalsfoundry/shsched/internal/netmodel"
	"github.com/signalsfoundry/shsched/internal/schederr"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("shsched-strategy")

// Config holds the tunables §4.3/§4.4 name explicitly.
type Config struct {
	SwitchMinTime int64
	MIPGap        float64
	TimeLimit     time.Duration // per-invocation; applies per iteration in incremental mode
	K             int           // frames per iteration, incremental only
}

// Result is what a strategy run produces: the hyperperiod the scenario
// schedules against and, for diagnostics, how many solver calls it took.
type Result struct {
	Hyperperiod int64
	SolverCalls int
}

func solverParams(cfg Config) milp.Params {
	return milp.Params{MIPGap: cfg.MIPGap, TimeLimit: cfg.TimeLimit}
}

// OneShot builds every variable and constraint for the full scenario, asks
// the backend for a single solution, and reads offsets back on success.
func OneShot(ctx context.Context, b milp.Backend, traffic *netmodel.Traffic, shp *netmodel.SHP, shpOffsets *netmodel.FrameOffsets, hyperperiod int64, cfg Config, log logging.Logger) (*Result, error) {
	ctx, span := tracer.Start(ctx, "scheduling.one_shot",
		trace.WithAttributes(attribute.Int("frame_count", len(traffic.Frames))))
	defer span.End()

	log.Info(ctx, "one-shot: building constraint model", logging.Int("frames", len(traffic.Frames)))

	if err := constraintmodel.RegisterSHP(b, shpOffsets, shp); err != nil {
		return nil, schederr.Wrap(schederr.BackendError, "strategy.OneShot", "registering SHP variables", err)
	}

	windows := make(map[int]constraintmodel.Window, len(traffic.Frames))
	for _, f := range traffic.Frames {
		if _, err := constraintmodel.RegisterFrame(b, f, cfg.SwitchMinTime, hyperperiod); err != nil {
			return nil, schederr.Wrap(schederr.BackendError, "strategy.OneShot", "registering frame variables", err)
		}
		windows[f.ID] = constraintmodel.FrameWindow(f.Starting, f.Deadline, f.Period)
	}

	links := constraintmodel.NewLinkDistRegistry(b)
	for i, f := range traffic.Frames {
		for _, g := range traffic.Frames[i+1:] {
			if err := constraintmodel.RegisterContention(b, f, g, windows[f.ID], windows[g.ID], links, hyperperiod); err != nil {
				return nil, schederr.Wrap(schederr.BackendError, "strategy.OneShot", "registering contention constraints", err)
			}
		}
		if err := constraintmodel.RegisterContentionWithSHP(b, f, windows[f.ID], shpOffsets, shp, links, hyperperiod); err != nil {
			return nil, schederr.Wrap(schederr.BackendError, "strategy.OneShot", "registering SHP contention constraints", err)
		}
	}

	if err := b.Update(); err != nil {
		return nil, schederr.Wrap(schederr.BackendError, "strategy.OneShot", "backend update", err)
	}

	status, err := b.Optimize(ctx, solverParams(cfg))
	if err != nil {
		return nil, schederr.Wrap(schederr.BackendError, "strategy.OneShot", "solver invocation", err)
	}
	if status != milp.StatusOptimal && status != milp.StatusFeasible {
		return nil, schederr.New(schederr.NoSchedule, "strategy.OneShot", "backend returned no incumbent")
	}

	for _, f := range traffic.Frames {
		if err := readBack(b, f.Offsets); err != nil {
			return nil, err
		}
	}
	if err := readBack(b, shpOffsets); err != nil {
		return nil, err
	}

	log.Info(ctx, "one-shot: solved", logging.String("status", statusName(status)))
	return &Result{Hyperperiod: hyperperiod, SolverCalls: 1}, nil
}

// Incremental schedules the traffic K frames at a time: each batch gets a
// fresh LinkDist per link, and once a batch solves, its offsets are pinned
// (equality constraint, FrameDist objective weight zeroed) before the next
// batch is introduced.
func Incremental(ctx context.Context, b milp.Backend, traffic *netmodel.Traffic, shp *netmodel.SHP, shpOffsets *netmodel.FrameOffsets, hyperperiod int64, cfg Config, log logging.Logger) (*Result, error) {
	k := cfg.K
	if k <= 0 {
		k = 1
	}

	links := constraintmodel.NewLinkDistRegistry(b)
	windows := make(map[int]constraintmodel.Window, len(traffic.Frames))
	frameDist := make(map[int]milp.VarHandle, len(traffic.Frames))
	var scheduled []*netmodel.Frame

	calls := 0
	for cursor := 0; cursor < len(traffic.Frames); cursor += k {
		end := cursor + k
		if end > len(traffic.Frames) {
			end = len(traffic.Frames)
		}
		batch := traffic.Frames[cursor:end]

		err := func() error {
			iterCtx, iterSpan := tracer.Start(ctx, "scheduling.incremental_iteration",
				trace.WithAttributes(
					attribute.Int("iteration", cursor/k),
					attribute.Int("batch_size", len(batch)),
				))
			defer iterSpan.End()

			if cursor == 0 {
				if err := constraintmodel.RegisterSHP(b, shpOffsets, shp); err != nil {
					return schederr.Wrap(schederr.BackendError, "strategy.Incremental", "registering SHP variables", err)
				}
			}

			if err := links.Rotate(); err != nil {
				return schederr.Wrap(schederr.BackendError, "strategy.Incremental", "rotating LinkDist variables", err)
			}

			for _, f := range batch {
				fd, err := constraintmodel.RegisterFrame(b, f, cfg.SwitchMinTime, hyperperiod)
				if err != nil {
					return schederr.Wrap(schederr.BackendError, "strategy.Incremental", "registering frame variables", err)
				}
				frameDist[f.ID] = fd
				windows[f.ID] = constraintmodel.FrameWindow(f.Starting, f.Deadline, f.Period)

				for _, prior := range scheduled {
					if err := constraintmodel.RegisterContention(b, prior, f, windows[prior.ID], windows[f.ID], links, hyperperiod); err != nil {
						return schederr.Wrap(schederr.BackendError, "strategy.Incremental", "registering contention constraints", err)
					}
				}
				for _, other := range batch {
					if other.ID == f.ID {
						break
					}
					if err := constraintmodel.RegisterContention(b, other, f, windows[other.ID], windows[f.ID], links, hyperperiod); err != nil {
						return schederr.Wrap(schederr.BackendError, "strategy.Incremental", "registering contention constraints", err)
					}
				}
				if err := constraintmodel.RegisterContentionWithSHP(b, f, windows[f.ID], shpOffsets, shp, links, hyperperiod); err != nil {
					return schederr.Wrap(schederr.BackendError, "strategy.Incremental", "registering SHP contention constraints", err)
				}
			}

			if err := b.Update(); err != nil {
				return schederr.Wrap(schederr.BackendError, "strategy.Incremental", "backend update", err)
			}

			status, err := b.Optimize(iterCtx, solverParams(cfg))
			calls++
			if err != nil {
				return schederr.Wrap(schederr.BackendError, "strategy.Incremental", "solver invocation", err)
			}
			if status != milp.StatusOptimal && status != milp.StatusFeasible {
				return schederr.New(schederr.NoSchedule, fmt.Sprintf("strategy.Incremental[iter=%d]", cursor/k), "backend returned no incumbent")
			}

			for _, f := range batch {
				if err := readBack(b, f.Offsets); err != nil {
					return err
				}
				if err := pin(b, f.Offsets); err != nil {
					return schederr.Wrap(schederr.BackendError, "strategy.Incremental", "pinning solved offsets", err)
				}
				if err := b.SetObjectiveCoefficient(frameDist[f.ID], 0); err != nil {
					return schederr.Wrap(schederr.BackendError, "strategy.Incremental", "zeroing FrameDist coefficient", err)
				}
			}
			if cursor == 0 {
				if err := readBack(b, shpOffsets); err != nil {
					return err
				}
			}

			scheduled = append(scheduled, batch...)
			log.Info(iterCtx, "incremental: iteration solved", logging.Int("iteration", cursor/k), logging.Int("batch_size", len(batch)))
			return nil
		}()
		if err != nil {
			return nil, err
		}
	}

	return &Result{Hyperperiod: hyperperiod, SolverCalls: calls}, nil
}

func readBack(b milp.Backend, fo *netmodel.FrameOffsets) error {
	for _, off := range fo.Arena {
		for i := 0; i < off.NumInstances; i++ {
			for r := 0; r < off.NumReplicas; r++ {
				v := off.VarHandle[i][r]
				if v == milp.Unset {
					continue
				}
				val, err := b.Value(v)
				if err != nil {
					return schederr.Wrap(schederr.BackendError, "strategy.readBack", "reading solved value", err)
				}
				off.Value[i][r] = val
			}
		}
	}
	return nil
}

func pin(b milp.Backend, fo *netmodel.FrameOffsets) error {
	for _, off := range fo.Arena {
		for i := 0; i < off.NumInstances; i++ {
			for r := 0; r < off.NumReplicas; r++ {
				v := off.VarHandle[i][r]
				if v == milp.Unset {
					continue
				}
				pinned := milp.LinExpr{{Var: v, Coeff: 1}}
				if err := b.AddConstraint(pinned, milp.EQ, off.Value[i][r], fmt.Sprintf("pin_L%d_i%d_r%d", off.LinkID, i, r)); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func statusName(s milp.Status) string {
	switch s {
	case milp.StatusOptimal:
		return "optimal"
	case milp.StatusFeasible:
		return "feasible"
	case milp.StatusInfeasible:
		return "infeasible"
	default:
		return "no_incumbent"
	}
}

