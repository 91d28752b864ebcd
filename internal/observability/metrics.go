package observability

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector bundles the Prometheus metrics emitted by a scheduling session:
// one-shot/incremental solves, the patch heuristic, and the verifier.
type Collector struct {
	gatherer prometheus.Gatherer

	SessionsTotal      *prometheus.CounterVec
	SolverInvocations  *prometheus.CounterVec
	SolverDuration     *prometheus.HistogramVec
	PatchPlacements    *prometheus.CounterVec
	ScheduleViolations *prometheus.CounterVec

	FramesScheduled prometheus.Gauge
	LinksInUse      prometheus.Gauge
}

// NewCollector registers scheduling metrics against the provided registerer,
// defaulting to the global Prometheus registry when nil.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	sessions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "shsched_sessions_total",
		Help: "Total number of scheduling sessions, labeled by terminal state.",
	}, []string{"state"})
	sessions, err := registerCounterVec(reg, sessions, "shsched_sessions_total")
	if err != nil {
		return nil, err
	}

	invocations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "shsched_solver_invocations_total",
		Help: "Total number of MILP backend invocations, labeled by strategy and outcome.",
	}, []string{"strategy", "outcome"})
	invocations, err = registerCounterVec(reg, invocations, "shsched_solver_invocations_total")
	if err != nil {
		return nil, err
	}

	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "shsched_solver_duration_seconds",
		Help:    "Wall-clock duration of a single solver invocation.",
		Buckets: prometheus.DefBuckets,
	}, []string{"strategy"})
	duration, err = registerHistogramVec(reg, duration, "shsched_solver_duration_seconds")
	if err != nil {
		return nil, err
	}

	placements := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "shsched_patch_placements_total",
		Help: "Total number of frame instances placed (or rejected) by the patch engine.",
	}, []string{"outcome"})
	placements, err = registerCounterVec(reg, placements, "shsched_patch_placements_total")
	if err != nil {
		return nil, err
	}

	violations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "shsched_schedule_violations_total",
		Help: "Total number of invariant violations found by the verifier, labeled by kind.",
	}, []string{"kind"})
	violations, err = registerCounterVec(reg, violations, "shsched_schedule_violations_total")
	if err != nil {
		return nil, err
	}

	framesScheduled, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "shsched_frames_scheduled",
		Help: "Number of frames with every offset assigned in the current session.",
	}), "shsched_frames_scheduled")
	if err != nil {
		return nil, err
	}
	linksInUse, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "shsched_links_in_use",
		Help: "Number of distinct links carrying at least one scheduled transmission.",
	}), "shsched_links_in_use")
	if err != nil {
		return nil, err
	}

	return &Collector{
		gatherer:           gatherer,
		SessionsTotal:      sessions,
		SolverInvocations:  invocations,
		SolverDuration:     duration,
		PatchPlacements:    placements,
		ScheduleViolations: violations,
		FramesScheduled:    framesScheduled,
		LinksInUse:         linksInUse,
	}, nil
}

// ObserveSolverCall records the outcome and duration of one solver invocation.
func (c *Collector) ObserveSolverCall(strategy, outcome string, elapsed time.Duration) {
	if c == nil {
		return
	}
	if c.SolverInvocations != nil {
		c.SolverInvocations.WithLabelValues(strategy, outcome).Inc()
	}
	if c.SolverDuration != nil {
		c.SolverDuration.WithLabelValues(strategy).Observe(elapsed.Seconds())
	}
}

// ObservePatchPlacement records a single patch engine placement attempt.
func (c *Collector) ObservePatchPlacement(outcome string) {
	if c == nil {
		return
	}
	if c.PatchPlacements != nil {
		c.PatchPlacements.WithLabelValues(outcome).Inc()
	}
}

// ObserveViolation records a verifier invariant violation.
func (c *Collector) ObserveViolation(kind string) {
	if c == nil {
		return
	}
	if c.ScheduleViolations != nil {
		c.ScheduleViolations.WithLabelValues(kind).Inc()
	}
}

// ObserveSessionEnd records the terminal state of a scheduling session.
func (c *Collector) ObserveSessionEnd(state string) {
	if c == nil {
		return
	}
	if c.SessionsTotal != nil {
		c.SessionsTotal.WithLabelValues(state).Inc()
	}
}

// SetScenarioCounts updates the scenario-size gauges.
func (c *Collector) SetScenarioCounts(framesScheduled, linksInUse int) {
	if c == nil {
		return
	}
	if c.FramesScheduled != nil {
		c.FramesScheduled.Set(float64(framesScheduled))
	}
	if c.LinksInUse != nil {
		c.LinksInUse.Set(float64(linksInUse))
	}
}

// Handler exposes a ready-to-use /metrics handler, useful when the CLI is
// wrapped by a longer-lived process (e.g. a batch scheduling service).
func (c *Collector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec, name string) (*prometheus.HistogramVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}
