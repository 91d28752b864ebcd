package session

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/signalsfoundry/shsched/internal/logging"
	"github.com/signalsfoundry/shsched/internal/milp"
	"github.com/signalsfoundry/shsched/internal/netmodel"
	"github.com/signalsfoundry/shsched/internal/observability"
	"github.com/signalsfoundry/shsched/internal/schederr"
)

func sampleTopology(t *testing.T) *netmodel.Topology {
	t.Helper()
	topo := netmodel.NewTopology()
	if err := topo.AddNode(&netmodel.Node{ID: 1, Role: netmodel.EndSystem}); err != nil {
		t.Fatalf("AddNode: %v", err)
	}
	if err := topo.AddNode(&netmodel.Node{ID: 2, Role: netmodel.EndSystem}); err != nil {
		t.Fatalf("AddNode: %v", err)
	}
	if err := topo.AddLink(&netmodel.Link{ID: 0, SpeedMBs: 100}); err != nil {
		t.Fatalf("AddLink: %v", err)
	}
	if err := topo.Connect(1, netmodel.Connection{PeerNodeID: 2, LinkID: 0}); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	return topo
}

func sampleTraffic() *netmodel.Traffic {
	traffic := &netmodel.Traffic{}
	traffic.Add(&netmodel.Frame{
		ID:        1,
		SizeBytes: 100,
		Period:    16000,
		Deadline:  16000,
		Starting:  0,
		SenderID:  1,
		Receivers: []netmodel.Receiver{{ReceiverID: 2, Path: []int{0}}},
	})
	return traffic
}

func newTestSession(t *testing.T) *Session {
	t.Helper()
	return New(Config{Algorithm: OneShot}, logging.Noop(), nil, milp.NewReferenceBackend())
}

func TestSessionFullPipelineReachesVerified(t *testing.T) {
	s := newTestSession(t)
	if s.State() != Empty {
		t.Fatalf("initial state = %v, want Empty", s.State())
	}

	topo := sampleTopology(t)
	traffic := sampleTraffic()
	if err := s.Load(topo, traffic, &netmodel.SHP{}); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.State() != Loaded {
		t.Fatalf("state after Load = %v, want Loaded", s.State())
	}

	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if s.State() != Verified {
		t.Fatalf("state after Run = %v, want Verified", s.State())
	}

	model := s.Model()
	if model == nil {
		t.Fatal("Model() is nil after a successful run")
	}
	if model.Timeslot != 8000 {
		t.Fatalf("Timeslot = %d, want 8000", model.Timeslot)
	}
	if model.Hyperperiod != 2 {
		t.Fatalf("Hyperperiod = %d, want 2", model.Hyperperiod)
	}

	f := traffic.Frames[0]
	off, ok := f.Offsets.Get(0)
	if !ok {
		t.Fatal("frame has no offset on link 0 after a successful run")
	}
	if !off.IsSet(0, 0) {
		t.Fatal("offset instance 0 was never solved")
	}
}

func TestSessionLoadRejectsInvalidFrameAndFails(t *testing.T) {
	s := newTestSession(t)
	topo := sampleTopology(t)
	traffic := &netmodel.Traffic{}
	traffic.Add(&netmodel.Frame{
		ID:        1,
		SizeBytes: 100,
		Period:    16000,
		Deadline:  16000,
		Starting:  16000, // starting == deadline, invalid
		SenderID:  1,
		Receivers: []netmodel.Receiver{{ReceiverID: 2, Path: []int{0}}},
	})

	err := s.Load(topo, traffic, &netmodel.SHP{})
	if !schederr.Is(err, schederr.InvalidTiming) {
		t.Fatalf("Load() = %v, want InvalidTiming", err)
	}
	if s.State() != Failed {
		t.Fatalf("state after invalid Load = %v, want Failed", s.State())
	}
}

func TestSessionLoadRejectsUnknownTopologyReference(t *testing.T) {
	s := newTestSession(t)
	topo := sampleTopology(t)
	traffic := &netmodel.Traffic{}
	traffic.Add(&netmodel.Frame{
		ID:        1,
		SizeBytes: 100,
		Period:    16000,
		Deadline:  16000,
		Starting:  0,
		SenderID:  1,
		Receivers: []netmodel.Receiver{{ReceiverID: 2, Path: []int{99}}},
	})

	err := s.Load(topo, traffic, &netmodel.SHP{})
	if !schederr.Is(err, schederr.InvalidInput) {
		t.Fatalf("Load() = %v, want InvalidInput", err)
	}
	if s.State() != Failed {
		t.Fatalf("state after invalid Load = %v, want Failed", s.State())
	}
}

func TestSessionRejectsOutOfOrderTransitions(t *testing.T) {
	s := newTestSession(t)

	if err := s.Prepare(context.Background()); !schederr.Is(err, schederr.InvalidInput) {
		t.Fatalf("Prepare() on Empty session = %v, want InvalidInput", err)
	}
	if err := s.Solve(context.Background()); !schederr.Is(err, schederr.InvalidInput) {
		t.Fatalf("Solve() on Empty session = %v, want InvalidInput", err)
	}
	if err := s.Verify(); !schederr.Is(err, schederr.InvalidInput) {
		t.Fatalf("Verify() on Empty session = %v, want InvalidInput", err)
	}

	topo := sampleTopology(t)
	traffic := sampleTraffic()
	if err := s.Load(topo, traffic, &netmodel.SHP{}); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := s.Load(topo, traffic, &netmodel.SHP{}); !schederr.Is(err, schederr.InvalidInput) {
		t.Fatalf("second Load() = %v, want InvalidInput", err)
	}
}

func TestSessionObservesMetricsOnSuccess(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := observability.NewCollector(reg)
	if err != nil {
		t.Fatalf("NewCollector: %v", err)
	}

	s := New(Config{Algorithm: OneShot}, logging.Noop(), collector, milp.NewReferenceBackend())
	topo := sampleTopology(t)
	traffic := sampleTraffic()
	if err := s.Load(topo, traffic, &netmodel.SHP{}); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	metricFamilies, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	found := false
	for _, mf := range metricFamilies {
		if mf.GetName() == "shsched_sessions_total" {
			found = true
		}
	}
	if !found {
		t.Fatal("shsched_sessions_total was not registered/observed")
	}
}
