package netmodel

import (
	"testing"

	"github.com/signalsfoundry/shsched/internal/schederr"
)

func sampleTopology(t *testing.T) *Topology {
	t.Helper()
	topo := NewTopology()
	must(t, topo.AddNode(&Node{ID: 1, Role: EndSystem}))
	must(t, topo.AddNode(&Node{ID: 2, Role: Switch}))
	must(t, topo.AddNode(&Node{ID: 3, Role: EndSystem}))
	must(t, topo.AddLink(&Link{ID: 10, Kind: Wired, SpeedMBs: 100}))
	must(t, topo.AddLink(&Link{ID: 11, Kind: Wired, SpeedMBs: 100}))
	must(t, topo.Connect(1, Connection{PeerNodeID: 2, LinkID: 10}))
	must(t, topo.Connect(2, Connection{PeerNodeID: 3, LinkID: 11}))
	return topo
}

func TestFrameValidateDeadlineExceedsPeriod(t *testing.T) {
	f := &Frame{ID: 1, Period: 100, Deadline: 200, Starting: 0, Receivers: []Receiver{{ReceiverID: 1, Path: []int{10}}}}
	if err := f.Validate(); !schederr.Is(err, schederr.InvalidTiming) {
		t.Fatalf("Validate() = %v, want InvalidTiming", err)
	}
}

func TestFrameValidateStartingNotBeforeDeadline(t *testing.T) {
	f := &Frame{ID: 1, Period: 100, Deadline: 50, Starting: 50, Receivers: []Receiver{{ReceiverID: 1, Path: []int{10}}}}
	if err := f.Validate(); !schederr.Is(err, schederr.InvalidTiming) {
		t.Fatalf("Validate() = %v, want InvalidTiming", err)
	}
}

func TestFrameValidateEndToEndNotBeforeDeadline(t *testing.T) {
	f := &Frame{ID: 1, Period: 100, Deadline: 50, Starting: 0, EndToEndDelay: 60, Receivers: []Receiver{{ReceiverID: 1, Path: []int{10}}}}
	if err := f.Validate(); !schederr.Is(err, schederr.InvalidTiming) {
		t.Fatalf("Validate() = %v, want InvalidTiming", err)
	}
}

func TestFrameValidateNoReceivers(t *testing.T) {
	f := &Frame{ID: 1, Period: 100, Deadline: 100, Starting: 0}
	if err := f.Validate(); !schederr.Is(err, schederr.InvalidInput) {
		t.Fatalf("Validate() = %v, want InvalidInput", err)
	}
}

func TestFrameValidateAccepts(t *testing.T) {
	f := &Frame{ID: 1, Period: 100, Deadline: 100, Starting: 0, EndToEndDelay: 50, Receivers: []Receiver{{ReceiverID: 1, Path: []int{10}}}}
	if err := f.Validate(); err != nil {
		t.Fatalf("Validate() = %v, want nil", err)
	}
}

func TestFrameValidateAgainstTopologyUnknownLink(t *testing.T) {
	topo := sampleTopology(t)
	f := &Frame{ID: 1, SenderID: 1, Receivers: []Receiver{{ReceiverID: 3, Path: []int{99}}}}
	if err := f.ValidateAgainstTopology(topo); !schederr.Is(err, schederr.InvalidInput) {
		t.Fatalf("ValidateAgainstTopology() = %v, want InvalidInput", err)
	}
}

func TestFrameValidateAgainstTopologyUnknownReceiver(t *testing.T) {
	topo := sampleTopology(t)
	f := &Frame{ID: 1, SenderID: 1, Receivers: []Receiver{{ReceiverID: 99, Path: []int{10, 11}}}}
	if err := f.ValidateAgainstTopology(topo); !schederr.Is(err, schederr.InvalidInput) {
		t.Fatalf("ValidateAgainstTopology() = %v, want InvalidInput", err)
	}
}

func TestFrameValidateAgainstTopologyWrongSender(t *testing.T) {
	topo := sampleTopology(t)
	f := &Frame{ID: 1, SenderID: 2, Receivers: []Receiver{{ReceiverID: 3, Path: []int{10, 11}}}}
	if err := f.ValidateAgainstTopology(topo); !schederr.Is(err, schederr.InvalidInput) {
		t.Fatalf("ValidateAgainstTopology() = %v, want InvalidInput", err)
	}
}

func TestFrameValidateAgainstTopologyAccepts(t *testing.T) {
	topo := sampleTopology(t)
	f := &Frame{ID: 1, SenderID: 1, Receivers: []Receiver{{ReceiverID: 3, Path: []int{10, 11}}}}
	if err := f.ValidateAgainstTopology(topo); err != nil {
		t.Fatalf("ValidateAgainstTopology() = %v, want nil", err)
	}
}

func TestFrameNumInstances(t *testing.T) {
	f := &Frame{Period: 25}
	if got := f.NumInstances(100); got != 4 {
		t.Fatalf("NumInstances = %d, want 4", got)
	}
	zero := &Frame{Period: 0}
	if got := zero.NumInstances(100); got != 0 {
		t.Fatalf("NumInstances with zero period = %d, want 0", got)
	}
}

func TestTrafficAddKeepsFrameIDsInLockstep(t *testing.T) {
	tr := &Traffic{}
	tr.Add(&Frame{ID: 5})
	tr.Add(&Frame{ID: 7})
	if len(tr.Frames) != 2 || len(tr.FrameIDs) != 2 {
		t.Fatalf("Traffic.Add did not keep Frames/FrameIDs in lockstep: %+v", tr)
	}
	if tr.FrameIDs[0] != 5 || tr.FrameIDs[1] != 7 {
		t.Fatalf("FrameIDs = %v, want [5 7]", tr.FrameIDs)
	}
}

func TestSHPActive(t *testing.T) {
	var nilSHP *SHP
	if nilSHP.Active() {
		t.Fatal("nil SHP reported active")
	}
	inactive := &SHP{Period: 0, Duration: 10}
	if inactive.Active() {
		t.Fatal("zero-period SHP reported active")
	}
	active := &SHP{Period: 1000, Duration: 10}
	if !active.Active() {
		t.Fatal("positive-period SHP reported inactive")
	}
}
