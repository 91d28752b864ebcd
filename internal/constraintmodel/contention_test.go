package constraintmodel

import (
	"testing"

	"github.com/signalsfoundry/shsched/internal/milp"
	"github.com/signalsfoundry/shsched/internal/netmodel"
)

func TestLinkDistRegistryReusesWithinIteration(t *testing.T) {
	b := milp.NewRecordingBackend()
	r := NewLinkDistRegistry(b)

	v1, err := r.Get(1, 40)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	v2, err := r.Get(1, 40)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if v1 != v2 {
		t.Fatal("Get minted a second variable for the same link within one iteration")
	}
	if len(b.Vars) != 1 {
		t.Fatalf("recorded vars = %d, want 1", len(b.Vars))
	}
	if b.Objective[v1] != 0.1 {
		t.Fatalf("LinkDist objective coeff = %v, want 0.1", b.Objective[v1])
	}
}

func TestLinkDistRegistryRotateZeroesObjectiveAndMintsFresh(t *testing.T) {
	b := milp.NewRecordingBackend()
	r := NewLinkDistRegistry(b)

	first, err := r.Get(1, 40)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if err := r.Rotate(); err != nil {
		t.Fatalf("Rotate: %v", err)
	}
	if b.Objective[first] != 0 {
		t.Fatalf("previous LinkDist objective coeff after Rotate = %v, want 0", b.Objective[first])
	}

	second, err := r.Get(1, 40)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if second == first {
		t.Fatal("Get after Rotate returned the same variable handle")
	}
	if len(b.Vars) != 2 {
		t.Fatalf("recorded vars = %d, want 2", len(b.Vars))
	}
}

func singleLinkOffsets(maxLinkID, linkID int, numInstances int, dur int64) *netmodel.FrameOffsets {
	fo := netmodel.NewFrameOffsets(maxLinkID)
	off, _ := fo.GetOrCreate(linkID, numInstances, 1)
	off.Time = dur
	for i := 0; i < numInstances; i++ {
		off.VarHandle[i][0] = milp.VarHandle(100 + i) // placeholder handles
	}
	return fo
}

func TestRegisterContentionOnSharedLinkEmitsDisjunction(t *testing.T) {
	b := milp.NewRecordingBackend()
	links := NewLinkDistRegistry(b)

	a := &netmodel.Frame{ID: 1, Offsets: singleLinkOffsets(2, 1, 1, 2)}
	bf := &netmodel.Frame{ID: 2, Offsets: singleLinkOffsets(2, 1, 1, 2)}

	winA := FrameWindow(0, 10, 20)
	winB := FrameWindow(0, 10, 20)

	if err := RegisterContention(b, a, bf, winA, winB, links, 40); err != nil {
		t.Fatalf("RegisterContention: %v", err)
	}

	// One overlapping instance pair -> 2 binary vars + 1 LinkDist var.
	if len(b.Vars) != 3 {
		t.Fatalf("recorded vars = %d, want 3 (2 indicators + 1 LinkDist)", len(b.Vars))
	}
	if len(b.Ors) != 1 {
		t.Fatalf("recorded OR constraints = %d, want 1", len(b.Ors))
	}
	if len(b.Indicators) != 2 {
		t.Fatalf("recorded indicator constraints = %d, want 2", len(b.Indicators))
	}
}

func TestRegisterContentionSkipsNonSharedLinks(t *testing.T) {
	b := milp.NewRecordingBackend()
	links := NewLinkDistRegistry(b)

	a := &netmodel.Frame{ID: 1, Offsets: singleLinkOffsets(2, 1, 1, 2)}
	bf := &netmodel.Frame{ID: 2, Offsets: singleLinkOffsets(2, 2, 1, 2)} // disjoint link id

	if err := RegisterContention(b, a, bf, FrameWindow(0, 10, 20), FrameWindow(0, 10, 20), links, 40); err != nil {
		t.Fatalf("RegisterContention: %v", err)
	}
	if len(b.Vars) != 0 {
		t.Fatalf("recorded vars = %d, want 0 for frames sharing no link", len(b.Vars))
	}
}

func TestRegisterContentionWithSHPInactiveIsNoop(t *testing.T) {
	b := milp.NewRecordingBackend()
	links := NewLinkDistRegistry(b)
	f := &netmodel.Frame{ID: 1, Offsets: singleLinkOffsets(1, 1, 1, 2)}

	err := RegisterContentionWithSHP(b, f, FrameWindow(0, 10, 20), netmodel.NewFrameOffsets(1), &netmodel.SHP{}, links, 40)
	if err != nil {
		t.Fatalf("RegisterContentionWithSHP: %v", err)
	}
	if len(b.Vars) != 0 {
		t.Fatalf("recorded vars = %d, want 0 for inactive SHP", len(b.Vars))
	}
}

func TestRegisterContentionWithSHPActive(t *testing.T) {
	b := milp.NewRecordingBackend()
	links := NewLinkDistRegistry(b)

	f := &netmodel.Frame{ID: 1, Offsets: singleLinkOffsets(1, 1, 1, 2)}
	shp := &netmodel.SHP{Period: 20, Duration: 1}
	shpOffsets := singleLinkOffsets(1, 1, 2, 1)

	err := RegisterContentionWithSHP(b, f, FrameWindow(0, 10, 20), shpOffsets, shp, links, 40)
	if err != nil {
		t.Fatalf("RegisterContentionWithSHP: %v", err)
	}
	if len(b.Ors) == 0 {
		t.Fatal("expected at least one disjunction registered against the SHP reservation")
	}
}
