package patch

import (
	"context"
	"testing"

	"github.com/signalsfoundry/shsched/internal/netmodel"
	"github.com/signalsfoundry/shsched/internal/schederr"
)

func TestRunPlacesAfterFixedTransmission(t *testing.T) {
	list := NewList([]FixedTransmission{{Start: 0, Dur: 10}}, &netmodel.SHP{}, 100)

	plan, err := Run(context.Background(), list, []NewFrame{
		{FrameID: 1, Dur: 5, MinPerInst: []int64{0}, MaxPerInst: []int64{100}},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := plan.Starts[1][0]; got != 10 {
		t.Fatalf("placed start = %d, want 10 (first gap after the fixed [0,10) interval)", got)
	}
}

func TestRunSkipsReservedSHPWindows(t *testing.T) {
	shp := &netmodel.SHP{Period: 20, Duration: 5}
	list := NewList(nil, shp, 40) // reserves [0,5) and [20,25)

	plan, err := Run(context.Background(), list, []NewFrame{
		{FrameID: 1, Dur: 5, MinPerInst: []int64{0}, MaxPerInst: []int64{40}},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := plan.Starts[1][0]; got != 5 {
		t.Fatalf("placed start = %d, want 5 (first gap after SHP window [0,5))", got)
	}
}

func TestRunSecondInstanceAvoidsFirstsPlacement(t *testing.T) {
	list := NewList(nil, &netmodel.SHP{}, 100)

	plan, err := Run(context.Background(), list, []NewFrame{
		{FrameID: 1, Dur: 5, MinPerInst: []int64{0, 0}, MaxPerInst: []int64{100, 100}},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := plan.Starts[1]; got[0] != 0 || got[1] != 5 {
		t.Fatalf("placed starts = %v, want [0 5]", got)
	}
}

func TestRunInfeasibleWhenNoGapFitsWithinMax(t *testing.T) {
	list := NewList([]FixedTransmission{{Start: 0, Dur: 100}}, &netmodel.SHP{}, 100)

	_, err := Run(context.Background(), list, []NewFrame{
		{FrameID: 1, Dur: 5, MinPerInst: []int64{0}, MaxPerInst: []int64{50}},
	})
	if !schederr.Is(err, schederr.PatchInfeasible) {
		t.Fatalf("Run() = %v, want PatchInfeasible", err)
	}
}

func TestApplyWritesStartsIntoOffset(t *testing.T) {
	plan := &Plan{Starts: map[int][]int64{1: {10, 20}}}
	off := netmodel.NewOffset(3, 2, 1)
	Apply(plan, map[int]*netmodel.Offset{1: off})

	if off.Value[0][0] != 10 || off.Value[1][0] != 20 {
		t.Fatalf("offset values = %v, want [[10] [20]]", off.Value)
	}
}

func TestApplySkipsUnknownFrames(t *testing.T) {
	plan := &Plan{Starts: map[int][]int64{99: {10}}}
	// Should not panic even though no offset is registered for frame 99.
	Apply(plan, map[int]*netmodel.Offset{})
}
