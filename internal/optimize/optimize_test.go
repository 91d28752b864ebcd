package optimize

import (
	"context"
	"testing"

	"github.com/signalsfoundry/shsched/internal/milp"
	"github.com/signalsfoundry/shsched/internal/netmodel"
	"github.com/signalsfoundry/shsched/internal/schederr"
)

func TestRunPinsFixedTransmissionVariable(t *testing.T) {
	b := milp.NewReferenceBackend()
	fixedOffset := netmodel.NewOffset(0, 1, 1)
	fixedOffset.Value[0][0] = 5
	fixed := []Fixed{{LinkID: 0, Offset: fixedOffset}}

	candidates := []Candidate{
		{FrameID: 1, Dur: 2, MinPerInst: []int64{0}, MaxPerInst: []int64{8}},
	}

	result, err := Run(context.Background(), b, 0, fixed, &netmodel.SHP{}, nil, candidates, milp.Params{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if fixedOffset.VarHandle[0][0] == milp.Unset {
		t.Fatal("fixed transmission variable was not wired back into its Offset")
	}
	val, err := b.Value(fixedOffset.VarHandle[0][0])
	if err != nil {
		t.Fatalf("Value: %v", err)
	}
	if val != 5 {
		t.Fatalf("fixed variable solved to %d, want pinned 5", val)
	}
	starts := result.Starts[1]
	if len(starts) != 1 || starts[0] < 0 || starts[0] > 8 {
		t.Fatalf("candidate start out of domain: %v", starts)
	}
}

func TestRunCandidateAvoidsActiveSHPReservation(t *testing.T) {
	b := milp.NewReferenceBackend()
	shp := &netmodel.SHP{Period: 20, Duration: 1}
	shpOffset := netmodel.NewOffset(0, 1, 1)
	shpOffset.Time = 1
	shpOffset.Value[0][0] = 0

	candidates := []Candidate{
		{FrameID: 1, Dur: 2, MinPerInst: []int64{0}, MaxPerInst: []int64{8}},
	}

	result, err := Run(context.Background(), b, 0, nil, shp, shpOffset, candidates, milp.Params{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if shpOffset.VarHandle[0][0] == milp.Unset {
		t.Fatal("SHP offset variable was not wired back")
	}
	start := result.Starts[1][0]
	// The SHP reservation occupies [0,1); a candidate of duration 2 starting
	// before 1 would overlap it, so the solved start must clear the window.
	if start < 1 {
		t.Fatalf("candidate start = %d, want >= 1 to clear the SHP reservation", start)
	}
}

func TestRunReturnsNoScheduleWhenCandidatesCannotAvoidContention(t *testing.T) {
	b := milp.NewReferenceBackend()
	candidates := []Candidate{
		{FrameID: 1, Dur: 2, MinPerInst: []int64{0}, MaxPerInst: []int64{1}},
		{FrameID: 2, Dur: 2, MinPerInst: []int64{0}, MaxPerInst: []int64{1}},
	}

	_, err := Run(context.Background(), b, 0, nil, &netmodel.SHP{}, nil, candidates, milp.Params{})
	if !schederr.Is(err, schederr.NoSchedule) {
		t.Fatalf("Run() = %v, want NoSchedule", err)
	}
}

func TestRunSingleCandidateNoContentionNeeded(t *testing.T) {
	b := milp.NewReferenceBackend()
	candidates := []Candidate{
		{FrameID: 1, Dur: 3, MinPerInst: []int64{2, 10}, MaxPerInst: []int64{6, 14}},
	}

	result, err := Run(context.Background(), b, 0, nil, &netmodel.SHP{}, nil, candidates, milp.Params{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	starts := result.Starts[1]
	if len(starts) != 2 {
		t.Fatalf("starts len = %d, want 2", len(starts))
	}
	if starts[0] < 2 || starts[0] > 6 {
		t.Fatalf("instance 0 start = %d, want in [2,6]", starts[0])
	}
	if starts[1] < 10 || starts[1] > 14 {
		t.Fatalf("instance 1 start = %d, want in [10,14]", starts[1])
	}
}
