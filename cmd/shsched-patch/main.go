// Command shsched-patch runs the Patch Engine of §4.5:
//
//	shsched-patch <patch-in> <patch-out> <timing-out>
//
// On infeasibility only the timing document is written; per §7, the
// process still exits 0 (mirroring the reference implementation), but logs
// the failure and writes nothing to patch-out.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/signalsfoundry/shsched/internal/docio"
	"github.com/signalsfoundry/shsched/internal/logging"
	"github.com/signalsfoundry/shsched/internal/observability"
	"github.com/signalsfoundry/shsched/internal/patch"
	"github.com/signalsfoundry/shsched/internal/schederr"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: shsched-patch <patch-in> <patch-out> <timing-out>")
	}
	flag.Parse()
	if flag.NArg() != 3 {
		flag.Usage()
		os.Exit(2)
	}

	log := logging.NewFromEnv()
	ctx := context.Background()

	shutdown, err := observability.InitTracing(ctx, observability.TracingConfigFromEnv(), log)
	if err != nil {
		log.Error(ctx, "tracing initialization failed", logging.String("error", err.Error()))
		os.Exit(1)
	}
	defer observability.ShutdownWithTimeout(ctx, shutdown, log)

	ctx = logging.ContextWithLogger(ctx, log)

	if err := run(ctx, flag.Arg(0), flag.Arg(1), flag.Arg(2)); err != nil {
		log.Error(ctx, "patch run failed", logging.String("kind", string(schederr.OfKind(err))), logging.String("error", err.Error()))
	}
}

func run(ctx context.Context, inPath, outPath, timingPath string) error {
	inFile, err := os.Open(inPath)
	if err != nil {
		return schederr.Wrap(schederr.InvalidInput, "main.run", "opening patch document", err)
	}
	defer inFile.Close()

	input, err := docio.ReadPatch(inFile)
	if err != nil {
		return err
	}

	metrics, err := observability.NewCollector(nil)
	if err != nil {
		return schederr.Wrap(schederr.BackendError, "main.run", "initializing metrics collector", err)
	}

	list := patch.NewList(input.FixedList, input.SHP, input.Hyperperiod)

	start := time.Now()
	plan, runErr := patch.Run(ctx, list, input.NewFrames)
	elapsed := time.Since(start)

	if runErr != nil {
		metrics.ObservePatchPlacement("infeasible")
	} else {
		for _, starts := range plan.Starts {
			for range starts {
				metrics.ObservePatchPlacement("placed")
			}
		}
	}

	timingFile, err := os.Create(timingPath)
	if err != nil {
		return schederr.Wrap(schederr.InvalidInput, "main.run", "creating timing output file", err)
	}
	defer timingFile.Close()
	if err := docio.WriteTiming(timingFile, elapsed.Nanoseconds()); err != nil {
		return err
	}

	if runErr != nil {
		return runErr
	}

	durs := make(map[int]int64, len(input.NewFrames))
	for _, nf := range input.NewFrames {
		durs[nf.FrameID] = nf.Dur
	}

	outFile, err := os.Create(outPath)
	if err != nil {
		return schederr.Wrap(schederr.InvalidInput, "main.run", "creating patch output file", err)
	}
	defer outFile.Close()

	return docio.WritePatchedSchedule(outFile, input.LinkID, durs, plan.Starts)
}
