// Command shsched-main runs the full ingest -> Time Model -> Offset Graph
// Builder -> strategy -> verifier -> schedule writer pipeline of §6:
//
//	shsched-main <network> <config> <schedule-out>
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/signalsfoundry/shsched/internal/docio"
	"github.com/signalsfoundry/shsched/internal/logging"
	"github.com/signalsfoundry/shsched/internal/observability"
	"github.com/signalsfoundry/shsched/internal/schederr"
	"github.com/signalsfoundry/shsched/internal/session"
	"go.opentelemetry.io/otel"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: shsched-main <network> <config> <schedule-out>")
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

	if err := run(ctx, log, flag.Arg(0), flag.Arg(1), flag.Arg(2)); err != nil {
		log.Error(ctx, "scheduling run failed", logging.String("kind", string(schederr.OfKind(err))), logging.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, log logging.Logger, networkPath, configPath, scheduleOutPath string) error {
	ctx, span := otel.Tracer("shsched-main").Start(ctx, "run")
	defer span.End()

	networkFile, err := os.Open(networkPath)
	if err != nil {
		return schederr.Wrap(schederr.InvalidInput, "main.run", "opening network document", err)
	}
	defer networkFile.Close()

	topo, traffic, shp, switchMinTime, err := docio.ReadNetwork(networkFile)
	if err != nil {
		return err
	}

	configFile, err := os.Open(configPath)
	if err != nil {
		return schederr.Wrap(schederr.InvalidInput, "main.run", "opening scheduler configuration", err)
	}
	defer configFile.Close()

	cfg, err := docio.ReadConfig(configFile, switchMinTime)
	if err != nil {
		return err
	}

	metrics, err := observability.NewCollector(nil)
	if err != nil {
		return schederr.Wrap(schederr.BackendError, "main.run", "initializing metrics collector", err)
	}

	sess := session.New(cfg, log, metrics, nil)
	if err := sess.Load(topo, traffic, shp); err != nil {
		return err
	}
	if err := sess.Run(ctx); err != nil {
		return err
	}

	out, err := os.Create(scheduleOutPath)
	if err != nil {
		return schederr.Wrap(schederr.InvalidInput, "main.run", "creating schedule output file", err)
	}
	defer out.Close()

	return docio.WriteSchedule(out, topo, traffic, shp, sess.Model())
}
