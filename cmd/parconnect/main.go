// Command parconnect is the CLI entry point (spec §6): it wires one of
// the four edge producers, the pipeline orchestrator, and the optional
// telemetry/export side channels together, following the same
// flags-then-launch shape as the teacher's cmd/lp-cc.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/ScottSallinen/parconnect/comm"
	"github.com/ScottSallinen/parconnect/engine"
	"github.com/ScottSallinen/parconnect/export"
	"github.com/ScottSallinen/parconnect/pipeline"
	"github.com/ScottSallinen/parconnect/producers"
	"github.com/ScottSallinen/parconnect/telemetry"
)

func buildProducer(opt Options) (engine.Producer, error) {
	switch opt.Input {
	case "generic":
		return producers.Generic(opt.File), nil
	case "dbg":
		return producers.DeBruijn(opt.File, 31), nil
	case "kronecker":
		return producers.Kronecker(opt.Scale, opt.EdgeFactor), nil
	case "chain":
		return producers.Chain(opt.ChainLen), nil
	default:
		return nil, fmt.Errorf("main: unrecognized --input %q", opt.Input)
	}
}

func main() {
	opt := FlagsToOptions()

	producer, err := buildProducer(opt)
	if err != nil {
		log.Error().Err(err).Msg("failed to construct producer")
		os.Exit(1)
	}

	rec := telemetry.NewRecorder(0)
	var result engine.Result

	// pipeline.Run reports every failure mode as a Result value rather
	// than a Go error (spec §9 "no exceptions cross the public
	// boundary"), so the only error RunRanks can see here is a genuine
	// bug in the collective machinery itself. Only rank 0's goroutine
	// ever touches rec, so passing the same pointer into every rank's
	// call is race-free: every other rank passes nil instead.
	runErr := comm.RunRanks(context.Background(), opt.Ranks, func(ctx context.Context, c *comm.Communicator) error {
		var rankRec *telemetry.Recorder
		if c.Rank == 0 {
			rankRec = rec
		}
		r := pipeline.Run(ctx, c, producer, opt.Config, rankRec)
		if c.Rank == 0 {
			result = r
		}
		return nil
	})

	if runErr != nil {
		log.Error().Err(runErr).Msg("run failed")
		os.Exit(1)
	}

	switch result.Kind {
	case engine.ComponentCountKind:
		fmt.Println(result.String())
		rec.Finish(result.Count, result.Iterations)
	case engine.OperatorErrorKind:
		log.Error().Err(result.Err).Msg("operator error")
		os.Exit(1)
	case engine.InputErrorKind:
		log.Error().Err(result.Err).Msg("input error")
		os.Exit(2)
	case engine.OverflowKind:
		log.Error().Err(result.Err).Msg("overflow")
		os.Exit(3)
	}

	if opt.DotOut != "" || opt.BinOut != "" {
		writeExports(opt)
	}
}

// writeExports re-runs the producer once, single-threaded, purely to
// dump the raw input edges in the requested persisted format (spec §6
// "Persisted formats"); this is diagnostic tooling, not part of the
// core pipeline, so it deliberately does not share the distributed
// Edge Bus the pipeline already consumed and discarded.
func writeExports(opt Options) {
	producer, err := buildProducer(opt)
	if err != nil {
		log.Error().Err(err).Msg("failed to rebuild producer for export")
		return
	}
	comms := comm.World(1)
	edges, err := producer(comms[0])
	if err != nil {
		log.Error().Err(err).Msg("failed to produce edges for export")
		return
	}
	if opt.DotOut != "" {
		f, err := os.Create(opt.DotOut)
		if err != nil {
			log.Error().Err(err).Msg("failed to create dot output")
			return
		}
		defer f.Close()
		if err := export.WriteDot(0, 1, f, edges); err != nil {
			log.Error().Err(err).Msg("failed to write dot output")
		}
	}
	if opt.BinOut != "" {
		f, err := os.Create(opt.BinOut)
		if err != nil {
			log.Error().Err(err).Msg("failed to create binary output")
			return
		}
		defer f.Close()
		if err := export.WriteBinary(f, edges); err != nil {
			log.Error().Err(err).Msg("failed to write binary output")
		}
	}
}
