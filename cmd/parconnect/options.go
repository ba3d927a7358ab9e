package main

import (
	"flag"
	"fmt"
	"os"
	"runtime"

	"github.com/rs/zerolog/log"

	"github.com/ScottSallinen/parconnect/config"
	"github.com/ScottSallinen/parconnect/utils"
)

// Options is the CLI's own tagged-variant record (spec §6): which
// producer to build, the flags each producer needs, and the ambient
// debug/colour/optimization knobs. Populated by FlagsToOptions the way
// graph.FlagsToOptions populates a GraphOptions: validate every
// combination first, os.Exit(1) with usage on the first violation,
// otherwise return a value ready to hand to the pipeline.
type Options struct {
	Input      string // generic | dbg | kronecker | chain
	File       string
	Scale      uint
	EdgeFactor uint
	ChainLen   uint64
	Ranks      int

	Config config.Config

	DotOut    string
	BinOut    string
	NoColour  bool
	DebugFlag int
}

// FlagsToOptions declares every flag named in spec §6, validates the
// combination required by --input, and exits(1) with usage on failure —
// the same contract as the teacher's graph.FlagsToOptions.
func FlagsToOptions() Options {
	inputPtr := flag.String("input", "", "Edge producer: generic|dbg|kronecker|chain (required).")
	filePtr := flag.String("file", "", "Input file path (required for generic/dbg).")
	scalePtr := flag.Uint("scale", 0, "log2 vertex count for kronecker (required for kronecker).")
	edgefactorPtr := flag.Uint("edgefactor", 16, "Edges per vertex for kronecker.")
	chainPtr := flag.Uint64("chainLength", 0, "Path length for chain (required for chain).")
	ranksPtr := flag.Int("ranks", runtime.NumCPU(), "Number of logical bulk-synchronous ranks to simulate.")

	pointerDoublePtr := flag.String("pointerDouble", "y", "Enable pointer doubling in the coloring engine: y|n.")
	optimizationPtr := flag.String("optimization", "loadbalanced", "Coloring rebalancing strategy: naive|stable|loadbalanced.")
	thresholdPtr := flag.Float64("ksThreshold", config.Default().RunBFSThreshold, "KS-statistic cutoff below which the BFS peeler runs first.")
	maxBFSPtr := flag.Int("maxBFSIterations", config.Default().MaxBFSIterations, "BFS peeler iteration budget (0 = unbounded).")
	seedPtr := flag.Uint64("permutationSeed", config.Default().PermutationSeed, "Seed for the compactor's invertible hash.")

	dotOutPtr := flag.String("dot", "", "If set, write the input edges as one complete dot file to PATH.")
	binOutPtr := flag.String("bin", "", "If set, write the input edges as one binary edge dump to PATH.")

	debugPtr := flag.Int("debug", 0, "Adds extra debug output. Level 0 for info, 1 for debug, 2 for trace.")
	colourPtr := flag.Bool("nc", false, "Removes the colouring from the log output.")
	flag.Parse()

	if *colourPtr {
		utils.SetLoggerConsole(true)
	}
	utils.SetLevel(*debugPtr)

	if *inputPtr == "" {
		log.Error().Msg("--input is required (generic|dbg|kronecker|chain).")
		flag.Usage()
		os.Exit(1)
	}
	switch *inputPtr {
	case "generic", "dbg":
		if *filePtr == "" {
			log.Error().Msg(fmt.Sprintf("--file is required for --input=%s.", *inputPtr))
			flag.Usage()
			os.Exit(1)
		}
	case "kronecker":
		if *scalePtr == 0 {
			log.Error().Msg("--scale is required for --input=kronecker.")
			flag.Usage()
			os.Exit(1)
		}
	case "chain":
		if *chainPtr == 0 {
			log.Error().Msg("--chainLength is required for --input=chain.")
			flag.Usage()
			os.Exit(1)
		}
	default:
		log.Error().Msg("Unrecognized --input value: " + *inputPtr)
		flag.Usage()
		os.Exit(1)
	}

	if *ranksPtr <= 0 {
		log.Error().Msg("--ranks must be positive.")
		os.Exit(1)
	}

	pointerDouble, err := parseYesNo(*pointerDoublePtr)
	if err != nil {
		log.Error().Msg(err.Error())
		os.Exit(1)
	}
	optimization, err := config.ParseOptimizationLevel(*optimizationPtr)
	if err != nil {
		log.Error().Msg(err.Error())
		os.Exit(1)
	}

	cfg := config.Config{
		Optimization:     optimization,
		PointerDoubling:  pointerDouble,
		RunBFSThreshold:  *thresholdPtr,
		MaxBFSIterations: *maxBFSPtr,
		PermutationSeed:  *seedPtr,
		RoundCeiling:     config.Default().RoundCeiling,
	}

	return Options{
		Input:      *inputPtr,
		File:       *filePtr,
		Scale:      *scalePtr,
		EdgeFactor: *edgefactorPtr,
		ChainLen:   *chainPtr,
		Ranks:      *ranksPtr,
		Config:     cfg,
		DotOut:     *dotOutPtr,
		BinOut:     *binOutPtr,
		NoColour:   *colourPtr,
		DebugFlag:  *debugPtr,
	}
}

func parseYesNo(s string) (bool, error) {
	switch s {
	case "y", "Y", "yes":
		return true, nil
	case "n", "N", "no":
		return false, nil
	default:
		return false, fmt.Errorf("--pointerDouble must be y or n, got %q", s)
	}
}
