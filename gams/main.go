// Copyright 2018 Google Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// This binary loads genomes into a store and runs the windowed GC analyses
// over their contigs.
//
// Usage:
//
//	gams <command> [flags] [args]
//
// The store is selected by the environment (see gams status env).
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/pkg/profile"
	log "github.com/sirupsen/logrus"

	"github.com/googlegenomics/gams/internal/config"
)

// command is a subcommand of the binary.
type command struct {
	usage string
	// flags registers the flags of the command and returns its action.
	flags func(fs *flag.FlagSet) func(ctx context.Context, env *environment, args []string) error
}

var commands = map[string]command{
	"gen":     {"gen [flags] <sequences.tsv>...: cut chromosomes into contigs and index them", genCommand},
	"locate":  {"locate [flags] <range>...: print the contig containing each range", locateCommand},
	"range":   {"range [flags] <ranges.tsv>: store ranges for overlap counting", rangeCommand},
	"feature": {"feature [flags] <features.tsv>: store features", featureCommand},
	"peak":    {"peak [flags] <peaks.tsv>: store peaks and relate them to their neighbors", peakCommand},
	"wave":    {"wave [flags]: GC waves along contigs", waveCommand},
	"sw":      {"sw [flags]: sliding windows around features", swCommand},
	"merge":   {"merge [flags] <wave.tsv>: merge overlapping crests and troughs", mergeCommand},
	"count":   {"count [flags] <ranges.tsv>: count stored ranges overlapping each range", countCommand},
	"clear":   {"clear <kind>...: delete features, ranges or peaks", clearCommand},
	"status":  {"status <env|stats>: write a gams.env template or print store statistics", statusCommand},
}

// environment holds what every command shares.
type environment struct {
	cfg *config.Config
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: gams <command> [flags] [args]")
	var names []string
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(os.Stderr, "  %s\n", commands[name].usage)
	}
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	cmd, ok := commands[os.Args[1]]
	if !ok {
		usage()
		os.Exit(2)
	}

	fs := flag.NewFlagSet(os.Args[1], flag.ExitOnError)
	var (
		cpuProfile = fs.Bool("cpuprofile", false, "write a CPU profile to the current directory")
		memProfile = fs.Bool("memprofile", false, "write a memory profile to the current directory")
		envFile    = fs.String("env", config.DefaultFile, "environment file with the store settings")
	)
	run := cmd.flags(fs)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: gams %s\n", cmd.usage)
		fs.PrintDefaults()
	}
	fs.Parse(os.Args[2:])

	cfg, err := config.Load(*envFile)
	if err != nil {
		log.Fatalf("Loading configuration: %v", err)
	}
	log.SetLevel(cfg.LogLevel)

	switch {
	case *cpuProfile:
		defer profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.Quiet).Stop()
	case *memProfile:
		defer profile.Start(profile.MemProfile, profile.ProfilePath("."), profile.Quiet).Stop()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, &environment{cfg}, fs.Args()); err != nil {
		stop()
		log.Fatalf("%s: %v", os.Args[1], err)
	}
}
