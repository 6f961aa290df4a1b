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

package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/googlegenomics/gams/internal/analysis"
	"github.com/googlegenomics/gams/internal/config"
	"github.com/googlegenomics/gams/internal/db"
	"github.com/googlegenomics/gams/internal/export"
	"github.com/googlegenomics/gams/internal/genomics"
	"github.com/googlegenomics/gams/internal/index"
	"github.com/googlegenomics/gams/internal/ingest"
	"github.com/googlegenomics/gams/internal/pipeline"
	"github.com/googlegenomics/gams/store"
)

type action = func(ctx context.Context, env *environment, args []string) error

// withStore runs fn with a single store handle.
func (env *environment) withStore(ctx context.Context, fn func(s store.Store) error) error {
	s, release, err := env.cfg.Open(ctx)
	if err != nil {
		return err
	}
	defer release()
	return fn(s)
}

// output holds the flags of commands writing rows.
type output struct {
	outfile *string
	token   *string
}

func outputFlags(fs *flag.FlagSet) output {
	return output{
		outfile: fs.String("outfile", export.Stdout, "output: stdout, a file or gs://bucket/object (.gz to compress)"),
		token:   fs.String("token", "", "OAuth2 bearer token for gs:// outputs (default credentials if empty)"),
	}
}

func (o output) open(ctx context.Context) (io.WriteCloser, error) {
	return export.Open(ctx, *o.outfile, export.NewTokenClient(*o.token))
}

// write writes header followed by the output of fn and commits the result.
func (o output) write(ctx context.Context, header string, fn func(w io.Writer) error) error {
	w, err := o.open(ctx)
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(header); err != nil {
		w.Close()
		return err
	}
	if err := fn(bw); err != nil {
		w.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

// selectContigs returns the contigs named by pattern: a contig id, a prefix
// such as "ctg:I:" or a glob ending in "*".
func selectContigs(ctx context.Context, s store.Store, pattern string) ([]string, error) {
	pattern = strings.TrimSuffix(pattern, "*")
	if pattern != "" && !strings.HasSuffix(pattern, ":") {
		if _, err := s.Get(ctx, pattern); err == nil {
			return []string{pattern}, nil
		} else if !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
	}
	return db.ContigIDs(ctx, s, pattern)
}

// pipelineFlags holds the flags of commands processing contigs in parallel.
type pipelineFlags struct {
	ctg      *string
	parallel *int
	output
}

func newPipelineFlags(fs *flag.FlagSet) pipelineFlags {
	return pipelineFlags{
		ctg:      fs.String("ctg", "ctg:*", "contig id or prefix, e.g. ctg:I:* or ctg:I:2"),
		parallel: fs.Int("parallel", 1, "number of workers; output order is kept only with one worker"),
		output:   outputFlags(fs),
	}
}

func (p pipelineFlags) run(ctx context.Context, env *environment, header string, proc pipeline.Processor) error {
	open, release, err := env.cfg.Opener()
	if err != nil {
		return err
	}
	defer release()

	s, err := open(ctx)
	if err != nil {
		return err
	}
	ctgs, err := selectContigs(ctx, s, *p.ctg)
	s.Close()
	if err != nil {
		return err
	}
	log.Infof("%d contigs to be processed", len(ctgs))

	return p.write(ctx, header, func(w io.Writer) error {
		return pipeline.Run(ctx, pipeline.Config{Parallel: *p.parallel}, ctgs, open, proc, w)
	})
}

func genCommand(fs *flag.FlagSet) action {
	var (
		name     = fs.String("name", "target", "common name of the genome")
		piece    = fs.Int("piece", ingest.DefaultOptions.Piece, "length of contigs")
		fill     = fs.Int("fill", ingest.DefaultOptions.Fill, "bridge ambiguous gaps shorter than this")
		min      = fs.Int("min", ingest.DefaultOptions.Min, "drop valid regions shorter than this")
		validate = fs.Bool("validate_tiling", false, "reject overlapping contigs when building the index")
	)
	return func(ctx context.Context, env *environment, args []string) error {
		if len(args) == 0 {
			return errors.New("no sequence file specified")
		}
		var seqs []ingest.Sequence
		for _, arg := range args {
			r, err := openInput(arg)
			if err != nil {
				return err
			}
			more, err := readSequences(r)
			r.Close()
			if err != nil {
				return fmt.Errorf("reading %s: %v", arg, err)
			}
			seqs = append(seqs, more...)
		}
		opts := ingest.Options{
			Piece: *piece,
			Fill:  *fill,
			Min:   *min,
			Index: index.BuildOptions{ValidateTiling: *validate},
		}
		return env.withStore(ctx, func(s store.Store) error {
			return ingest.Genome(ctx, s, *name, seqs, opts)
		})
	}
}

func newIndex(s store.Store, useStore bool) (index.ContainmentIndex, error) {
	if useStore {
		return index.NewStoreIndex(s)
	}
	return index.NewTreeIndex(s), nil
}

func locateCommand(fs *flag.FlagSet) action {
	var (
		useStore = fs.Bool("store_index", false, "query the sorted sets in the store instead of the index trees")
		file     = fs.String("file", "", "read ranges from a file instead of the arguments")
		rebuild  = fs.Bool("rebuild", false, "rebuild the index of every chromosome before locating")
		validate = fs.Bool("validate_tiling", false, "with -rebuild, reject overlapping contigs")
		seq      = fs.Bool("seq", false, "print the sequence of each located range as FASTA")
		out      = outputFlags(fs)
	)
	return func(ctx context.Context, env *environment, args []string) error {
		if *file != "" {
			r, err := openInput(*file)
			if err != nil {
				return err
			}
			defer r.Close()
			scanner := bufio.NewScanner(r)
			for scanner.Scan() {
				if fields := strings.Fields(scanner.Text()); len(fields) > 0 {
					args = append(args, fields[0])
				}
			}
			if err := scanner.Err(); err != nil {
				return err
			}
		}
		return env.withStore(ctx, func(s store.Store) error {
			if *rebuild {
				if err := index.BuildAll(ctx, s, index.BuildOptions{ValidateTiling: *validate}); err != nil {
					return fmt.Errorf("rebuilding index: %v", err)
				}
				log.Info("Rebuilt contig index")
			}
			x, err := newIndex(s, *useStore)
			if err != nil {
				return err
			}
			return out.write(ctx, "", func(w io.Writer) error {
				return locateRanges(ctx, s, x, args, *seq, w)
			})
		})
	}
}

// locateRanges writes "range\tcontig" for every valid range, with "-" for
// ranges outside every contig.  With seq it writes ">range\nsequence" for
// the located ranges instead.
func locateRanges(ctx context.Context, s store.Store, x index.ContainmentIndex, ranges []string, seq bool, w io.Writer) error {
	for _, arg := range ranges {
		rg, err := genomics.ParseRange(arg)
		if err != nil || !rg.IsValid() {
			log.Debugf("Skipping invalid range %q", arg)
			continue
		}
		rg = rg.Unstranded()
		ctgID, ok, err := x.Locate(ctx, rg)
		if err != nil {
			return err
		}
		if !seq {
			if !ok {
				ctgID = "-"
			}
			if _, err := fmt.Fprintf(w, "%s\t%s\n", arg, ctgID); err != nil {
				return err
			}
			continue
		}
		if !ok {
			log.Debugf("No contig contains %s", arg)
			continue
		}
		ctg, err := db.Contig(ctx, s, ctgID)
		if err != nil {
			return fmt.Errorf("reading %s: %v", ctgID, err)
		}
		bases, err := db.SequenceRange(ctx, s, ctg, rg)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, ">%s\n%s\n", arg, bases); err != nil {
			return err
		}
	}
	return nil
}

// loadCommand returns the action of commands storing the rows of a file.
func loadCommand(what string, load func(ctx context.Context, s store.Store, x index.ContainmentIndex, r io.Reader) (int, error)) action {
	return func(ctx context.Context, env *environment, args []string) error {
		if len(args) != 1 {
			return fmt.Errorf("expected one %s file", what)
		}
		r, err := openInput(args[0])
		if err != nil {
			return err
		}
		defer r.Close()
		return env.withStore(ctx, func(s store.Store) error {
			n, err := load(ctx, s, index.NewTreeIndex(s), r)
			if err != nil {
				return err
			}
			log.Infof("Stored %d %s", n, what)
			return nil
		})
	}
}

func rangeCommand(fs *flag.FlagSet) action {
	return loadCommand("ranges", ingest.Ranges)
}

func featureCommand(fs *flag.FlagSet) action {
	tag := fs.String("tag", "feature", "tag of the features")
	return loadCommand("features", func(ctx context.Context, s store.Store, x index.ContainmentIndex, r io.Reader) (int, error) {
		return ingest.Features(ctx, s, x, r, *tag)
	})
}

func peakCommand(fs *flag.FlagSet) action {
	p := newPipelineFlags(fs)
	load := loadCommand("peaks", ingest.Peaks)
	return func(ctx context.Context, env *environment, args []string) error {
		if err := load(ctx, env, args); err != nil {
			return err
		}
		return p.run(ctx, env, analysis.PeakHeader, analysis.PeakNeighbors)
	}
}

func waveCommand(fs *flag.FlagSet) action {
	def := analysis.DefaultWaveOptions
	var (
		size      = fs.Int("size", def.Size, "window size")
		step      = fs.Int("step", def.Step, "window step; adjust together with -lag")
		lag       = fs.Int("lag", def.Lag, "lag of the moving window")
		threshold = fs.Float64("threshold", def.Threshold, "z-score at which a window is flagged")
		influence = fs.Float64("influence", def.Influence, "influence (0 to 1) of flagged windows on the moving statistics")
		all       = fs.Bool("all", false, "also write unflagged windows")
		merged    = fs.Bool("merge", false, "merge overlapping crests and troughs")
		coverage  = fs.Float64("coverage", def.Coverage, "mutual coverage needed to merge two windows")
		p         = newPipelineFlags(fs)
	)
	return func(ctx context.Context, env *environment, args []string) error {
		opts := analysis.WaveOptions{
			Size:      *size,
			Step:      *step,
			Lag:       *lag,
			Threshold: *threshold,
			Influence: *influence,
			All:       *all,
			Coverage:  *coverage,
		}
		proc := analysis.Wave(opts)
		if *merged {
			proc = analysis.WaveMerged(opts)
		}
		return p.run(ctx, env, analysis.WaveHeader, proc)
	}
}

func swCommand(fs *flag.FlagSet) action {
	def := analysis.DefaultFeatureWindowOptions
	var (
		size   = fs.Int("size", def.Size, "window size")
		max    = fs.Int("max", def.Max, "windows on each side of a feature")
		resize = fs.Int("resize", def.Resize, "size of the neighborhood used for GC statistics")
		p      = newPipelineFlags(fs)
	)
	return func(ctx context.Context, env *environment, args []string) error {
		opts := analysis.FeatureWindowOptions{Size: *size, Max: *max, Resize: *resize}
		return p.run(ctx, env, analysis.FeatureWindowsHeader, analysis.FeatureWindows(opts))
	}
}

func mergeCommand(fs *flag.FlagSet) action {
	var (
		coverage = fs.Float64("coverage", analysis.DefaultWaveOptions.Coverage, "mutual coverage needed to merge two windows")
		out      = outputFlags(fs)
	)
	return func(ctx context.Context, env *environment, args []string) error {
		if len(args) != 1 {
			return errors.New("expected one wave file")
		}
		r, err := openInput(args[0])
		if err != nil {
			return err
		}
		defer r.Close()
		return out.write(ctx, "", func(w io.Writer) error {
			return analysis.MergeWave(r, w, *coverage)
		})
	}
}

func countCommand(fs *flag.FlagSet) action {
	out := outputFlags(fs)
	return func(ctx context.Context, env *environment, args []string) error {
		if len(args) != 1 {
			return errors.New("expected one range file")
		}
		r, err := openInput(args[0])
		if err != nil {
			return err
		}
		defer r.Close()
		return env.withStore(ctx, func(s store.Store) error {
			x, overlaps := index.NewTreeIndex(s), index.NewOverlapIndex(s)
			return out.write(ctx, "#range\tcount\n", func(w io.Writer) error {
				scanner := bufio.NewScanner(r)
				for scanner.Scan() {
					line := scanner.Text()
					if line == "" || strings.HasPrefix(line, "#") {
						continue
					}
					field := strings.SplitN(line, "\t", 2)[0]
					rg, err := genomics.ParseRange(field)
					if err != nil || !rg.IsValid() {
						log.Debugf("Skipping invalid range %q", field)
						continue
					}
					rg = rg.Unstranded()
					var count int
					ctgID, ok, err := x.Locate(ctx, rg)
					if err != nil {
						return err
					}
					if ok {
						if count, err = overlaps.Count(ctx, ctgID, rg); err != nil {
							return err
						}
					}
					if _, err := fmt.Fprintf(w, "%s\t%d\n", line, count); err != nil {
						return err
					}
				}
				return scanner.Err()
			})
		})
	}
}

func clearCommand(fs *flag.FlagSet) action {
	return func(ctx context.Context, env *environment, args []string) error {
		if len(args) == 0 {
			return errors.New("nothing to clear; use feature, rg or peak")
		}
		return env.withStore(ctx, func(s store.Store) error {
			for _, kind := range args {
				n, err := ingest.Clear(ctx, s, kind)
				if err != nil {
					return err
				}
				log.Infof("Cleared %d keys of %s", n, kind)
			}
			return nil
		})
	}
}

func statusCommand(fs *flag.FlagSet) action {
	file := fs.String("outfile", config.DefaultFile, "file written by env")
	return func(ctx context.Context, env *environment, args []string) error {
		if len(args) != 1 {
			return errors.New("expected env or stats")
		}
		switch args[0] {
		case "env":
			return config.WriteTemplate(*file)
		case "stats":
			return env.withStore(ctx, func(s store.Store) error {
				return writeStats(ctx, s, os.Stdout)
			})
		default:
			return fmt.Errorf("unknown status %q", args[0])
		}
	}
}

func writeStats(ctx context.Context, s store.Store, w io.Writer) error {
	name, err := s.Get(ctx, db.NameKey)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return err
	}
	chrs, err := db.Chromosomes(ctx, s)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return err
	}
	fmt.Fprintf(w, "name\t%s\n", name)
	fmt.Fprintf(w, "chromosomes\t%d\n", len(chrs))
	for _, kind := range []string{db.KindContig, db.KindFeature, db.KindRange, db.KindPeak} {
		keys, err := s.Scan(ctx, kind+":")
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%d\n", kind, len(keys))
	}
	return nil
}
