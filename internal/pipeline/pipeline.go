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

// Package pipeline distributes contigs over a pool of workers and writes
// their results as they arrive.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/googlegenomics/gams/internal/metrics"
	"github.com/googlegenomics/gams/store"
)

// queueSize bounds both the job and the result channel.
const queueSize = 10

// Config controls a pipeline run.
type Config struct {
	// Parallel is the number of workers.  Values below 1 select one worker.
	Parallel int
}

// Processor computes the output of one contig using the store handle of the
// worker running it.
type Processor func(ctx context.Context, s store.Store, ctgID string) (string, error)

// Run feeds contigs to cfg.Parallel workers, each with its own store handle
// obtained from open, and writes every result to w in arrival order.  With a
// single worker results keep the order of contigs.  The first error stops
// the remaining work and is returned.
func Run(ctx context.Context, cfg Config, contigs []string, open store.OpenFunc, proc Processor, w io.Writer) error {
	workers := cfg.Parallel
	if workers < 1 {
		workers = 1
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	logger := log.WithField("run", uuid.New().String())
	logger.WithFields(log.Fields{"contigs": len(contigs), "workers": workers}).Debug("Starting pipeline")

	var (
		g, gctx = errgroup.WithContext(ctx)
		jobs    = make(chan string, queueSize)
		results = make(chan string, queueSize)
	)

	g.Go(func() error {
		defer close(jobs)
		for _, id := range contigs {
			select {
			case jobs <- id:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	g.Go(func() error {
		defer close(results)
		pool, pctx := errgroup.WithContext(gctx)
		for i := 0; i < workers; i++ {
			worker := logger.WithField("worker", i)
			pool.Go(func() error {
				return work(pctx, worker, open, proc, jobs, results)
			})
		}
		return pool.Wait()
	})

	var writeErr error
	for res := range results {
		if writeErr != nil {
			continue
		}
		if _, err := io.WriteString(w, res); err != nil {
			writeErr = fmt.Errorf("writing results: %v", err)
			cancel()
		}
	}
	if err := g.Wait(); err != nil && writeErr == nil {
		return err
	}
	return writeErr
}

func work(ctx context.Context, logger *log.Entry, open store.OpenFunc, proc Processor, jobs <-chan string, results chan<- string) error {
	s, err := open(ctx)
	if err != nil {
		return fmt.Errorf("opening store: %v", err)
	}
	defer s.Close()

	for id := range jobs {
		if err := ctx.Err(); err != nil {
			return err
		}
		logger.WithField("ctg", id).Info("Process")
		start := time.Now()
		res, err := proc(ctx, s, id)
		metrics.ContigDuration.Observe(time.Since(start).Seconds())
		if err != nil {
			metrics.ContigsProcessed.WithLabelValues("error").Inc()
			return fmt.Errorf("processing %s: %v", id, err)
		}
		metrics.ContigsProcessed.WithLabelValues("ok").Inc()

		select {
		case results <- res:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}
