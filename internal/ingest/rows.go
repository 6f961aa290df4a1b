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

package ingest

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/googlegenomics/gams/internal/db"
	"github.com/googlegenomics/gams/internal/genomics"
	"github.com/googlegenomics/gams/internal/index"
	"github.com/googlegenomics/gams/internal/serial"
	"github.com/googlegenomics/gams/store"
)

// row is a located input line.
type row struct {
	ctgID  string
	r      genomics.Range
	fields []string
}

// readRows returns the rows of r whose first field is a valid range inside a
// single contig.  Other rows are skipped.
func readRows(ctx context.Context, x index.ContainmentIndex, r io.Reader) ([]row, error) {
	var rows []row
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for line := 1; scanner.Scan(); line++ {
		text := strings.TrimRight(scanner.Text(), "\r")
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		logger := log.WithField("line", line)
		fields := strings.Split(text, "\t")
		rg, err := genomics.ParseRange(fields[0])
		if err != nil || !rg.IsValid() {
			logger.Debugf("Skipping invalid range %q", fields[0])
			continue
		}
		rg = rg.Unstranded()
		ctgID, ok, err := x.Locate(ctx, rg)
		if err != nil {
			return nil, fmt.Errorf("locating %s: %w", rg, err)
		}
		if !ok {
			logger.Debugf("Skipping %s outside every contig", rg)
			continue
		}
		rows = append(rows, row{ctgID, rg, fields})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading rows: %v", err)
	}
	return rows, nil
}

// assign reserves one id of kind per row, grouped by contig.
func assign(ctx context.Context, s store.Store, kind string, rows []row) ([]string, error) {
	b := serial.NewBatcher(s, kind)
	for _, row := range rows {
		b.Add(row.ctgID)
	}
	byCtg, err := b.IDs(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(rows))
	for i, row := range rows {
		ids[i] = byCtg[row.ctgID][0]
		byCtg[row.ctgID] = byCtg[row.ctgID][1:]
	}
	return ids, nil
}

// Ranges stores the ranges of r and rebuilds the overlap indexes of the
// contigs they fall in.  It returns the number of stored ranges.
func Ranges(ctx context.Context, s store.Store, x index.ContainmentIndex, r io.Reader) (int, error) {
	rows, err := readRows(ctx, x, r)
	if err != nil {
		return 0, err
	}
	ids, err := assign(ctx, s, db.KindRange, rows)
	if err != nil {
		return 0, err
	}
	touched := make(map[string]bool)
	var order []string
	for i, row := range rows {
		if err := db.PutRange(ctx, s, &genomics.RangeRecord{ID: ids[i], Range: row.r}); err != nil {
			return 0, err
		}
		if !touched[row.ctgID] {
			touched[row.ctgID] = true
			order = append(order, row.ctgID)
		}
	}
	for _, ctgID := range order {
		if err := index.BuildOverlaps(ctx, s, ctgID); err != nil {
			return 0, err
		}
	}
	return len(rows), nil
}

// Features stores the ranges of r as features labelled with tag.  It returns
// the number of stored features.
func Features(ctx context.Context, s store.Store, x index.ContainmentIndex, r io.Reader, tag string) (int, error) {
	rows, err := readRows(ctx, x, r)
	if err != nil {
		return 0, err
	}
	ids, err := assign(ctx, s, db.KindFeature, rows)
	if err != nil {
		return 0, err
	}
	for i, row := range rows {
		f := &genomics.Feature{ID: ids[i], Range: row.r, Length: row.r.Length(), Tag: tag}
		if err := db.PutFeature(ctx, s, f); err != nil {
			return 0, err
		}
	}
	return len(rows), nil
}

// Peaks stores the ranges of r as peaks.  The third field of every row is
// the signal of the peak.  It returns the number of stored peaks.
func Peaks(ctx context.Context, s store.Store, x index.ContainmentIndex, r io.Reader) (int, error) {
	rows, err := readRows(ctx, x, r)
	if err != nil {
		return 0, err
	}
	var (
		peaks   []row
		signals []int
	)
	for _, row := range rows {
		if len(row.fields) < 3 {
			log.Debugf("Skipping %s without signal", row.r)
			continue
		}
		sig, err := strconv.Atoi(row.fields[2])
		if err != nil {
			log.Debugf("Skipping %s: parsing signal: %v", row.r, err)
			continue
		}
		peaks = append(peaks, row)
		signals = append(signals, sig)
	}
	ids, err := assign(ctx, s, db.KindPeak, peaks)
	if err != nil {
		return 0, err
	}
	for i, row := range peaks {
		p := &genomics.Peak{ID: ids[i], Range: row.r, Length: row.r.Length(), Signal: signals[i]}
		if err := db.PutPeak(ctx, s, p); err != nil {
			return 0, err
		}
	}
	return len(peaks), nil
}

// Clear deletes every record of kind together with its counters and derived
// keys.  It returns the number of deleted keys.
func Clear(ctx context.Context, s store.Store, kind string) (int, error) {
	prefixes := []string{kind + ":", "cnt:" + kind + ":"}
	switch kind {
	case db.KindRange:
		prefixes = append(prefixes, "idx:"+db.KindRange+":")
	case db.KindFeature:
		prefixes = append(prefixes, "bundle:"+db.KindFeature+":")
	case db.KindPeak:
	default:
		return 0, fmt.Errorf("cannot clear %q", kind)
	}

	var n int
	for _, prefix := range prefixes {
		keys, err := s.Scan(ctx, prefix)
		if err != nil {
			return n, fmt.Errorf("scanning %s: %v", prefix, err)
		}
		if len(keys) == 0 {
			continue
		}
		if err := s.Del(ctx, keys...); err != nil {
			return n, fmt.Errorf("deleting %s: %v", prefix, err)
		}
		log.WithFields(log.Fields{"prefix": prefix, "keys": len(keys)}).Info("Cleared")
		n += len(keys)
	}
	return n, nil
}
