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

package analysis

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/googlegenomics/gams/internal/intspan"
	"github.com/googlegenomics/gams/internal/merge"
)

// MergeWave reads rows written by Wave and writes them back with overlapping
// crests and troughs of each chromosome merged.  Chromosomes keep the order
// of their first row.
func MergeWave(r io.Reader, w io.Writer, coverage float64) error {
	var (
		chrs  []string
		byChr = make(map[string][]merge.Row)
	)
	scanner := bufio.NewScanner(r)
	for line := 1; scanner.Scan(); line++ {
		text := scanner.Text()
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		chr, row, err := parseWaveRow(text)
		if err != nil {
			log.WithField("line", line).Debugf("Skipping row: %v", err)
			continue
		}
		if _, ok := byChr[chr]; !ok {
			chrs = append(chrs, chr)
		}
		byChr[chr] = append(byChr[chr], row)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading rows: %v", err)
	}

	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(WaveHeader); err != nil {
		return err
	}
	for _, chr := range chrs {
		var b strings.Builder
		writeWaveRows(&b, chr, mergeRows(byChr[chr], coverage))
		if _, err := bw.WriteString(b.String()); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func parseWaveRow(text string) (string, merge.Row, error) {
	fields := strings.Split(text, "\t")
	if len(fields) < 3 {
		return "", merge.Row{}, fmt.Errorf("expected 3 fields, got %d", len(fields))
	}
	colon := strings.LastIndexByte(fields[0], ':')
	if colon <= 0 {
		return "", merge.Row{}, fmt.Errorf("malformed range %q", fields[0])
	}
	span, err := intspan.Parse(fields[0][colon+1:])
	if err != nil {
		return "", merge.Row{}, err
	}
	gc, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return "", merge.Row{}, fmt.Errorf("parsing gc: %v", err)
	}
	sig, err := strconv.Atoi(fields[2])
	if err != nil {
		return "", merge.Row{}, fmt.Errorf("parsing signal: %v", err)
	}
	return fields[0][:colon], merge.Row{Span: span, GC: gc, Signal: sig}, nil
}
