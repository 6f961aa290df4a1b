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
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/googlegenomics/gams/internal/ingest"
)

const stdin = "stdin"

type readCloser struct {
	io.Reader
	close func() error
}

func (r readCloser) Close() error {
	return r.close()
}

// openInput opens a local file, "stdin" or "-".  Names ending in ".gz" are
// decompressed.
func openInput(name string) (io.ReadCloser, error) {
	if name == stdin || name == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(name, ".gz") {
		return f, nil
	}
	zr, err := gzip.NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("opening %s: %v", name, err)
	}
	return readCloser{zr, func() error {
		zr.Close()
		return f.Close()
	}}, nil
}

// readSequences reads "id<TAB>sequence" lines.
func readSequences(r io.Reader) ([]ingest.Sequence, error) {
	var seqs []ingest.Sequence
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 1024*1024), 1<<30)
	for line := 1; scanner.Scan(); line++ {
		text := scanner.Text()
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.SplitN(text, "\t", 2)
		if len(fields) != 2 || fields[0] == "" {
			return nil, fmt.Errorf("line %d: expected id and sequence", line)
		}
		seqs = append(seqs, ingest.Sequence{ID: fields[0], Seq: []byte(strings.TrimSpace(fields[1]))})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return seqs, nil
}
