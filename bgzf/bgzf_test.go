// Copyright 2017 Google Inc.
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

package bgzf

import (
	"bytes"
	"math/rand"
	"strings"
	"testing"
)

func TestAddress(t *testing.T) {
	testCases := []struct {
		name  string
		block uint64
		data  uint16
		want  string
	}{
		{"maximum value", 0x0000ffffffffffff, 0xffff, "ffffffffffffffff"},
		{"zero data offset", 0xffff, 0x0000, "ffff0000"},
		{"zero", 0, 0, "0"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			address := NewAddress(tc.block, tc.data)
			if got, want := address.BlockOffset(), tc.block; got != want {
				t.Errorf("Wrong block offset: got 0x%016x, want 0x%016x", got, want)
			}
			if got, want := address.DataOffset(), tc.data; got != want {
				t.Errorf("Wrong data offset: got 0x%04x, want 0x%04x", got, want)
			}
			if got, want := address.String(), tc.want; got != want {
				t.Errorf("Wrong string result: got %q, want %q", got, want)
			}
		})
	}
}

func TestReadChunk_CorruptBlockNamesChunk(t *testing.T) {
	archive, err := Compress([]byte("ACGTACGTAC"))
	if err != nil {
		t.Fatalf("Compress failed: %v", err)
	}
	corrupt := append([]byte(nil), archive...)
	corrupt[0] = 0
	chunk := &Chunk{NewAddress(0, 2), NewAddress(0, 5)}
	_, err = ReadChunk(corrupt, chunk)
	if err == nil {
		t.Fatal("ReadChunk of a corrupt block: unexpected success")
	}
	if got, want := err.Error(), "chunk [2-5]"; !strings.Contains(got, want) {
		t.Errorf("Wrong error: got %q, want it to contain %q", got, want)
	}
}

func TestEncodeBlock_BlockSizes(t *testing.T) {
	if _, err := EncodeBlock(make([]byte, MaximumBlockSize+1)); err == nil {
		t.Fatal("EncodeBlock() should fail with block over size limit but didn't")
	}
	if _, err := EncodeBlock(make([]byte, MaximumBlockSize)); err != nil {
		t.Fatalf("EncodeBlock() should succeed with block at size limit: %v", err)
	}
}

func TestDecodeBlock(t *testing.T) {
	block, err := EncodeBlock([]byte("ACGTNNACGT"))
	if err != nil {
		t.Fatalf("Failed to encode block: %v", err)
	}
	r := bytes.NewReader(append(block, EOFMarker...))

	blocks := []struct {
		bsize uint16
		data  string
	}{
		{uint16(len(block)), "ACGTNNACGT"},
		{uint16(len(EOFMarker)), ""},
	}
	for i, want := range blocks {
		data, length, err := DecodeBlock(r)
		if err != nil {
			t.Fatalf("Failed to read block %d: %v", i, err)
		}
		if got := length; got != want.bsize {
			t.Errorf("Wrong compressed block length: got %d, want %d", got, want.bsize)
		}
		if got := string(data); got != want.data {
			t.Errorf("Wrong data: got %q, want %q", got, want.data)
		}
	}
}

func testSequence(n int) []byte {
	rng := rand.New(rand.NewSource(42))
	seq := make([]byte, n)
	for i := range seq {
		seq[i] = "ACGTacgtN"[rng.Intn(9)]
	}
	return seq
}

func TestCompressDecompress(t *testing.T) {
	for _, n := range []int{0, 1, DataBlockSize, DataBlockSize + 1, 3*DataBlockSize + 17} {
		seq := testSequence(n)
		archive, err := Compress(seq)
		if err != nil {
			t.Fatalf("Compress(%d bases) failed: %v", n, err)
		}
		if !bytes.HasSuffix(archive, EOFMarker) {
			t.Errorf("Archive of %d bases lacks the EOF marker", n)
		}
		got, err := Decompress(archive)
		if err != nil {
			t.Fatalf("Decompress(%d bases) failed: %v", n, err)
		}
		if !bytes.Equal(got, seq) {
			t.Errorf("Round trip of %d bases changed the sequence", n)
		}
	}
}

func TestSlice(t *testing.T) {
	seq := testSequence(3*DataBlockSize + 100)
	archive, err := Compress(seq)
	if err != nil {
		t.Fatalf("Compress failed: %v", err)
	}

	testCases := []struct {
		name     string
		from, to int
	}{
		{"first bases", 0, 10},
		{"single base", 5, 6},
		{"block boundary", DataBlockSize - 5, DataBlockSize + 5},
		{"whole second block", DataBlockSize, 2 * DataBlockSize},
		{"three blocks", 100, 2*DataBlockSize + 100},
		{"tail", 3 * DataBlockSize, 3*DataBlockSize + 100},
		{"empty", 7, 7},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Slice(archive, tc.from, tc.to)
			if err != nil {
				t.Fatalf("Slice(%d, %d) failed: %v", tc.from, tc.to, err)
			}
			if want := seq[tc.from:tc.to]; !bytes.Equal(got, want) {
				t.Errorf("Slice(%d, %d): got %q, want %q", tc.from, tc.to, got, want)
			}
		})
	}
}

func TestSlice_OutOfRange(t *testing.T) {
	archive, err := Compress(testSequence(100))
	if err != nil {
		t.Fatalf("Compress failed: %v", err)
	}
	for _, r := range [][2]int{{90, 101}, {DataBlockSize, DataBlockSize + 1}, {5, 3}, {-1, 3}} {
		if _, err := Slice(archive, r[0], r[1]); err == nil {
			t.Errorf("Slice(%d, %d): unexpected success", r[0], r[1])
		}
	}
}

func TestLocate(t *testing.T) {
	archive, err := Compress(testSequence(2 * DataBlockSize))
	if err != nil {
		t.Fatalf("Compress failed: %v", err)
	}
	first, err := blockLength(archive)
	if err != nil {
		t.Fatalf("Reading first block length: %v", err)
	}
	chunk, err := Locate(archive, 10, DataBlockSize+20)
	if err != nil {
		t.Fatalf("Locate failed: %v", err)
	}
	if got, want := chunk.Start, NewAddress(0, 10); got != want {
		t.Errorf("Wrong start: got %s, want %s", got, want)
	}
	if got, want := chunk.End, NewAddress(uint64(first), 19); got != want {
		t.Errorf("Wrong end: got %s, want %s", got, want)
	}
}
