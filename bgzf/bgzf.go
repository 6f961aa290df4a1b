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

// Package bgzf provides support for storing sequences as BGZF archives and
// reading ranges of them back without inflating the whole archive.
package bgzf

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/klauspost/compress/gzip"
)

// MaximumBlockSize is the maximum BGZF block size.
const MaximumBlockSize = 65536

// DataBlockSize is the number of uncompressed bytes stored in every block of
// an archive written by Compress, except the last data block.
const DataBlockSize = 0xff00

// headerSize is the length of the fixed gzip header plus the BGZF extra
// field, up to and including BSIZE.
const headerSize = 18

// EOFMarker is the empty block that terminates a BGZF archive.
var EOFMarker = []byte{
	0x1f, 0x8b, 0x08, 0x04, 0x00, 0x00, 0x00, 0x00,
	0x00, 0xff, 0x06, 0x00, 0x42, 0x43, 0x02, 0x00,
	0x1b, 0x00, 0x03, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00,
}

var errNotBGZF = errors.New("not a BGZF block")

// Address stores a BGZF "virtual address".  The lower 16 bits store the data
// offset inside the uncompressed stream and upper 48 bits store the block
// offset inside the compressed archive set.
type Address uint64

// BlockOffset returns the offset to the start of the compressed block.
func (v Address) BlockOffset() uint64 {
	return uint64(v >> 16)
}

// DataOffset returns the offset to the data in the uncompressed block.
func (v Address) DataOffset() uint16 {
	return uint16(v & 0xffff)
}

// String returns v in hexadecimal.
func (v Address) String() string {
	return strconv.FormatUint(uint64(v), 16)
}

// NewAddress returns a new Address with the provided offsets.
func NewAddress(blockOffset uint64, dataOffset uint16) Address {
	return Address(blockOffset<<16 | uint64(dataOffset))
}

// Chunk specifies a region from Start to End (inclusive) inside a BGZF file.
type Chunk struct {
	Start, End Address
}

// String returns a human readable description of the receiver.
func (v *Chunk) String() string {
	return fmt.Sprintf("[%s-%s]", v.Start, v.End)
}

// DecodeBlock decodes a single BGZF block from r and returns the uncompressed
// data and the original block size (or an error).  Note that DecodeBlock may
// read bytes past the end of the block if r does not implement io.ByteReader.
func DecodeBlock(r io.Reader) ([]byte, uint16, error) {
	gzr, err := gzip.NewReader(r)
	if err != nil {
		return nil, 0, fmt.Errorf("initializing gzip reader: %v", err)
	}
	defer gzr.Close()

	extra := gzr.Header.Extra
	if len(extra) < 6 || extra[0] != 0x42 || extra[1] != 0x43 {
		return nil, 0, fmt.Errorf("unexpected extra field: %x", extra)
	}
	if extra[2] != 2 || extra[3] != 0 {
		return nil, 0, fmt.Errorf("unexpected extra length: %x", extra[2:4])
	}

	gzr.Multistream(false)
	var buffer bytes.Buffer
	if _, err := io.Copy(&buffer, gzr); err != nil {
		return nil, 0, fmt.Errorf("decompressing data: %v", err)
	}
	return buffer.Bytes(), (uint16(extra[4]) | uint16(extra[5])<<8) + 1, nil
}

// EncodeBlock returns a single BGZF block that encodes the bytes in data.
func EncodeBlock(data []byte) ([]byte, error) {
	if len(data) > MaximumBlockSize {
		return nil, errors.New("data exceeds maximum block size")
	}

	var buffer bytes.Buffer
	gzw := gzip.NewWriter(&buffer)

	gzw.Header.Extra = []byte{
		0x42, 0x43, // Extra ID.
		0x02, 0x00, // Length of extra data (2 bytes).
		0x88, 0x88, // BSIZE (filled in after writing the archive).
	}
	if _, err := gzw.Write(data); err != nil {
		return nil, fmt.Errorf("writing compressed data: %v", err)
	}
	if err := gzw.Close(); err != nil {
		return nil, fmt.Errorf("closing writer: %v", err)
	}
	bsize := buffer.Len() - 1
	if bsize >= MaximumBlockSize {
		return nil, errors.New("compressed block exceeds maximum block size")
	}
	encoded := buffer.Bytes()
	encoded[16] = byte(bsize)
	encoded[17] = byte(bsize >> 8)
	return encoded, nil
}

// Compress encodes seq as a BGZF archive of DataBlockSize blocks terminated
// by EOFMarker.
func Compress(seq []byte) ([]byte, error) {
	var archive bytes.Buffer
	for offset := 0; offset < len(seq); offset += DataBlockSize {
		end := offset + DataBlockSize
		if end > len(seq) {
			end = len(seq)
		}
		block, err := EncodeBlock(seq[offset:end])
		if err != nil {
			return nil, fmt.Errorf("encoding block at %d: %v", offset, err)
		}
		archive.Write(block)
	}
	archive.Write(EOFMarker)
	return archive.Bytes(), nil
}

// Decompress returns the concatenated data of every block in archive.
func Decompress(archive []byte) ([]byte, error) {
	var seq bytes.Buffer
	r := bytes.NewReader(archive)
	for r.Len() > 0 {
		data, _, err := DecodeBlock(r)
		if err != nil {
			return nil, fmt.Errorf("decoding block at %d: %v", len(archive)-r.Len(), err)
		}
		seq.Write(data)
	}
	return seq.Bytes(), nil
}

// blockLength returns the compressed length of the block at the start of data
// from its BSIZE field.
func blockLength(data []byte) (int, error) {
	if len(data) < headerSize || data[0] != 0x1f || data[1] != 0x8b || data[12] != 0x42 || data[13] != 0x43 {
		return 0, errNotBGZF
	}
	return (int(data[16]) | int(data[17])<<8) + 1, nil
}

// Locate returns the chunk of an archive written by Compress that holds the
// uncompressed bytes [from, to).  Only block headers are read.
func Locate(archive []byte, from, to int) (*Chunk, error) {
	if from < 0 || to < from {
		return nil, fmt.Errorf("invalid range [%d, %d)", from, to)
	}
	address := func(pos int) (Address, error) {
		var offset int
		for i := 0; i < pos/DataBlockSize; i++ {
			if offset >= len(archive) {
				return 0, fmt.Errorf("position %d is past the end of the archive", pos)
			}
			n, err := blockLength(archive[offset:])
			if err != nil {
				return 0, fmt.Errorf("block at %d: %v", offset, err)
			}
			offset += n
		}
		return NewAddress(uint64(offset), uint16(pos%DataBlockSize)), nil
	}

	start, err := address(from)
	if err != nil {
		return nil, err
	}
	last := to - 1
	if last < from {
		last = from
	}
	end, err := address(last)
	if err != nil {
		return nil, err
	}
	return &Chunk{start, end}, nil
}

// ReadChunk inflates the blocks covered by chunk and returns the bytes from
// chunk.Start through chunk.End inclusive.
func ReadChunk(archive []byte, chunk *Chunk) ([]byte, error) {
	r := bytes.NewReader(archive[chunk.Start.BlockOffset():])
	offset := chunk.Start.BlockOffset()

	var out []byte
	for {
		data, length, err := DecodeBlock(r)
		if err != nil {
			return nil, fmt.Errorf("decoding block at %d of chunk %s: %v", offset, chunk, err)
		}
		lo, hi := 0, len(data)
		if offset == chunk.Start.BlockOffset() {
			lo = int(chunk.Start.DataOffset())
		}
		if offset == chunk.End.BlockOffset() {
			hi = int(chunk.End.DataOffset()) + 1
		}
		if hi > len(data) {
			return nil, fmt.Errorf("chunk %s ends past block data", chunk)
		}
		if lo < hi {
			out = append(out, data[lo:hi]...)
		}
		if offset >= chunk.End.BlockOffset() {
			return out, nil
		}
		offset += uint64(length)
	}
}

// Slice returns the uncompressed bytes [from, to) of an archive written by
// Compress, decoding only the blocks that hold them.
func Slice(archive []byte, from, to int) ([]byte, error) {
	if from == to {
		return nil, nil
	}
	chunk, err := Locate(archive, from, to)
	if err != nil {
		return nil, err
	}
	data, err := ReadChunk(archive, chunk)
	if err != nil {
		return nil, err
	}
	if len(data) != to-from {
		return nil, fmt.Errorf("range [%d, %d) exceeds archive data", from, to)
	}
	return data, nil
}
