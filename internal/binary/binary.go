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

// Package binary provides support for framing binary blobs.  A frame is a
// magic string, the little endian uint32 length of the payload and the
// payload itself.
package binary

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// CheckMagic checks the magic bytes from the provided reader.
func CheckMagic(r io.Reader, want []byte) error {
	got := make([]byte, len(want))
	if _, err := io.ReadFull(r, got); err != nil {
		return fmt.Errorf("reading magic: %v", err)
	}
	if !bytes.Equal(got, want) {
		return fmt.Errorf("wrong magic %q (wanted %q)", got, want)
	}
	return nil
}

// Read reads a little endian value from r into v using binary.Read.
func Read(r io.Reader, v interface{}) error {
	return binary.Read(r, binary.LittleEndian, v)
}

// Frame returns payload prefixed by magic and its length.
func Frame(magic, payload []byte) []byte {
	var buf bytes.Buffer
	buf.Write(magic)
	binary.Write(&buf, binary.LittleEndian, uint32(len(payload)))
	buf.Write(payload)
	return buf.Bytes()
}

// Unframe checks the magic and length of a frame and returns its payload.
func Unframe(magic, frame []byte) ([]byte, error) {
	r := bytes.NewReader(frame)
	if err := CheckMagic(r, magic); err != nil {
		return nil, err
	}
	var length uint32
	if err := Read(r, &length); err != nil {
		return nil, fmt.Errorf("reading payload length: %v", err)
	}
	if int64(length) != int64(r.Len()) {
		return nil, fmt.Errorf("payload holds %d bytes, header says %d", r.Len(), length)
	}
	return frame[len(frame)-r.Len():], nil
}
