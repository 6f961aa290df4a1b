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

// Package genomics contains definitions related to Genomic data.
package genomics

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/googlegenomics/gams/internal/intspan"
)

var errMalformedRange = errors.New("malformed range")

// Range defines a region of genomic interest on a single chromosome.
type Range struct {
	// Chr is the chromosome identifier.
	Chr string
	// Strand is "+", "-" or empty when unknown.
	Strand string
	// Start and End specify the closed range (in base pairs, 1-based) relative
	// to the chromosome.
	Start, End int
}

// NewRange returns an unstranded range.
func NewRange(chr string, start, end int) Range {
	return Range{Chr: chr, Start: start, End: end}
}

// ParseRange parses ranges written as "chr:start-end", "chr(+):start-end" or
// "chr:pos".  The returned range may still be invalid (see IsValid).
func ParseRange(input string) (Range, error) {
	input = strings.TrimSpace(input)
	colon := strings.LastIndexByte(input, ':')
	if colon <= 0 || colon == len(input)-1 {
		return Range{}, fmt.Errorf("%q: %v", input, errMalformedRange)
	}

	var r Range
	r.Chr = input[:colon]
	if open := strings.IndexByte(r.Chr, '('); open >= 0 {
		if !strings.HasSuffix(r.Chr, ")") {
			return Range{}, fmt.Errorf("%q: %v", input, errMalformedRange)
		}
		r.Strand = r.Chr[open+1 : len(r.Chr)-1]
		r.Chr = r.Chr[:open]
		if r.Strand != "+" && r.Strand != "-" && r.Strand != "" {
			return Range{}, fmt.Errorf("%q: unknown strand %q", input, r.Strand)
		}
	}
	if r.Chr == "" {
		return Range{}, fmt.Errorf("%q: %v", input, errMalformedRange)
	}

	positions := strings.Replace(input[colon+1:], ",", "", -1)
	bounds := strings.SplitN(positions, "-", 2)
	start, err := strconv.Atoi(bounds[0])
	if err != nil {
		return Range{}, fmt.Errorf("parsing start: %v", err)
	}
	r.Start, r.End = start, start
	if len(bounds) == 2 {
		if r.End, err = strconv.Atoi(bounds[1]); err != nil {
			return Range{}, fmt.Errorf("parsing end: %v", err)
		}
	}
	return r, nil
}

// IsValid reports whether r names a chromosome and 1 <= Start <= End.
func (r Range) IsValid() bool {
	return r.Chr != "" && r.Start >= 1 && r.Start <= r.End
}

// Length returns the number of bases covered by r.
func (r Range) Length() int {
	return r.End - r.Start + 1
}

// Span returns the positions of r as a span.
func (r Range) Span() *intspan.Span {
	return intspan.FromPair(r.Start, r.End)
}

// Unstranded returns a copy of r without strand information.
func (r Range) Unstranded() Range {
	r.Strand = ""
	return r
}

// String returns a representation of r that can be parsed with ParseRange.
// Single base ranges are written as "chr:pos".
func (r Range) String() string {
	var b strings.Builder
	b.WriteString(r.Chr)
	if r.Strand != "" {
		b.WriteString("(" + r.Strand + ")")
	}
	b.WriteByte(':')
	b.WriteString(strconv.Itoa(r.Start))
	if r.End != r.Start {
		b.WriteByte('-')
		b.WriteString(strconv.Itoa(r.End))
	}
	return b.String()
}
