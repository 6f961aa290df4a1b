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

package db

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Record kinds.  Every record is stored under "{kind}:{parent}:{serial}" and
// its serials are drawn from the counter "cnt:{kind}:{parent}".
const (
	KindContig  = "ctg"
	KindFeature = "feature"
	KindRange   = "rg"
	KindPeak    = "peak"
)

// Genome level keys.
const (
	NameKey      = "top:name"
	ChrsKey      = "top:chrs"
	ChrLengthKey = "top:chr_len"
)

// CacheBucketSize is the number of bases sharing one GC cache bucket.
const CacheBucketSize = 1000

// RecordKey returns the key of a record.
func RecordKey(kind, parent string, serial int64) string {
	return fmt.Sprintf("%s:%s:%d", kind, parent, serial)
}

// RecordPrefix returns the prefix shared by the records of parent.
func RecordPrefix(kind, parent string) string {
	return kind + ":" + parent + ":"
}

// CounterKey returns the serial counter of the records of parent.
func CounterKey(kind, parent string) string {
	return "cnt:" + kind + ":" + parent
}

// ContigKey returns the key of a contig of chr.
func ContigKey(chr string, serial int64) string {
	return RecordKey(KindContig, chr, serial)
}

// SequenceKey returns the key of the compressed sequence of a contig.
func SequenceKey(ctgID string) string {
	return "seq:" + ctgID
}

// BundleKey returns the key holding all contigs of chr.
func BundleKey(chr string) string {
	return "bundle:" + KindContig + ":" + chr
}

// ContigIndexKey returns the key of the containment index of chr.
func ContigIndexKey(chr string) string {
	return "idx:ctg:" + chr
}

// RangeIndexKey returns the key of the overlap index of the ranges of a
// contig.
func RangeIndexKey(ctgID string) string {
	return "idx:rg:" + ctgID
}

// ContigStartsKey returns the sorted set of contig starts of chr.
func ContigStartsKey(chr string) string {
	return "ctg-s:" + chr
}

// ContigEndsKey returns the sorted set of contig ends of chr.
func ContigEndsKey(chr string) string {
	return "ctg-e:" + chr
}

// CacheKey returns the GC cache bucket holding ranges starting at start.
func CacheKey(chr string, start int) string {
	return fmt.Sprintf("cache:%s:%d", chr, start/CacheBucketSize)
}

// Serial returns the serial at the end of a record key, or -1.
func Serial(key string) int64 {
	i := strings.LastIndexByte(key, ':')
	n, err := strconv.ParseInt(key[i+1:], 10, 64)
	if err != nil {
		return -1
	}
	return n
}

// SortBySerial orders record keys sharing a prefix by ascending serial.
func SortBySerial(keys []string) {
	sort.SliceStable(keys, func(i, j int) bool {
		return Serial(keys[i]) < Serial(keys[j])
	})
}

// ContigChr returns the chromosome of a contig id such as "ctg:I:3".
func ContigChr(ctgID string) (string, error) {
	if !strings.HasPrefix(ctgID, KindContig+":") {
		return "", fmt.Errorf("%q is not a contig id", ctgID)
	}
	rest := ctgID[len(KindContig)+1:]
	i := strings.LastIndexByte(rest, ':')
	if i <= 0 {
		return "", fmt.Errorf("%q is not a contig id", ctgID)
	}
	return rest[:i], nil
}
