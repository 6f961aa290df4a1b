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

// Package export opens the destinations results are written to: standard
// output, local files and Google Cloud Storage objects.  Destinations ending
// in ".gz" are gzip compressed.
package export

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// Stdout is the destination naming standard output.
const Stdout = "stdout"

const gcsScheme = "gs://"

var errInvalidObjectPath = errors.New("invalid or unspecified object path")

// Client is an interface to an object store.
type Client interface {
	// NewWriter returns a writer creating or replacing an object.  The object
	// is committed by Close.
	NewWriter(ctx context.Context, bucket, object string) io.WriteCloser
}

// NewClientFunc returns the Client used for "gs://" destinations.  It is only
// called when such a destination is opened.
type NewClientFunc func(ctx context.Context) (Client, error)

// ParseObjectPath splits "gs://bucket/object" into its bucket and object.
func ParseObjectPath(dest string) (string, string, error) {
	path := strings.TrimPrefix(dest, gcsScheme)
	if parts := strings.SplitN(path, "/", 2); len(parts) == 2 {
		if parts[0] != "" && parts[1] != "" {
			return parts[0], parts[1], nil
		}
	}
	return "", "", fmt.Errorf("%q: %v", dest, errInvalidObjectPath)
}

// Open returns a writer for dest, which is Stdout (or empty), a
// "gs://bucket/object" path or a local file name.
func Open(ctx context.Context, dest string, newClient NewClientFunc) (io.WriteCloser, error) {
	var w io.WriteCloser
	switch {
	case dest == "" || dest == Stdout:
		return nopCloser{os.Stdout}, nil
	case strings.HasPrefix(dest, gcsScheme):
		bucket, object, err := ParseObjectPath(dest)
		if err != nil {
			return nil, err
		}
		client, err := newClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("creating storage client: %v", describe(err))
		}
		w = objectWriter{client.NewWriter(ctx, bucket, object)}
	default:
		f, err := os.Create(dest)
		if err != nil {
			return nil, fmt.Errorf("creating %s: %v", dest, err)
		}
		w = f
	}

	if strings.HasSuffix(dest, ".gz") {
		return &gzipWriter{gzip.NewWriter(w), w}, nil
	}
	return w, nil
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error {
	return nil
}

// objectWriter describes the errors of the object store.
type objectWriter struct {
	io.WriteCloser
}

func (w objectWriter) Write(p []byte) (int, error) {
	n, err := w.WriteCloser.Write(p)
	return n, describe(err)
}

func (w objectWriter) Close() error {
	return describe(w.WriteCloser.Close())
}

type gzipWriter struct {
	*gzip.Writer
	dst io.WriteCloser
}

func (w *gzipWriter) Close() error {
	if err := w.Writer.Close(); err != nil {
		w.dst.Close()
		return fmt.Errorf("compressing: %v", err)
	}
	return w.dst.Close()
}
