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

package export

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"cloud.google.com/go/storage"
	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

var (
	// ErrPermissionDenied is returned when the credentials may not write the
	// object.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrInvalidAuthentication is returned when the credentials are rejected.
	ErrInvalidAuthentication = errors.New("invalid authentication")

	// ErrNotFound is returned when the bucket does not exist.
	ErrNotFound = errors.New("bucket does not exist")
)

// GCSClient is a Client for Google Cloud Storage.
type GCSClient struct {
	*storage.Client
}

// NewWriter implements Client.
func (c GCSClient) NewWriter(ctx context.Context, bucket, object string) io.WriteCloser {
	w := c.Bucket(bucket).Object(object).NewWriter(ctx)
	w.ContentType = "text/tab-separated-values"
	return w
}

// NewDefaultClient returns a client that uses the application default
// credentials.
func NewDefaultClient(ctx context.Context) (Client, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating default client: %v", err)
	}
	return GCSClient{client}, nil
}

// NewTokenClient returns a NewClientFunc building clients that authenticate
// with a fixed OAuth2 bearer token.  An empty token falls back to the
// application default credentials.
func NewTokenClient(token string) NewClientFunc {
	if token == "" {
		return NewDefaultClient
	}
	return func(ctx context.Context) (Client, error) {
		source := oauth2.StaticTokenSource(&oauth2.Token{
			TokenType:   "Bearer",
			AccessToken: token,
		})
		client, err := storage.NewClient(ctx, option.WithTokenSource(source))
		if err != nil {
			return nil, fmt.Errorf("creating client with token source: %v", err)
		}
		return GCSClient{client}, nil
	}
}

// describe maps storage errors to the errors of this package.
func describe(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, storage.ErrBucketNotExist) {
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusUnauthorized:
			return fmt.Errorf("%w: %v", ErrInvalidAuthentication, err)
		case http.StatusForbidden:
			return fmt.Errorf("%w: %v", ErrPermissionDenied, err)
		case http.StatusNotFound:
			return fmt.Errorf("%w: %v", ErrNotFound, err)
		}
	}
	return err
}
