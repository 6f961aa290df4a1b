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

// Package api implements the HTTP query service over a genome store.
//
// Routes:
//
//	GET /locate/:range         contig containing the range
//	GET /overlaps/:ctg/:range  number of stored ranges of a contig overlapping the range
//	GET /gc/:range             GC content of the range
//	GET /metrics               Prometheus metrics
package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/googlegenomics/gams/internal/gc"
	"github.com/googlegenomics/gams/internal/genomics"
	"github.com/googlegenomics/gams/internal/index"
	"github.com/googlegenomics/gams/internal/metrics"
	"github.com/googlegenomics/gams/store"
)

var (
	errInvalidRange  = errors.New("invalid range")
	errNoContig      = errors.New("no contig contains the range")
	errMissingContig = errors.New("no contig specified")
)

// Options controls a Server.
type Options struct {
	// StoreIndex answers locate queries inside the store instead of loading
	// the persisted index trees.
	StoreIndex bool
	// CacheTTL is the lifetime of GC cache buckets.  Zero selects
	// gc.DefaultTTL.
	CacheTTL time.Duration
}

// Server answers queries with a fresh store handle per request.  Must be
// created with NewServer.
type Server struct {
	open store.OpenFunc
	opts Options
}

// NewServer returns a Server reading through handles obtained from open.
func NewServer(open store.OpenFunc, opts Options) *Server {
	return &Server{open, opts}
}

// Export registers the query routes with router.
func (server *Server) Export(router gin.IRouter) {
	router.GET("/locate/:range", server.serveLocate)
	router.GET("/overlaps/:ctg/:range", server.serveOverlaps)
	router.GET("/gc/:range", server.serveGC)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// NewRouter returns a router serving server with request metrics and panic
// recovery.
func NewRouter(server *Server) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), metrics.Middleware(), forwardOrigin)
	server.Export(router)
	return router
}

func (server *Server) serveLocate(c *gin.Context) {
	r, err := parseRange(c.Param("range"))
	if err != nil {
		writeError(c, newInvalidInputError("parsing range", err))
		return
	}
	s, ok := server.openStore(c)
	if !ok {
		return
	}
	defer s.Close()

	x, err := server.index(s)
	if err != nil {
		writeError(c, err)
		return
	}
	ctgID, found, err := x.Locate(c.Request.Context(), r)
	if err != nil {
		writeError(c, newIndexError("locating "+r.String(), err))
		return
	}
	if !found {
		writeError(c, newNotFoundError(r.String(), errNoContig))
		return
	}
	c.JSON(http.StatusOK, gin.H{"range": r.String(), "contig": ctgID})
}

func (server *Server) serveOverlaps(c *gin.Context) {
	ctgID := c.Param("ctg")
	if ctgID == "" {
		writeError(c, newInvalidInputError("parsing contig", errMissingContig))
		return
	}
	r, err := parseRange(c.Param("range"))
	if err != nil {
		writeError(c, newInvalidInputError("parsing range", err))
		return
	}
	s, ok := server.openStore(c)
	if !ok {
		return
	}
	defer s.Close()

	count, err := index.NewOverlapIndex(s).Count(c.Request.Context(), ctgID, r)
	if err != nil {
		writeError(c, newIndexError("counting overlaps", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"contig": ctgID, "range": r.String(), "count": count})
}

func (server *Server) serveGC(c *gin.Context) {
	r, err := parseRange(c.Param("range"))
	if err != nil {
		writeError(c, newInvalidInputError("parsing range", err))
		return
	}
	s, ok := server.openStore(c)
	if !ok {
		return
	}
	defer s.Close()

	x, err := server.index(s)
	if err != nil {
		writeError(c, err)
		return
	}
	value, err := gc.NewBucket(s, x, server.opts.CacheTTL).Content(c.Request.Context(), r)
	if err != nil {
		writeError(c, newIndexError("computing GC content", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"range": r.String(), "gc": value})
}

func (server *Server) openStore(c *gin.Context) (store.Store, bool) {
	s, err := server.open(c.Request.Context())
	if err != nil {
		writeError(c, newUnavailableError("opening store", err))
		return nil, false
	}
	return s, true
}

func (server *Server) index(s store.Store) (index.ContainmentIndex, error) {
	if !server.opts.StoreIndex {
		return index.NewTreeIndex(s), nil
	}
	x, err := index.NewStoreIndex(s)
	if err != nil {
		return nil, newUnavailableError("opening store index", err)
	}
	return x, nil
}

func parseRange(input string) (genomics.Range, error) {
	r, err := genomics.ParseRange(input)
	if err != nil {
		return genomics.Range{}, err
	}
	if !r.IsValid() {
		return genomics.Range{}, fmt.Errorf("%s: %v", r, errInvalidRange)
	}
	return r.Unstranded(), nil
}

func forwardOrigin(c *gin.Context) {
	if origin := c.GetHeader("Origin"); origin != "" {
		c.Header("Access-Control-Allow-Origin", origin)
	}
	c.Next()
}

// apiError is used to capture errors that have a name and status code.
type apiError struct {
	name  string
	code  int
	cause error
}

func (err *apiError) Error() string {
	return fmt.Sprintf("%s (%d): %v", err.name, err.code, err.cause)
}

func newApiError(name string, code int, context string, err error) error {
	return &apiError{name, code, fmt.Errorf("%s: %v", context, err)}
}

func newInvalidInputError(context string, err error) error {
	return newApiError("InvalidInput", http.StatusBadRequest, context, err)
}

func newNotFoundError(context string, err error) error {
	return newApiError("NotFound", http.StatusNotFound, context, err)
}

func newUnavailableError(context string, err error) error {
	return newApiError("Unavailable", http.StatusServiceUnavailable, context, err)
}

// newIndexError reports corrupt indexes as unavailable; they must be rebuilt
// before queries succeed again.
func newIndexError(context string, err error) error {
	if errors.Is(err, index.ErrCorruptIndex) {
		return newUnavailableError(context, err)
	}
	return fmt.Errorf("%s: %v", context, err)
}

// writeError writes either a JSON object or bare HTTP error describing err.
// A JSON object is written only for errors with a name and code.
func writeError(c *gin.Context, err error) {
	var named *apiError
	if errors.As(err, &named) {
		c.JSON(named.code, gin.H{
			"error":   named.name,
			"message": fmt.Sprintf("%s: %v", http.StatusText(named.code), named.cause),
		})
		return
	}
	log.WithField("path", c.Request.URL.Path).Errorf("Request failed: %v", err)
	c.String(http.StatusInternalServerError, "%s: %v", http.StatusText(http.StatusInternalServerError), err)
}
