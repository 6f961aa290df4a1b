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

// Package metrics defines the Prometheus collectors of the project.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheRequests counts GC cache lookups by tier ("local", "bucket") and
	// result ("hit", "miss").
	CacheRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gams_gc_cache_requests_total",
		Help: "GC content cache lookups by tier and result",
	}, []string{"tier", "result"})

	// IndexLookups counts containment queries by backend and result.
	IndexLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gams_index_lookups_total",
		Help: "Containment index lookups by backend and result",
	}, []string{"backend", "result"})

	// ContigsProcessed counts contigs handled by pipeline workers.
	ContigsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gams_contigs_processed_total",
		Help: "Contigs processed by the pipeline by outcome",
	}, []string{"outcome"})

	ContigDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "gams_contig_duration_seconds",
		Help:    "Time spent processing one contig",
		Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
	})

	requests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gams_http_requests_total",
		Help: "HTTP requests by route and status code",
	}, []string{"route", "code"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gams_http_request_duration_seconds",
		Help:    "HTTP request latency by route",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
)

// Lookup records the result of an index lookup.
func Lookup(backend string, found bool) {
	result := "miss"
	if found {
		result = "hit"
	}
	IndexLookups.WithLabelValues(backend, result).Inc()
}

// Cache records the result of a cache lookup.
func Cache(tier string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	CacheRequests.WithLabelValues(tier, result).Inc()
}

// Middleware records the count and latency of every request by route.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		requests.WithLabelValues(route, strconv.Itoa(c.Writer.Status())).Inc()
		requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}
