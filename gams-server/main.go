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

// This binary serves locate, overlap and GC queries over a genome store.
package main

import (
	"flag"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/googlegenomics/gams/api"
	"github.com/googlegenomics/gams/internal/config"
)

var (
	port     = flag.Int("port", 8080, "HTTP service port")
	envFile  = flag.String("env", config.DefaultFile, "environment file with the store settings")
	useStore = flag.Bool("store_index", false, "answer locate queries with the sorted sets in the store")
	cacheTTL = flag.Duration("cache_ttl", 0, "lifetime of GC cache buckets (default 180s)")

	secure    = flag.Bool("secure", false, "serve in HTTPS-only mode")
	httpsCert = flag.String("https_cert", "", "HTTPS certificate file")
	httpsKey  = flag.String("https_key", "", "HTTPS key file")
)

func main() {
	flag.Parse()

	if *secure && (*httpsCert == "" || *httpsKey == "") {
		log.Fatalf("You must specify both -https_cert and -https_key in secure mode.")
	}

	cfg, err := config.Load(*envFile)
	if err != nil {
		log.Fatalf("Loading configuration: %v", err)
	}
	log.SetLevel(cfg.LogLevel)
	if cfg.LogLevel < log.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}

	open, release, err := cfg.Opener()
	if err != nil {
		log.Fatalf("Opening store: %v", err)
	}
	defer release()

	server := api.NewServer(open, api.Options{StoreIndex: *useStore, CacheTTL: *cacheTTL})
	handler := api.NewRouter(server)

	address := fmt.Sprintf(":%d", *port)
	log.WithFields(log.Fields{"address": address, "store": cfg.Store}).Info("Serving")
	if *secure {
		if err := http.ListenAndServeTLS(address, *httpsCert, *httpsKey, handler); err != nil {
			log.Fatalf("HTTPS server returned an error: %v", err)
		}
	} else {
		if err := http.ListenAndServe(address, handler); err != nil {
			log.Fatalf("HTTP server returned an error: %v", err)
		}
	}
}
