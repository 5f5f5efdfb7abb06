// Copyright 2023 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Command bgpblast opens BGP sessions to a set of configured neighbors and
// floods each with synthetic UPDATE announcements, to benchmark a receiving
// BGP implementation under route churn.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/routebench/bgpblast/bgp"
)

func main() {
	configPath := flag.String("config", "bgpblast.yaml", "path to the neighbor configuration file")
	flag.Parse()

	cfgs, err := bgp.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("bgpblast: %v", err)
	}
	if len(cfgs) == 0 {
		log.Fatalf("bgpblast: no neighbors configured in %s", *configPath)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	sup := bgp.NewSupervisor(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("starting", "neighbors", len(cfgs))
	if err := sup.Run(ctx, cfgs); err != nil {
		log.Fatalf("bgpblast: %v", err)
	}
	logger.Info("shut down")
}
