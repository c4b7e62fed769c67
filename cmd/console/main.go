// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"flag"
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/relabs-tech/motion_monitor/internal/app"
	"github.com/relabs-tech/motion_monitor/internal/config"
)

func main() {
	configPath := flag.String("config", "./motion_config.txt", "path to configuration file")
	ticks := flag.Int("ticks", 0, "number of samples to run, 0 runs until interrupted")
	flag.Parse()

	log.Println("starting motion-monitor (mock console)")

	cfg := config.Default()
	if _, err := os.Stat(*configPath); err == nil {
		if cfg, err = config.Load(*configPath); err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
	}

	if err := app.RunMockConsole(cfg, os.Stdout, *ticks); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
