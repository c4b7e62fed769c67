// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Replay runs the batch filter and classifier over a recorded CSV file
// (X_ACC, Y_ACC, Z_ACC columns) and prints the motion events it finds.
//
// Run:
//
//	go run ./cmd/replay -file recording.csv
package main

import (
	"flag"

	log "github.com/sirupsen/logrus"

	"github.com/relabs-tech/motion_monitor/internal/app"
	"github.com/relabs-tech/motion_monitor/internal/config"
	"github.com/relabs-tech/motion_monitor/internal/logging"
)

func main() {
	configPath := flag.String("config", "./motion_config.txt", "path to configuration file")
	file := flag.String("file", "", "recorded CSV to replay")
	flag.Parse()

	if *file == "" {
		log.Fatal("missing -file")
	}
	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logging.Init(logging.Options{Level: config.Get().LogLevel})

	if err := app.RunReplay(*file); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
