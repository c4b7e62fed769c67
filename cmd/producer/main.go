// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

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
	source := flag.String("source", "mock", "sample source: mock, mpu9250 or serial")
	flag.Parse()

	// Load configuration
	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	cfg := config.Get()
	logging.Init(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile})

	log.Println("starting motion-monitor sample producer (accelerometer → MQTT)")

	if err := app.RunProducer(*source); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
